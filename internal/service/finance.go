package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/atinyakov/minihub/internal/finance"
	"github.com/atinyakov/minihub/internal/models"
)

// TransactionService is the resource service for transactions.
type TransactionService = ResourceService[models.Transaction, models.TransactionInput]

// FinanceService adds balance and statistics views to the transaction service.
type FinanceService struct {
	*TransactionService
	now func() time.Time
}

// NewFinanceService wraps txs.
func NewFinanceService(txs *TransactionService) *FinanceService {
	return &FinanceService{TransactionService: txs, now: time.Now}
}

// ListWithBalance returns the transactions visible to requester and the
// balance of the ones they own.
func (s *FinanceService) ListWithBalance(ctx context.Context, requester string) ([]*models.Transaction, decimal.Decimal, error) {
	txs, err := s.List(ctx, requester, models.ListFilter{})
	if err != nil {
		return nil, decimal.Zero, err
	}
	return txs, finance.Balance(txs, requester), nil
}

// Stats summarizes the requester's own transactions for the current year.
func (s *FinanceService) Stats(ctx context.Context, requester string) (finance.Summary, error) {
	txs, err := s.ListOwned(ctx, requester)
	if err != nil {
		return finance.Summary{}, err
	}
	return finance.Summarize(txs, s.now()), nil
}
