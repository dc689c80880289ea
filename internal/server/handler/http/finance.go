package http

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/atinyakov/minihub/internal/finance"
	"github.com/atinyakov/minihub/internal/middleware"
	"github.com/atinyakov/minihub/internal/models"
)

// FinanceService provides the balance views over transactions.
type FinanceService interface {
	ListWithBalance(ctx context.Context, requester string) ([]*models.Transaction, decimal.Decimal, error)
	Stats(ctx context.Context, requester string) (finance.Summary, error)
}

// FinanceHandler serves the transaction list with balance and the yearly
// statistics. Single-item endpoints are served by a ResourceHandler.
type FinanceHandler struct {
	*ResourceHandler[models.Transaction, models.TransactionInput]
	Finance FinanceService
}

// List handles GET /finance.
func (h *FinanceHandler) List(w http.ResponseWriter, r *http.Request) {
	txs, balance, err := h.Finance.ListWithBalance(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	if txs == nil {
		txs = []*models.Transaction{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"transactions": txs, "balance": balance})
}

// Stats handles GET /finance/stats.
func (h *FinanceHandler) Stats(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Finance.Stats(r.Context(), middleware.GetUserIDFromContext(r.Context()))
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
