// Package service provides business logic for accounts, owned resources,
// the activity feed, feedback tickets and the admin console, delegating
// persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/atinyakov/minihub/internal/access"
	"github.com/atinyakov/minihub/internal/models"
	"github.com/atinyakov/minihub/internal/validate"
)

// ResourceStore defines the persistence operations of one resource kind.
type ResourceStore[T any] interface {
	// ListVisible narrows candidates for the requester in the database.
	ListVisible(ctx context.Context, requester string, filter models.ListFilter) ([]*T, error)
	// ListOwned returns every item owned by ownerID.
	ListOwned(ctx context.Context, ownerID string) ([]*T, error)
	// Get returns an item regardless of visibility, or models.ErrNotFound.
	Get(ctx context.Context, id string) (*T, error)
	Insert(ctx context.Context, item *T) error
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id string) error
	// ReplaceShares makes userIDs the complete share-set of the item.
	ReplaceShares(ctx context.Context, id string, userIDs []string) error
}

// HandleResolver maps emails or usernames to user ids.
type HandleResolver interface {
	ResolveHandles(ctx context.Context, handles []string, exclude string) ([]string, error)
}

// Kind configures the generic resource service for one resource type.
// T is the stored item and P its create/update payload.
type Kind[T any, P any] struct {
	Category models.Category
	// Header returns the common header embedded in the item.
	Header func(*T) *models.Resource
	// Title returns the item title used as activity detail.
	Title func(*T) string
	// PublicGate is the extra condition a PUBLIC item must meet to be
	// readable by non-owners. Nil means always true.
	PublicGate func(*T) bool
	// Sharing extracts the visibility fields from the payload.
	Sharing func(*P) *models.Sharing
	// Validate checks the payload fields. create is true for new items.
	Validate func(p *P, create bool) error
	// Apply copies non-nil payload fields onto the item.
	Apply func(item *T, p *P)
	// Created, Updated and Deleted return the activity action and details.
	Created func(item *T) (string, string)
	Updated func(before, after *T) (string, string)
	Deleted func(item *T) (string, string)
}

// ResourceService implements list/get/create/update/delete for one kind,
// enforcing ownership and visibility and recording activity.
type ResourceService[T any, P any] struct {
	kind     Kind[T, P]
	store    ResourceStore[T]
	users    HandleResolver
	recorder *Recorder
	tx       TxRunner
	now      func() time.Time
}

// NewResourceService wires a ResourceService for the given kind.
func NewResourceService[T any, P any](
	kind Kind[T, P],
	store ResourceStore[T],
	users HandleResolver,
	recorder *Recorder,
	tx TxRunner,
) *ResourceService[T, P] {
	return &ResourceService[T, P]{
		kind:     kind,
		store:    store,
		users:    users,
		recorder: recorder,
		tx:       tx,
		now:      time.Now,
	}
}

// List returns every item the requester may read, newest first.
func (s *ResourceService[T, P]) List(ctx context.Context, requester string, filter models.ListFilter) ([]*T, error) {
	items, err := s.store.ListVisible(ctx, requester, filter)
	if err != nil {
		return nil, err
	}
	visible := make([]*T, 0, len(items))
	for _, item := range items {
		if s.canRead(item, requester) {
			visible = append(visible, item)
		}
	}
	return visible, nil
}

// ListOwned returns every item owned by the requester.
func (s *ResourceService[T, P]) ListOwned(ctx context.Context, requester string) ([]*T, error) {
	return s.store.ListOwned(ctx, requester)
}

// Get returns the item when the requester may read it and
// models.ErrNotFound otherwise.
func (s *ResourceService[T, P]) Get(ctx context.Context, id, requester string) (*T, error) {
	item, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canRead(item, requester) {
		return nil, models.ErrNotFound
	}
	return item, nil
}

// Create validates p and stores a new item owned by requester together
// with its share-set and an activity record, all in one transaction.
func (s *ResourceService[T, P]) Create(ctx context.Context, requester string, p *P) (*T, error) {
	if err := s.validate(p, true); err != nil {
		return nil, err
	}

	item := new(T)
	s.kind.Apply(item, p)
	h := s.kind.Header(item)
	h.ID = uuid.NewString()
	h.OwnerID = requester
	h.Visibility = models.Private
	sharing := s.kind.Sharing(p)
	if sharing.Visibility != nil {
		h.Visibility = *sharing.Visibility
	}
	h.CreatedAt = s.now()
	h.UpdatedAt = h.CreatedAt

	var created *T
	err := inTx(ctx, s.tx, func(ctx context.Context) error {
		if err := s.store.Insert(ctx, item); err != nil {
			return err
		}
		if h.Visibility == models.Specific && len(sharing.SharedWith) > 0 {
			if err := s.replaceShares(ctx, h.ID, requester, sharing.SharedWith); err != nil {
				return err
			}
		}
		action, details := s.kind.Created(item)
		if err := s.recorder.Record(ctx, requester, s.kind.Category, action, details); err != nil {
			return err
		}
		var err error
		created, err = s.store.Get(ctx, h.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update applies the non-nil fields of p. Only the owner may update; any
// other requester gets access.ErrNotAccessible, as does a missing id.
func (s *ResourceService[T, P]) Update(ctx context.Context, id, requester string, p *P) (*T, error) {
	if err := s.validate(p, false); err != nil {
		return nil, err
	}

	var updated *T
	err := inTx(ctx, s.tx, func(ctx context.Context) error {
		item, err := s.owned(ctx, id, requester)
		if err != nil {
			return err
		}
		before := *item
		wasSpecific := s.kind.Header(&before).Visibility == models.Specific

		s.kind.Apply(item, p)
		h := s.kind.Header(item)
		sharing := s.kind.Sharing(p)
		if sharing.Visibility != nil {
			h.Visibility = *sharing.Visibility
		}
		h.UpdatedAt = s.now()

		if err := s.store.Update(ctx, item); err != nil {
			return err
		}
		switch {
		case sharing.Visibility != nil && *sharing.Visibility == models.Specific:
			if err := s.replaceShares(ctx, id, requester, sharing.SharedWith); err != nil {
				return err
			}
		case wasSpecific && h.Visibility != models.Specific:
			if err := s.store.ReplaceShares(ctx, id, nil); err != nil {
				return err
			}
		}

		action, details := s.kind.Updated(&before, item)
		if err := s.recorder.Record(ctx, requester, s.kind.Category, action, details); err != nil {
			return err
		}
		updated, err = s.store.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the item and its share-set. Only the owner may delete.
func (s *ResourceService[T, P]) Delete(ctx context.Context, id, requester string) error {
	return inTx(ctx, s.tx, func(ctx context.Context) error {
		item, err := s.owned(ctx, id, requester)
		if err != nil {
			return err
		}
		if err := s.store.Delete(ctx, id); err != nil {
			return err
		}
		action, details := s.kind.Deleted(item)
		return s.recorder.Record(ctx, requester, s.kind.Category, action, details)
	})
}

func (s *ResourceService[T, P]) owned(ctx context.Context, id, requester string) (*T, error) {
	item, err := s.store.Get(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, access.ErrNotAccessible
	}
	if err != nil {
		return nil, err
	}
	if !access.CanWrite(s.kind.Header(item), requester) {
		return nil, access.ErrNotAccessible
	}
	return item, nil
}

func (s *ResourceService[T, P]) replaceShares(ctx context.Context, id, owner string, handles []string) error {
	ids, err := s.users.ResolveHandles(ctx, handles, owner)
	if err != nil {
		return err
	}
	return s.store.ReplaceShares(ctx, id, ids)
}

func (s *ResourceService[T, P]) canRead(item *T, requester string) bool {
	gate := true
	if s.kind.PublicGate != nil {
		gate = s.kind.PublicGate(item)
	}
	return access.CanRead(s.kind.Header(item), requester, gate)
}

func (s *ResourceService[T, P]) validate(p *P, create bool) error {
	var errs validate.MultiError
	sharing := s.kind.Sharing(p)
	if sharing.Visibility != nil && !sharing.Visibility.Valid() {
		errs.Add(validate.OneOf("privacy", string(*sharing.Visibility),
			string(models.Private), string(models.Public), string(models.Specific)))
	}
	if err := s.kind.Validate(p, create); err != nil {
		var multi *validate.MultiError
		if errors.As(err, &multi) {
			errs.Errors = append(errs.Errors, multi.Errors...)
		} else {
			errs.Add(err)
		}
	}
	return errs.Err()
}
