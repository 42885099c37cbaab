package visits

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when no datastore is configured.
var ErrUnavailable = errors.New("visit counter is unavailable")

const counterName = "site"

// Store is the persistence the counter runs against.
type Store interface {
	GetCount(ctx context.Context, name string) (int64, error)
	Increment(ctx context.Context, name string) (int64, error)
}

// Service exposes the site visit counter.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Count reads the current visit total.
func (s *Service) Count(ctx context.Context) (int64, error) {
	if s.store == nil {
		return 0, ErrUnavailable
	}
	return s.store.GetCount(ctx, counterName)
}

// RecordVisit increments the total and returns the new value.
func (s *Service) RecordVisit(ctx context.Context) (int64, error) {
	if s.store == nil {
		return 0, ErrUnavailable
	}
	return s.store.Increment(ctx, counterName)
}
