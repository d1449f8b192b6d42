package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"expenses/internal/core"
	"expenses/internal/ledger"
)

// Publisher announces ledger changes. The AMQP client implements it.
type Publisher interface {
	PublishRecordCreated(ctx context.Context, r core.Record) error
	PublishRecordDeleted(ctx context.Context, r core.Record) error
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ExpenseService orchestrates expense operations across the store and the
// optional event publisher.
type ExpenseService struct {
	store     ledger.Store
	publisher Publisher
}

// NewExpenseService wires a store with an optional publisher (nil disables
// events).
func NewExpenseService(store ledger.Store, publisher Publisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
	}
}

// AddExpense saves an entry and publishes a created event.
func (s *ExpenseService) AddExpense(ctx context.Context, e core.Entry) (core.Record, error) {
	// Validation errors go back untouched so callers can errors.As them.
	if err := e.Validate(); err != nil {
		return core.Record{}, err
	}

	rec, err := s.store.Insert(ctx, e)
	if err != nil {
		return core.Record{}, fmt.Errorf("save expense: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishRecordCreated(ctx, rec); err != nil {
			// The record is stored; the event is best effort.
			slog.ErrorContext(ctx, "Failed to publish created event", "id", rec.ID, "error", err)
		}
	}
	return rec, nil
}

// DeleteLast removes the most recently created record. core.ErrNotFound is
// returned unwrapped when there is nothing to delete.
func (s *ExpenseService) DeleteLast(ctx context.Context) (core.Record, error) {
	rec, err := s.store.DeleteLast(ctx)
	if errors.Is(err, core.ErrNotFound) {
		return core.Record{}, core.ErrNotFound
	}
	if err != nil {
		return core.Record{}, fmt.Errorf("delete last expense: %w", err)
	}

	if s.publisher != nil {
		if err := s.publisher.PublishRecordDeleted(ctx, rec); err != nil {
			slog.ErrorContext(ctx, "Failed to publish deleted event", "id", rec.ID, "error", err)
		}
	}
	return rec, nil
}

// Records returns every record, newest first.
func (s *ExpenseService) Records(ctx context.Context) ([]core.Record, error) {
	records, err := s.store.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch expenses: %w", err)
	}
	return records, nil
}

// Dashboard reads the store once and derives every view for month.
func (s *ExpenseService) Dashboard(ctx context.Context, month core.Month) (core.Dashboard, error) {
	if err := month.Validate(); err != nil {
		return core.Dashboard{}, err
	}
	records, err := s.Records(ctx)
	if err != nil {
		return core.Dashboard{}, err
	}
	return core.BuildDashboard(records, month), nil
}

// Comparison returns the latest month-over-month comparison. ok is false
// when the data spans fewer than two months.
func (s *ExpenseService) Comparison(ctx context.Context) (c core.Comparison, ok bool, err error) {
	records, err := s.Records(ctx)
	if err != nil {
		return core.Comparison{}, false, err
	}
	c, ok = core.LatestComparison(records)
	return c, ok, nil
}

// Ping checks the store when it supports health checks.
func (s *ExpenseService) Ping(ctx context.Context) error {
	if p, ok := s.store.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases the store and the publisher.
func (s *ExpenseService) Close() error {
	var errs []error

	if c, ok := s.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close expense service: %w", errors.Join(errs...))
	}
	return nil
}
