package workflow

import (
	"context"
	"strings"

	"orgdesk/internal/models"
)

// Store is the persistence boundary the executor writes through. Mutate must
// load the record's current persisted state under a row lock, run fn against
// it, and persist the mutation only when fn returns nil. Any error from fn
// aborts the write and is returned unchanged.
type Store interface {
	Mutate(ctx context.Context, id uint, fn func(a *models.Approval) error) (*models.Approval, error)
}

// Executor applies validated transitions to approval records. Every write
// re-validates against the record's current persisted status, so a transition
// that became illegal after the caller last looked fails instead of silently
// overwriting.
type Executor struct {
	store Store
}

// NewExecutor returns an executor writing through the given store.
func NewExecutor(store Store) *Executor {
	return &Executor{store: store}
}

// BulkResult is the per-record outcome of a bulk transition.
type BulkResult struct {
	ID       uint
	Approval *models.Approval
	Err      error
}

// Apply performs one transition on one approval record. It fails with a
// VALIDATION_ERROR before touching storage when the action requires a note
// and none was given, and with ILLEGAL_TRANSITION when the record's current
// status does not admit the action.
func (e *Executor) Apply(ctx context.Context, id uint, action Action, note string) (*models.Approval, error) {
	note = strings.TrimSpace(note)
	if action.RequiresNote() && note == "" {
		return nil, models.NewValidationError("a note is required for " + string(action))
	}
	return e.apply(ctx, id, action, note, nil)
}

// ApplyBulk performs the action independently on every selected record,
// returning one result per record in input order. Each record carries the
// status the caller last observed; a record whose persisted status has moved
// on since then fails with STALE_STATE. No shared transaction spans the
// batch, so partial success is an expected outcome.
func (e *Executor) ApplyBulk(ctx context.Context, records []StatusRecord, action Action, note string) []BulkResult {
	note = strings.TrimSpace(note)
	results := make([]BulkResult, 0, len(records))

	if action.RequiresNote() && note == "" {
		err := models.NewValidationError("a note is required for " + string(action))
		for _, r := range records {
			results = append(results, BulkResult{ID: r.ID, Err: err})
		}
		return results
	}

	for _, r := range records {
		expected := r.Status
		updated, err := e.apply(ctx, r.ID, action, note, &expected)
		results = append(results, BulkResult{ID: r.ID, Approval: updated, Err: err})
	}
	return results
}

func (e *Executor) apply(ctx context.Context, id uint, action Action, note string, expected *models.ApprovalStatus) (*models.Approval, error) {
	return e.store.Mutate(ctx, id, func(a *models.Approval) error {
		if expected != nil && a.Status != *expected {
			return models.NewStaleStateError(id, *expected, a.Status)
		}
		if !CanTransition(a.Status, action) {
			return models.NewIllegalTransitionError(string(action), a.Status)
		}
		a.Status = action.Target()
		if note != "" {
			a.Note = note
		}
		return nil
	})
}
