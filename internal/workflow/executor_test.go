package workflow

import (
	"context"
	"errors"
	"testing"

	"orgdesk/internal/models"
)

// memStore is an in-memory Store for executor tests. Mutate mimics the real
// repository: load current state, run fn, keep the mutation only on nil error.
type memStore struct {
	records map[uint]*models.Approval
	writes  int
}

func newMemStore(records ...*models.Approval) *memStore {
	s := &memStore{records: make(map[uint]*models.Approval)}
	for _, r := range records {
		s.records[r.ID] = r
	}
	return s
}

func (s *memStore) Mutate(_ context.Context, id uint, fn func(a *models.Approval) error) (*models.Approval, error) {
	current, ok := s.records[id]
	if !ok {
		return nil, models.NewNotFoundError("Approval", id)
	}
	copied := *current
	if err := fn(&copied); err != nil {
		return nil, err
	}
	s.records[id] = &copied
	s.writes++
	return &copied, nil
}

func pending(id uint) *models.Approval {
	return &models.Approval{
		ID:          id,
		EntityType:  models.EntityTypeDocument,
		DocumentID:  &id,
		Status:      models.ApprovalStatusPending,
		RequesterID: 1,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *models.AppError
	if !errors.As(err, &appErr) || appErr.Code != code {
		t.Fatalf("expected %s error, got %#v", code, err)
	}
}

func TestExecutorApplyApprove(t *testing.T) {
	store := newMemStore(pending(1))
	exec := NewExecutor(store)

	updated, err := exec.Apply(context.Background(), 1, ActionApprove, "")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if updated.Status != models.ApprovalStatusApproved {
		t.Errorf("expected APPROVED, got %s", updated.Status)
	}
}

func TestExecutorRejectRequiresNote(t *testing.T) {
	store := newMemStore(pending(1))
	exec := NewExecutor(store)

	for _, note := range []string{"", "   ", "\t\n"} {
		_, err := exec.Apply(context.Background(), 1, ActionReject, note)
		assertCode(t, err, models.CodeValidation)
	}
	if store.writes != 0 {
		t.Errorf("validation failure must not reach storage, got %d writes", store.writes)
	}

	updated, err := exec.Apply(context.Background(), 1, ActionReject, " needs budget detail ")
	if err != nil {
		t.Fatalf("Apply with note: %v", err)
	}
	if updated.Status != models.ApprovalStatusRejected {
		t.Errorf("expected REJECTED, got %s", updated.Status)
	}
	if updated.Note != "needs budget detail" {
		t.Errorf("expected trimmed note, got %q", updated.Note)
	}
}

func TestExecutorIllegalSecondTransition(t *testing.T) {
	store := newMemStore(pending(1))
	exec := NewExecutor(store)

	if _, err := exec.Apply(context.Background(), 1, ActionApprove, ""); err != nil {
		t.Fatalf("first Apply: %v", err)
	}
	_, err := exec.Apply(context.Background(), 1, ActionApprove, "")
	assertCode(t, err, models.CodeIllegalTransition)
}

func TestExecutorReturnRoundTrip(t *testing.T) {
	store := newMemStore(pending(1))
	exec := NewExecutor(store)
	ctx := context.Background()

	if _, err := exec.Apply(ctx, 1, ActionApprove, ""); err != nil {
		t.Fatalf("approve: %v", err)
	}
	returned, err := exec.Apply(ctx, 1, ActionReturn, "")
	if err != nil {
		t.Fatalf("return: %v", err)
	}
	if returned.Status != models.ApprovalStatusPending {
		t.Errorf("expected PENDING after return, got %s", returned.Status)
	}

	// The return edge is fully reversible: approving again succeeds.
	again, err := exec.Apply(ctx, 1, ActionApprove, "")
	if err != nil {
		t.Fatalf("re-approve: %v", err)
	}
	if again.Status != models.ApprovalStatusApproved {
		t.Errorf("expected APPROVED, got %s", again.Status)
	}
}

func TestExecutorApplyNotFound(t *testing.T) {
	exec := NewExecutor(newMemStore())
	_, err := exec.Apply(context.Background(), 42, ActionApprove, "")
	assertCode(t, err, models.CodeNotFound)
}

func TestExecutorApplyBulkAllPending(t *testing.T) {
	store := newMemStore(pending(1), pending(2))
	exec := NewExecutor(store)

	records := []StatusRecord{
		{ID: 1, Status: models.ApprovalStatusPending},
		{ID: 2, Status: models.ApprovalStatusPending},
	}
	results := exec.ApplyBulk(context.Background(), records, ActionApprove, "")
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.ID != records[i].ID {
			t.Errorf("result %d: expected id %d, got %d (input order must be preserved)", i, records[i].ID, r.ID)
		}
		if r.Err != nil {
			t.Errorf("result %d: unexpected error %v", i, r.Err)
		}
		if r.Approval.Status != models.ApprovalStatusApproved {
			t.Errorf("result %d: expected APPROVED, got %s", i, r.Approval.Status)
		}
	}
}

func TestExecutorApplyBulkStaleRecord(t *testing.T) {
	store := newMemStore(pending(1), pending(2))
	exec := NewExecutor(store)
	ctx := context.Background()

	// Another actor moves record 2 after the caller took its snapshot.
	if _, err := exec.Apply(ctx, 2, ActionReject, "duplicate submission"); err != nil {
		t.Fatalf("concurrent reject: %v", err)
	}

	records := []StatusRecord{
		{ID: 1, Status: models.ApprovalStatusPending},
		{ID: 2, Status: models.ApprovalStatusPending},
	}
	results := exec.ApplyBulk(ctx, records, ActionApprove, "")

	if results[0].Err != nil {
		t.Errorf("record 1 should succeed, got %v", results[0].Err)
	}
	assertCode(t, results[1].Err, models.CodeStaleState)

	// Partial success: record 1 is written, record 2 untouched.
	if store.records[1].Status != models.ApprovalStatusApproved {
		t.Errorf("record 1 should be APPROVED, got %s", store.records[1].Status)
	}
	if store.records[2].Status != models.ApprovalStatusRejected {
		t.Errorf("record 2 should remain REJECTED, got %s", store.records[2].Status)
	}
}

func TestExecutorApplyBulkReturn(t *testing.T) {
	a1 := pending(1)
	a1.Status = models.ApprovalStatusApproved
	a2 := pending(2)
	a2.Status = models.ApprovalStatusRejected
	store := newMemStore(a1, a2)
	exec := NewExecutor(store)

	records := []StatusRecord{
		{ID: 1, Status: models.ApprovalStatusApproved},
		{ID: 2, Status: models.ApprovalStatusRejected},
	}
	results := exec.ApplyBulk(context.Background(), records, ActionReturn, "")
	for i, r := range results {
		if r.Err != nil {
			t.Fatalf("result %d: %v", i, r.Err)
		}
		if r.Approval.Status != models.ApprovalStatusPending {
			t.Errorf("result %d: expected PENDING, got %s", i, r.Approval.Status)
		}
	}
}

func TestExecutorApplyBulkMissingNote(t *testing.T) {
	store := newMemStore(pending(1), pending(2))
	exec := NewExecutor(store)

	records := []StatusRecord{
		{ID: 1, Status: models.ApprovalStatusPending},
		{ID: 2, Status: models.ApprovalStatusPending},
	}
	results := exec.ApplyBulk(context.Background(), records, ActionRequestRevision, "  ")
	for _, r := range results {
		assertCode(t, r.Err, models.CodeValidation)
	}
	if store.writes != 0 {
		t.Errorf("missing note must fail before storage, got %d writes", store.writes)
	}
}
