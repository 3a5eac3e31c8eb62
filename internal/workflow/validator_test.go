package workflow

import (
	"testing"

	"orgdesk/internal/models"
)

var allStatuses = []models.ApprovalStatus{
	models.ApprovalStatusPending,
	models.ApprovalStatusApproved,
	models.ApprovalStatusRejected,
	models.ApprovalStatusCancelled,
}

var allActions = []Action{ActionApprove, ActionReject, ActionRequestRevision, ActionReturn}

func TestCanTransitionTable(t *testing.T) {
	for _, status := range allStatuses {
		for _, action := range allActions {
			want := false
			if status == models.ApprovalStatusPending && action != ActionReturn {
				want = true
			}
			if status != models.ApprovalStatusPending && action == ActionReturn {
				want = true
			}
			if got := CanTransition(status, action); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", status, action, got, want)
			}
		}
	}
}

func TestCanTransitionUnknownAction(t *testing.T) {
	if CanTransition(models.ApprovalStatusPending, Action("destroy")) {
		t.Error("unknown action must never be legal")
	}
}

func TestActionTargets(t *testing.T) {
	cases := map[Action]models.ApprovalStatus{
		ActionApprove:         models.ApprovalStatusApproved,
		ActionReject:          models.ApprovalStatusRejected,
		ActionRequestRevision: models.ApprovalStatusCancelled,
		ActionReturn:          models.ApprovalStatusPending,
	}
	for action, want := range cases {
		if got := action.Target(); got != want {
			t.Errorf("%s.Target() = %s, want %s", action, got, want)
		}
	}
}

func TestParseAction(t *testing.T) {
	for _, action := range allActions {
		got, err := ParseAction(string(action))
		if err != nil || got != action {
			t.Errorf("ParseAction(%q) = %v, %v", action, got, err)
		}
	}
	if _, err := ParseAction("delete"); err == nil {
		t.Error("expected error for unknown action")
	}
}

func TestCanBulkTransitionEmptySelection(t *testing.T) {
	for _, action := range allActions {
		allowed, reason := CanBulkTransition(nil, action)
		if allowed {
			t.Errorf("empty selection must be ineligible for %s", action)
		}
		if reason == "" {
			t.Errorf("expected a reason for %s", action)
		}
	}
}

func TestCanBulkTransitionAllPending(t *testing.T) {
	statuses := []models.ApprovalStatus{models.ApprovalStatusPending, models.ApprovalStatusPending}

	for _, action := range []Action{ActionApprove, ActionReject, ActionRequestRevision} {
		if allowed, reason := CanBulkTransition(statuses, action); !allowed {
			t.Errorf("all-pending selection should allow %s, got reason %q", action, reason)
		}
	}
	if allowed, _ := CanBulkTransition(statuses, ActionReturn); allowed {
		t.Error("all-pending selection must not allow return")
	}
}

func TestCanBulkTransitionAllTerminal(t *testing.T) {
	statuses := []models.ApprovalStatus{models.ApprovalStatusApproved, models.ApprovalStatusRejected}

	if allowed, reason := CanBulkTransition(statuses, ActionReturn); !allowed {
		t.Errorf("all-terminal selection should allow return, got reason %q", reason)
	}
	for _, action := range []Action{ActionApprove, ActionReject, ActionRequestRevision} {
		if allowed, _ := CanBulkTransition(statuses, action); allowed {
			t.Errorf("all-terminal selection must not allow %s", action)
		}
	}
}

func TestCanBulkTransitionMixedSelection(t *testing.T) {
	statuses := []models.ApprovalStatus{models.ApprovalStatusPending, models.ApprovalStatusApproved}

	for _, action := range allActions {
		if allowed, _ := CanBulkTransition(statuses, action); allowed {
			t.Errorf("mixed selection must be ineligible for %s", action)
		}
	}
}

func TestEligibilityTriStateExclusive(t *testing.T) {
	// For every non-empty combination of up to three statuses, exactly one of
	// the three flags must hold.
	for _, a := range allStatuses {
		for _, b := range allStatuses {
			for _, c := range allStatuses {
				e := ComputeEligibility([]models.ApprovalStatus{a, b, c})
				held := 0
				for _, f := range []bool{e.AllPending, e.AllNotPending, e.IsMixed} {
					if f {
						held++
					}
				}
				if held != 1 {
					t.Fatalf("statuses %v %v %v: %d flags held, want exactly 1 (%+v)", a, b, c, held, e)
				}
			}
		}
	}
}

func TestEligibilityEmptySelection(t *testing.T) {
	e := ComputeEligibility(nil)
	if !e.AllPending || !e.AllNotPending || e.IsMixed {
		t.Errorf("empty selection should be vacuously all-pending and all-not-pending, got %+v", e)
	}
}
