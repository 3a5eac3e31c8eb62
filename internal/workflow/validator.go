// Package workflow implements the approval transition workflow: the pure
// transition rules, the bulk-selection eligibility checks, and the executor
// that applies validated transitions to persisted approval records.
package workflow

import (
	"orgdesk/internal/models"
)

// Action is a transition request against an approval record.
type Action string

const (
	// ActionApprove moves a PENDING record to APPROVED.
	ActionApprove Action = "approve"
	// ActionReject moves a PENDING record to REJECTED. Requires a note.
	ActionReject Action = "reject"
	// ActionRequestRevision moves a PENDING record to CANCELLED. Requires a note.
	ActionRequestRevision Action = "requestRevision"
	// ActionReturn moves any terminal record back to PENDING.
	ActionReturn Action = "return"
)

// ParseAction validates a wire-format action value.
func ParseAction(raw string) (Action, error) {
	switch Action(raw) {
	case ActionApprove, ActionReject, ActionRequestRevision, ActionReturn:
		return Action(raw), nil
	}
	return "", models.NewValidationError("unknown action: " + raw)
}

// Target returns the status the action leads to.
func (a Action) Target() models.ApprovalStatus {
	switch a {
	case ActionApprove:
		return models.ApprovalStatusApproved
	case ActionReject:
		return models.ApprovalStatusRejected
	case ActionRequestRevision:
		return models.ApprovalStatusCancelled
	case ActionReturn:
		return models.ApprovalStatusPending
	}
	return ""
}

// RequiresNote reports whether the action must carry a non-empty note.
func (a Action) RequiresNote() bool {
	return a == ActionReject || a == ActionRequestRevision
}

// CanTransition reports whether action is legal from the given status.
// Forward actions are legal only from PENDING; return is legal only from a
// terminal status.
func CanTransition(status models.ApprovalStatus, action Action) bool {
	switch action {
	case ActionApprove, ActionReject, ActionRequestRevision:
		return status == models.ApprovalStatusPending
	case ActionReturn:
		return status.IsTerminal()
	}
	return false
}

// CanBulkTransition reports whether a bulk action is legal over the given
// statuses. The whole selection must be uniformly eligible: forward actions
// need every record PENDING, return needs every record non-PENDING. A mixed
// or empty selection is never eligible.
func CanBulkTransition(statuses []models.ApprovalStatus, action Action) (bool, string) {
	if len(statuses) == 0 {
		return false, "selection is empty"
	}

	e := ComputeEligibility(statuses)
	switch action {
	case ActionApprove, ActionReject, ActionRequestRevision:
		if !e.AllPending {
			return false, "every selected record must be pending"
		}
	case ActionReturn:
		if !e.AllNotPending {
			return false, "every selected record must be past pending"
		}
	default:
		return false, "unknown action: " + string(action)
	}
	return true, ""
}
