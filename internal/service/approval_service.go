// Package service contains the business logic layer of the application.
package service

import (
	"context"
	"errors"
	"log/slog"

	"orgdesk/internal/cache"
	"orgdesk/internal/featureflags"
	"orgdesk/internal/middleware"
	"orgdesk/internal/models"
	"orgdesk/internal/notifications"
	"orgdesk/internal/observability"
	"orgdesk/internal/repository"
	"orgdesk/internal/workflow"
)

// bulkTransitionsFlag gates the bulk endpoints so they can be rolled out
// gradually per reviewer.
const bulkTransitionsFlag = "bulk_transitions"

// DashboardStats summarizes approval records by status for the console landing page.
type DashboardStats struct {
	Pending      int64                               `json:"pending"`
	Approved     int64                               `json:"approved"`
	Rejected     int64                               `json:"rejected"`
	Cancelled    int64                               `json:"cancelled"`
	Total        int64                               `json:"total"`
	ByEntityType map[models.ApprovalEntityType]int64 `json:"by_entity_type"`
}

// EligibilityReport pairs the current selection snapshot with its tri-state
// eligibility, so the console can refresh affordances in one round trip.
type EligibilityReport struct {
	Records     []workflow.StatusRecord `json:"records"`
	Eligibility workflow.Eligibility    `json:"eligibility"`
}

// ApprovalService coordinates the approval workflow: it authorizes reviewers,
// validates selections, drives the executor, and publishes review events.
type ApprovalService struct {
	repo     repository.ApprovalRepository
	executor *workflow.Executor
	notifier *notifications.Notifier
	flags    *featureflags.Manager
}

// NewApprovalService returns a new ApprovalService.
func NewApprovalService(repo repository.ApprovalRepository, notifier *notifications.Notifier, flags *featureflags.Manager) *ApprovalService {
	return &ApprovalService{
		repo:     repo,
		executor: workflow.NewExecutor(repo),
		notifier: notifier,
		flags:    flags,
	}
}

// Get returns one approval with its parent entity preloaded.
func (s *ApprovalService) Get(ctx context.Context, id uint) (*models.Approval, error) {
	return s.repo.GetByIDWithParent(ctx, id)
}

// List returns approvals matching the filter plus the unpaged total.
func (s *ApprovalService) List(ctx context.Context, filter repository.ApprovalFilter) ([]models.Approval, int64, error) {
	return s.repo.List(ctx, filter)
}

// Snapshot returns the current persisted status of each requested approval,
// in request order. Clients refresh their selection through this before
// enabling bulk actions.
func (s *ApprovalService) Snapshot(ctx context.Context, ids []uint) ([]workflow.StatusRecord, error) {
	approvals, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	records := make([]workflow.StatusRecord, 0, len(approvals))
	for _, a := range approvals {
		records = append(records, workflow.StatusRecord{ID: a.ID, Status: a.Status})
	}
	return records, nil
}

// DescribeEligibility reports the tri-state eligibility of a selection against
// current persisted state.
func (s *ApprovalService) DescribeEligibility(ctx context.Context, ids []uint) (*EligibilityReport, error) {
	records, err := s.Snapshot(ctx, ids)
	if err != nil {
		return nil, err
	}
	statuses := make([]models.ApprovalStatus, 0, len(records))
	for _, r := range records {
		statuses = append(statuses, r.Status)
	}
	report := &EligibilityReport{
		Records:     records,
		Eligibility: workflow.ComputeEligibility(statuses),
	}
	if len(records) == 0 {
		// Vacuous All* flags are useless to the console; an empty selection
		// affords nothing.
		report.Eligibility = workflow.Eligibility{}
	}
	return report, nil
}

// OpenForEntity opens a PENDING approval for a newly submitted entity.
func (s *ApprovalService) OpenForEntity(ctx context.Context, entityType models.ApprovalEntityType, parentID, requesterID uint) (*models.Approval, error) {
	approval, err := models.NewApproval(entityType, parentID, requesterID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, approval); err != nil {
		return nil, err
	}
	return approval, nil
}

// RequestSingle applies one transition on behalf of a reviewer.
func (s *ApprovalService) RequestSingle(ctx context.Context, reviewer *models.User, id uint, action workflow.Action, note string) (*models.Approval, error) {
	if !reviewer.IsAdmin() {
		return nil, models.NewUnauthorizedError("only admins can act on approvals")
	}

	updated, err := s.executor.Apply(ctx, id, action, note)
	if err != nil {
		middleware.ApprovalTransitions.WithLabelValues(string(action), outcomeLabel(err)).Inc()
		return nil, err
	}

	middleware.ApprovalTransitions.WithLabelValues(string(action), "success").Inc()
	s.publishReviewed(ctx, reviewer.ID, action, updated)
	return updated, nil
}

// RequestBulk applies the action independently to every record in the
// selection. The selection must be uniformly eligible against the statuses the
// caller holds; otherwise nothing is written and an INELIGIBLE_SELECTION
// error is returned. Individual records may still fail (stale state, not
// found) without affecting the rest.
func (s *ApprovalService) RequestBulk(ctx context.Context, reviewer *models.User, records []workflow.StatusRecord, action workflow.Action, note string) ([]workflow.BulkResult, error) {
	if !reviewer.IsAdmin() {
		return nil, models.NewUnauthorizedError("only admins can act on approvals")
	}
	if s.flags != nil && !s.flags.Enabled(bulkTransitionsFlag, reviewer.ID) {
		return nil, models.NewValidationError("bulk transitions are not enabled for this account")
	}

	statuses := make([]models.ApprovalStatus, 0, len(records))
	for _, r := range records {
		statuses = append(statuses, r.Status)
	}
	if ok, reason := workflow.CanBulkTransition(statuses, action); !ok {
		middleware.ApprovalTransitions.WithLabelValues(string(action), "ineligible").Inc()
		return nil, models.NewIneligibleSelectionError(reason)
	}

	middleware.BulkSelectionSize.Observe(float64(len(records)))
	results := s.executor.ApplyBulk(ctx, records, action, note)

	for _, res := range results {
		if res.Err != nil {
			middleware.ApprovalTransitions.WithLabelValues(string(action), outcomeLabel(res.Err)).Inc()
			continue
		}
		middleware.ApprovalTransitions.WithLabelValues(string(action), "success").Inc()
		s.publishReviewed(ctx, reviewer.ID, action, res.Approval)
	}
	return results, nil
}

// Stats returns approval counts by status, cached briefly.
func (s *ApprovalService) Stats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	err := cache.Aside(ctx, cache.DashboardStatsKey, &stats, cache.DashboardTTL, func() error {
		counts, err := s.repo.CountByStatus(ctx)
		if err != nil {
			return err
		}
		byType, err := s.repo.CountByEntityType(ctx)
		if err != nil {
			return err
		}
		stats = DashboardStats{
			Pending:      counts[models.ApprovalStatusPending],
			Approved:     counts[models.ApprovalStatusApproved],
			Rejected:     counts[models.ApprovalStatusRejected],
			Cancelled:    counts[models.ApprovalStatusCancelled],
			ByEntityType: byType,
		}
		stats.Total = stats.Pending + stats.Approved + stats.Rejected + stats.Cancelled
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *ApprovalService) publishReviewed(ctx context.Context, reviewerID uint, action workflow.Action, approval *models.Approval) {
	if s.notifier == nil || approval == nil {
		return
	}
	event := notifications.ApprovalEvent{
		ApprovalID: approval.ID,
		EntityType: approval.EntityType,
		Action:     string(action),
		Status:     approval.Status,
		Note:       approval.Note,
		ReviewerID: reviewerID,
	}
	if err := s.notifier.PublishApprovalReviewed(ctx, approval.RequesterID, event); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to publish approval event",
			slog.Uint64("approval_id", uint64(approval.ID)),
			slog.String("error", err.Error()),
		)
		return
	}
	observability.NotificationsPublished.WithLabelValues("approval.reviewed").Inc()
}

// outcomeLabel maps an error to the metric outcome label.
func outcomeLabel(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case models.CodeStaleState:
			return "stale"
		case models.CodeIllegalTransition:
			return "illegal"
		case models.CodeNotFound:
			return "not_found"
		case models.CodeValidation:
			return "invalid"
		}
	}
	return "error"
}
