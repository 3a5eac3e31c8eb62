package service

import (
	"context"
	"errors"
	"testing"

	"orgdesk/internal/featureflags"
	"orgdesk/internal/models"
	"orgdesk/internal/repository"
	"orgdesk/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// approvalRepoStub keeps approvals in a map and implements the repository
// interface, including the row-locked Mutate contract.
type approvalRepoStub struct {
	records map[uint]*models.Approval
	writes  int
}

func newApprovalRepoStub(approvals ...*models.Approval) *approvalRepoStub {
	s := &approvalRepoStub{records: make(map[uint]*models.Approval)}
	for _, a := range approvals {
		copied := *a
		s.records[a.ID] = &copied
	}
	return s
}

func (s *approvalRepoStub) GetByID(_ context.Context, id uint) (*models.Approval, error) {
	a, ok := s.records[id]
	if !ok {
		return nil, models.NewNotFoundError("Approval", id)
	}
	copied := *a
	return &copied, nil
}

func (s *approvalRepoStub) GetByIDWithParent(ctx context.Context, id uint) (*models.Approval, error) {
	return s.GetByID(ctx, id)
}

func (s *approvalRepoStub) GetByIDs(_ context.Context, ids []uint) ([]models.Approval, error) {
	out := make([]models.Approval, 0, len(ids))
	for _, id := range ids {
		if a, ok := s.records[id]; ok {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *approvalRepoStub) List(_ context.Context, _ repository.ApprovalFilter) ([]models.Approval, int64, error) {
	out := make([]models.Approval, 0, len(s.records))
	for _, a := range s.records {
		out = append(out, *a)
	}
	return out, int64(len(out)), nil
}

func (s *approvalRepoStub) Create(_ context.Context, approval *models.Approval) error {
	approval.ID = uint(len(s.records) + 1)
	copied := *approval
	s.records[approval.ID] = &copied
	return nil
}

func (s *approvalRepoStub) Mutate(_ context.Context, id uint, fn func(a *models.Approval) error) (*models.Approval, error) {
	a, ok := s.records[id]
	if !ok {
		return nil, models.NewNotFoundError("Approval", id)
	}
	working := *a
	if err := fn(&working); err != nil {
		return nil, err
	}
	s.records[id] = &working
	s.writes++
	copied := working
	return &copied, nil
}

func (s *approvalRepoStub) CountByStatus(_ context.Context) (map[models.ApprovalStatus]int64, error) {
	counts := make(map[models.ApprovalStatus]int64)
	for _, a := range s.records {
		counts[a.Status]++
	}
	return counts, nil
}

func (s *approvalRepoStub) CountByEntityType(_ context.Context) (map[models.ApprovalEntityType]int64, error) {
	counts := make(map[models.ApprovalEntityType]int64)
	for _, a := range s.records {
		counts[a.EntityType]++
	}
	return counts, nil
}

func pendingApproval(id uint) *models.Approval {
	parentID := id
	return &models.Approval{
		ID:          id,
		EntityType:  models.EntityTypeDocument,
		DocumentID:  &parentID,
		Status:      models.ApprovalStatusPending,
		RequesterID: 1,
	}
}

func admin() *models.User {
	return &models.User{ID: 9, Username: "reviewer", Role: models.UserRoleAdmin}
}

func member() *models.User {
	return &models.User{ID: 2, Username: "member", Role: models.UserRoleMember}
}

func newTestService(repo repository.ApprovalRepository) *ApprovalService {
	return NewApprovalService(repo, nil, featureflags.NewManager("bulk_transitions=on"))
}

func TestRequestSingle_Approve(t *testing.T) {
	repo := newApprovalRepoStub(pendingApproval(1))
	svc := newTestService(repo)

	updated, err := svc.RequestSingle(context.Background(), admin(), 1, workflow.ActionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusApproved, updated.Status)
}

func TestRequestSingle_MemberForbidden(t *testing.T) {
	repo := newApprovalRepoStub(pendingApproval(1))
	svc := newTestService(repo)

	_, err := svc.RequestSingle(context.Background(), member(), 1, workflow.ActionApprove, "")
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeUnauthorized, appErr.Code)
	assert.Zero(t, repo.writes)
}

func TestRequestSingle_RejectRequiresNote(t *testing.T) {
	repo := newApprovalRepoStub(pendingApproval(1))
	svc := newTestService(repo)

	_, err := svc.RequestSingle(context.Background(), admin(), 1, workflow.ActionReject, "   ")
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Zero(t, repo.writes)
}

func TestRequestSingle_IllegalFromTerminal(t *testing.T) {
	a := pendingApproval(1)
	a.Status = models.ApprovalStatusApproved
	repo := newApprovalRepoStub(a)
	svc := newTestService(repo)

	_, err := svc.RequestSingle(context.Background(), admin(), 1, workflow.ActionApprove, "")
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeIllegalTransition, appErr.Code)
}

func TestRequestBulk_AllPendingSucceeds(t *testing.T) {
	repo := newApprovalRepoStub(pendingApproval(1), pendingApproval(2), pendingApproval(3))
	svc := newTestService(repo)

	records := []workflow.StatusRecord{
		{ID: 1, Status: models.ApprovalStatusPending},
		{ID: 2, Status: models.ApprovalStatusPending},
		{ID: 3, Status: models.ApprovalStatusPending},
	}
	results, err := svc.RequestBulk(context.Background(), admin(), records, workflow.ActionApprove, "")
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i, res := range results {
		assert.Equal(t, records[i].ID, res.ID)
		require.NoError(t, res.Err)
		assert.Equal(t, models.ApprovalStatusApproved, res.Approval.Status)
	}
}

func TestRequestBulk_MixedSelectionRejectedBeforeWrites(t *testing.T) {
	approved := pendingApproval(2)
	approved.Status = models.ApprovalStatusApproved
	repo := newApprovalRepoStub(pendingApproval(1), approved)
	svc := newTestService(repo)

	records := []workflow.StatusRecord{
		{ID: 1, Status: models.ApprovalStatusPending},
		{ID: 2, Status: models.ApprovalStatusApproved},
	}
	_, err := svc.RequestBulk(context.Background(), admin(), records, workflow.ActionApprove, "")
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeIneligibleSelection, appErr.Code)
	assert.Zero(t, repo.writes)
}

func TestRequestBulk_EmptySelectionIneligible(t *testing.T) {
	svc := newTestService(newApprovalRepoStub())

	_, err := svc.RequestBulk(context.Background(), admin(), nil, workflow.ActionApprove, "")
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeIneligibleSelection, appErr.Code)
}

func TestRequestBulk_StaleRecordFailsAloneOthersSucceed(t *testing.T) {
	moved := pendingApproval(2)
	moved.Status = models.ApprovalStatusRejected
	repo := newApprovalRepoStub(pendingApproval(1), moved)
	svc := newTestService(repo)

	// The client still believes both records are pending.
	records := []workflow.StatusRecord{
		{ID: 1, Status: models.ApprovalStatusPending},
		{ID: 2, Status: models.ApprovalStatusPending},
	}
	results, err := svc.RequestBulk(context.Background(), admin(), records, workflow.ActionApprove, "")
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.NoError(t, results[0].Err)
	assert.Equal(t, models.ApprovalStatusApproved, results[0].Approval.Status)

	var appErr *models.AppError
	require.True(t, errors.As(results[1].Err, &appErr))
	assert.Equal(t, models.CodeStaleState, appErr.Code)

	// The stale record kept its real status.
	current, err := repo.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusRejected, current.Status)
}

func TestRequestBulk_FlagDisabled(t *testing.T) {
	repo := newApprovalRepoStub(pendingApproval(1))
	svc := NewApprovalService(repo, nil, featureflags.NewManager("bulk_transitions=off"))

	records := []workflow.StatusRecord{{ID: 1, Status: models.ApprovalStatusPending}}
	_, err := svc.RequestBulk(context.Background(), admin(), records, workflow.ActionApprove, "")
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeValidation, appErr.Code)
	assert.Zero(t, repo.writes)
}

func TestRequestBulk_ReturnNeedsAllNotPending(t *testing.T) {
	approved := pendingApproval(1)
	approved.Status = models.ApprovalStatusApproved
	rejected := pendingApproval(2)
	rejected.Status = models.ApprovalStatusRejected
	repo := newApprovalRepoStub(approved, rejected)
	svc := newTestService(repo)

	records := []workflow.StatusRecord{
		{ID: 1, Status: models.ApprovalStatusApproved},
		{ID: 2, Status: models.ApprovalStatusRejected},
	}
	results, err := svc.RequestBulk(context.Background(), admin(), records, workflow.ActionReturn, "")
	require.NoError(t, err)
	for _, res := range results {
		require.NoError(t, res.Err)
		assert.Equal(t, models.ApprovalStatusPending, res.Approval.Status)
	}
}

func TestDescribeEligibility(t *testing.T) {
	approved := pendingApproval(2)
	approved.Status = models.ApprovalStatusApproved
	repo := newApprovalRepoStub(pendingApproval(1), approved)
	svc := newTestService(repo)

	report, err := svc.DescribeEligibility(context.Background(), []uint{1, 2})
	require.NoError(t, err)
	assert.True(t, report.Eligibility.IsMixed)
	assert.False(t, report.Eligibility.AllPending)
	assert.False(t, report.Eligibility.AllNotPending)
	require.Len(t, report.Records, 2)

	empty, err := svc.DescribeEligibility(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, empty.Eligibility.AllPending)
	assert.False(t, empty.Eligibility.AllNotPending)
	assert.False(t, empty.Eligibility.IsMixed)
}

func TestOpenForEntity(t *testing.T) {
	repo := newApprovalRepoStub()
	svc := newTestService(repo)

	approval, err := svc.OpenForEntity(context.Background(), models.EntityTypeEvent, 12, 3)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusPending, approval.Status)
	assert.Equal(t, models.EntityTypeEvent, approval.EntityType)
	require.NotNil(t, approval.EventID)
	assert.Equal(t, uint(12), *approval.EventID)

	_, err = svc.OpenForEntity(context.Background(), models.ApprovalEntityType("BAD"), 12, 3)
	assert.Error(t, err)
}

func TestStats(t *testing.T) {
	approved := pendingApproval(2)
	approved.Status = models.ApprovalStatusApproved
	repo := newApprovalRepoStub(pendingApproval(1), approved)
	svc := newTestService(repo)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Pending)
	assert.EqualValues(t, 1, stats.Approved)
	assert.EqualValues(t, 2, stats.Total)
}
