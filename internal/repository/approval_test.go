package repository

import (
	"context"
	"errors"
	"testing"

	"orgdesk/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Document{},
		&models.Event{},
		&models.FinanceTransaction{},
		&models.Letter{},
		&models.WorkProgram{},
		&models.Approval{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func createTestApproval(t *testing.T, db *gorm.DB, user *models.User, status models.ApprovalStatus) *models.Approval {
	t.Helper()
	doc := &models.Document{Title: "budget plan", OwnerID: user.ID}
	require.NoError(t, db.Create(doc).Error)

	approval, err := models.NewApproval(models.EntityTypeDocument, doc.ID, user.ID)
	require.NoError(t, err)
	approval.Status = status
	require.NoError(t, db.Create(approval).Error)
	return approval
}

func TestApprovalRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "requester", Email: "r@example.com"}
	require.NoError(t, db.Create(user).Error)

	doc := &models.Document{Title: "charter", OwnerID: user.ID}
	require.NoError(t, db.Create(doc).Error)

	approval, err := models.NewApproval(models.EntityTypeDocument, doc.ID, user.ID)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, approval))
	assert.NotZero(t, approval.ID)

	fetched, err := repo.GetByID(ctx, approval.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusPending, fetched.Status)
	assert.Equal(t, models.EntityTypeDocument, fetched.EntityType)
}

func TestApprovalRepository_Create_RejectsMismatchedParent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	docID := uint(1)
	bad := &models.Approval{
		EntityType: models.EntityTypeEvent,
		DocumentID: &docID,
		Status:     models.ApprovalStatusPending,
	}
	err := repo.Create(ctx, bad)
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeValidation, appErr.Code)
}

func TestApprovalRepository_GetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApprovalRepository(db)

	_, err := repo.GetByID(context.Background(), 999)
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestApprovalRepository_GetByIDs_PreservesOrder(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "requester", Email: "r@example.com"}
	require.NoError(t, db.Create(user).Error)

	a := createTestApproval(t, db, user, models.ApprovalStatusPending)
	b := createTestApproval(t, db, user, models.ApprovalStatusApproved)
	c := createTestApproval(t, db, user, models.ApprovalStatusPending)

	got, err := repo.GetByIDs(ctx, []uint{c.ID, a.ID, 777, b.ID})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, c.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)
	assert.Equal(t, b.ID, got[2].ID)
}

func TestApprovalRepository_List_Filters(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "requester", Email: "r@example.com"}
	require.NoError(t, db.Create(user).Error)

	createTestApproval(t, db, user, models.ApprovalStatusPending)
	createTestApproval(t, db, user, models.ApprovalStatusPending)
	createTestApproval(t, db, user, models.ApprovalStatusApproved)

	pending, total, err := repo.List(ctx, ApprovalFilter{Status: models.ApprovalStatusPending})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, pending, 2)

	all, total, err := repo.List(ctx, ApprovalFilter{EntityType: models.EntityTypeDocument})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, all, 3)

	none, total, err := repo.List(ctx, ApprovalFilter{EntityType: models.EntityTypeLetter})
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, none)
}

func TestApprovalRepository_Mutate_PersistsOnSuccess(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "requester", Email: "r@example.com"}
	require.NoError(t, db.Create(user).Error)
	approval := createTestApproval(t, db, user, models.ApprovalStatusPending)

	updated, err := repo.Mutate(ctx, approval.ID, func(a *models.Approval) error {
		a.Status = models.ApprovalStatusApproved
		a.Note = "looks good"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalStatusApproved, updated.Status)

	var persisted models.Approval
	require.NoError(t, db.First(&persisted, approval.ID).Error)
	assert.Equal(t, models.ApprovalStatusApproved, persisted.Status)
	assert.Equal(t, "looks good", persisted.Note)
}

func TestApprovalRepository_Mutate_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "requester", Email: "r@example.com"}
	require.NoError(t, db.Create(user).Error)
	approval := createTestApproval(t, db, user, models.ApprovalStatusPending)

	boom := models.NewValidationError("nope")
	_, err := repo.Mutate(ctx, approval.ID, func(a *models.Approval) error {
		a.Status = models.ApprovalStatusRejected
		return boom
	})
	require.ErrorIs(t, err, boom)

	var persisted models.Approval
	require.NoError(t, db.First(&persisted, approval.ID).Error)
	assert.Equal(t, models.ApprovalStatusPending, persisted.Status)
}

func TestApprovalRepository_Mutate_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApprovalRepository(db)

	_, err := repo.Mutate(context.Background(), 42, func(a *models.Approval) error { return nil })
	require.Error(t, err)

	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestApprovalRepository_CountByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewApprovalRepository(db)
	ctx := context.Background()

	user := &models.User{Username: "requester", Email: "r@example.com"}
	require.NoError(t, db.Create(user).Error)

	createTestApproval(t, db, user, models.ApprovalStatusPending)
	createTestApproval(t, db, user, models.ApprovalStatusApproved)
	createTestApproval(t, db, user, models.ApprovalStatusApproved)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[models.ApprovalStatusPending])
	assert.EqualValues(t, 2, counts[models.ApprovalStatusApproved])
}
