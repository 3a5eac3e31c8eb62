package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"orgdesk/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDocument_OpensPendingApproval(t *testing.T) {
	t.Parallel()
	s, db := newTestServer(t)
	member := createMember(t, db)

	app := fiber.New()
	app.Post("/documents", asUser(member.ID, s.CreateDocument))

	resp := postJSON(t, app, "/documents", fiber.Map{
		"title":    "Annual report",
		"category": "reports",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	body := decodeBody(t, resp)

	doc := body["document"].(map[string]interface{})
	approval := body["approval"].(map[string]interface{})
	assert.Equal(t, "Annual report", doc["title"])
	assert.Equal(t, string(models.ApprovalStatusPending), approval["status"])
	assert.Equal(t, string(models.EntityTypeDocument), approval["entity_type"])

	var persisted models.Approval
	require.NoError(t, db.Where("document_id = ?", uint(doc["id"].(float64))).First(&persisted).Error)
	assert.Equal(t, models.ApprovalStatusPending, persisted.Status)
	assert.Equal(t, member.ID, persisted.RequesterID)
}

func TestCreateDocument_RequiresTitle(t *testing.T) {
	t.Parallel()
	s, db := newTestServer(t)
	member := createMember(t, db)

	app := fiber.New()
	app.Post("/documents", asUser(member.ID, s.CreateDocument))

	resp := postJSON(t, app, "/documents", fiber.Map{"title": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	var count int64
	require.NoError(t, db.Model(&models.Document{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestUpdateDocument_OwnerOnly(t *testing.T) {
	t.Parallel()
	s, db := newTestServer(t)
	owner := createMember(t, db)
	other := &models.User{Username: "other", Email: "other@org.test", Password: "x", Role: models.UserRoleMember}
	require.NoError(t, db.Create(other).Error)

	doc := &models.Document{Title: "Draft policy", OwnerID: owner.ID}
	require.NoError(t, db.Create(doc).Error)

	app := fiber.New()
	app.Put("/mine/:id", asUser(owner.ID, s.UpdateDocument))
	app.Put("/theirs/:id", asUser(other.ID, s.UpdateDocument))

	t.Run("owner can update", func(t *testing.T) {
		resp := putJSON(t, app, fmt.Sprintf("/mine/%d", doc.ID), fiber.Map{"title": "Final policy"})
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()

		var persisted models.Document
		require.NoError(t, db.First(&persisted, doc.ID).Error)
		assert.Equal(t, "Final policy", persisted.Title)
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		resp := putJSON(t, app, fmt.Sprintf("/theirs/%d", doc.ID), fiber.Map{"title": "Hijacked"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		_ = resp.Body.Close()
	})
}

func TestDeleteDocument_AdminOverride(t *testing.T) {
	t.Parallel()
	s, db := newTestServer(t)
	owner := createMember(t, db)
	admin := createAdmin(t, db)

	doc := &models.Document{Title: "Obsolete doc", OwnerID: owner.ID}
	require.NoError(t, db.Create(doc).Error)

	app := fiber.New()
	app.Delete("/documents/:id", asUser(admin.ID, s.DeleteDocument))

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/documents/%d", doc.ID), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	var count int64
	require.NoError(t, db.Model(&models.Document{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestListDocuments_CategoryFilter(t *testing.T) {
	t.Parallel()
	s, db := newTestServer(t)
	member := createMember(t, db)

	require.NoError(t, db.Create(&models.Document{Title: "A", Category: "reports", OwnerID: member.ID}).Error)
	require.NoError(t, db.Create(&models.Document{Title: "B", Category: "minutes", OwnerID: member.ID}).Error)

	app := fiber.New()
	app.Get("/documents", asUser(member.ID, s.ListDocuments))

	req := httptest.NewRequest(http.MethodGet, "/documents?category=reports", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(1), body["total"])
}
