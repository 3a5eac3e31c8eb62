// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"strings"

	"orgdesk/internal/models"
	"orgdesk/internal/repository"
	"orgdesk/internal/workflow"

	"github.com/gofiber/fiber/v2"
)

// ListApprovals handles GET /api/approvals
// @Summary List approval records
// @Description Lists approval records with optional status, entity_type, and requester filters
// @Tags approvals
// @Produce json
// @Param status query string false "Filter by status (PENDING, APPROVED, REJECTED, CANCELLED)"
// @Param entity_type query string false "Filter by entity type"
// @Param requester_id query int false "Filter by requester"
// @Success 200 {object} object{approvals=[]models.Approval,total=int}
// @Router /approvals [get]
func (s *Server) ListApprovals(c *fiber.Ctx) error {
	// A selection snapshot request bypasses the filtered listing: the console
	// refreshes the last-known statuses of the rows it has checked.
	if raw := strings.TrimSpace(c.Query("ids")); raw != "" {
		ids, err := parseIDList(raw)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
		records, err := s.approvalService.Snapshot(c.UserContext(), ids)
		if err != nil {
			return respondServiceError(c, err)
		}
		return c.JSON(fiber.Map{
			"records": records,
			"total":   len(records),
		})
	}

	page := parsePagination(c, 20)

	filter := repository.ApprovalFilter{
		Limit:  page.Limit,
		Offset: page.Offset,
	}

	if status := strings.TrimSpace(c.Query("status")); status != "" {
		filter.Status = models.ApprovalStatus(strings.ToUpper(status))
	}
	if entityType := strings.TrimSpace(c.Query("entity_type")); entityType != "" {
		filter.EntityType = models.ApprovalEntityType(strings.ToUpper(entityType))
		if !filter.EntityType.Valid() {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Unknown entity type"))
		}
	}
	if requesterID := c.QueryInt("requester_id", 0); requesterID > 0 {
		filter.RequesterID = uint(requesterID)
	}

	approvals, total, err := s.approvalService.List(c.UserContext(), filter)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"approvals": approvals,
		"total":     total,
		"limit":     page.Limit,
		"offset":    page.Offset,
	})
}

// GetApproval handles GET /api/approvals/:id
func (s *Server) GetApproval(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	approval, err := s.approvalService.Get(c.UserContext(), id)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(approval)
}

// GetSelectionEligibility handles GET /api/approvals/eligibility?ids=1,2,3
// It returns the current status of each selected record alongside the
// tri-state eligibility flags driving the console's bulk-action buttons.
func (s *Server) GetSelectionEligibility(c *fiber.Ctx) error {
	ids, err := parseIDList(c.Query("ids"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	report, err := s.approvalService.DescribeEligibility(c.UserContext(), ids)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(report)
}

// TransitionApproval handles POST /api/approvals/:id/transition (admin only)
// @Summary Apply a review action to one approval
// @Description Applies approve, reject, requestRevision, or return to a single record
// @Tags approvals
// @Accept json
// @Produce json
// @Param id path int true "Approval ID"
// @Param request body object{action=string,note=string} true "Review action"
// @Success 200 {object} models.Approval
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /approvals/{id}/transition [post]
func (s *Server) TransitionApproval(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Action string `json:"action"`
		Note   string `json:"note"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	action, err := workflow.ParseAction(req.Action)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	reviewer, err := s.currentUser(c)
	if err != nil {
		return respondServiceError(c, err)
	}

	approval, err := s.approvalService.RequestSingle(c.UserContext(), reviewer, id, action, req.Note)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(approval)
}

// BulkTransitionApprovals handles POST /api/approvals/bulk-transition (admin only)
// The request carries each record's last-known status; records whose persisted
// status changed since the client read them fail individually with
// STALE_STATE while the rest of the batch proceeds. The response is 207
// whenever at least one record failed.
// @Summary Apply a review action to a selection of approvals
// @Tags approvals
// @Accept json
// @Produce json
// @Param request body object{action=string,note=string,records=[]object{id=int,status=string}} true "Bulk review action"
// @Success 200 {object} object{results=[]object{id=int,approval=models.Approval}}
// @Success 207 {object} object{results=[]object{id=int,error=models.ErrorResponse}}
// @Failure 409 {object} models.ErrorResponse
// @Router /approvals/bulk-transition [post]
func (s *Server) BulkTransitionApprovals(c *fiber.Ctx) error {
	var req struct {
		Action  string                  `json:"action"`
		Note    string                  `json:"note"`
		Records []workflow.StatusRecord `json:"records"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	action, err := workflow.ParseAction(req.Action)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}

	reviewer, err := s.currentUser(c)
	if err != nil {
		return respondServiceError(c, err)
	}

	results, err := s.approvalService.RequestBulk(c.UserContext(), reviewer, req.Records, action, req.Note)
	if err != nil {
		return respondServiceError(c, err)
	}

	body := make([]fiber.Map, 0, len(results))
	anyFailed := false
	for _, r := range results {
		entry := fiber.Map{"id": r.ID}
		if r.Err != nil {
			anyFailed = true
			entry["error"] = errorResponseFor(r.Err)
		} else {
			entry["approval"] = r.Approval
		}
		body = append(body, entry)
	}

	status := fiber.StatusOK
	if anyFailed {
		status = fiber.StatusMultiStatus
	}
	return c.Status(status).JSON(fiber.Map{"results": body})
}

// GetDashboardStats handles GET /api/approvals/stats
func (s *Server) GetDashboardStats(c *fiber.Ctx) error {
	stats, err := s.approvalService.Stats(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}

// errorResponseFor converts an error into the standard JSON error shape for
// embedding inside a bulk result entry.
func errorResponseFor(err error) models.ErrorResponse {
	if appErr, ok := err.(*models.AppError); ok {
		return models.ErrorResponse{Error: appErr.Message, Code: appErr.Code}
	}
	return models.ErrorResponse{Error: err.Error()}
}
