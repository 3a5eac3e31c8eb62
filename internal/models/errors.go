package models

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse represents a standardized API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// AppError represents a custom application error
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Error codes used across the application.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeValidation          = "VALIDATION_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInternal            = "INTERNAL_ERROR"
	CodeIllegalTransition   = "ILLEGAL_TRANSITION"
	CodeIneligibleSelection = "INELIGIBLE_SELECTION"
	CodeStaleState          = "STALE_STATE"
)

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: "Internal server error",
		Err:     err,
	}
}

// NewIllegalTransitionError reports that the requested action is not legal
// from the record's current status.
func NewIllegalTransitionError(action string, status ApprovalStatus) *AppError {
	return &AppError{
		Code:    CodeIllegalTransition,
		Message: fmt.Sprintf("action %q is not allowed from status %s", action, status),
	}
}

// NewIneligibleSelectionError reports that a bulk action was requested over a
// selection that is empty or not uniformly eligible.
func NewIneligibleSelectionError(reason string) *AppError {
	return &AppError{
		Code:    CodeIneligibleSelection,
		Message: reason,
	}
}

// NewStaleStateError reports that the record's persisted status changed
// between validation and write.
func NewStaleStateError(id uint, expected, actual ApprovalStatus) *AppError {
	return &AppError{
		Code:    CodeStaleState,
		Message: fmt.Sprintf("approval %d changed from %s to %s since last read", id, expected, actual),
	}
}

// respondWithError creates a standardized error response
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	var response ErrorResponse

	if appErr, ok := err.(*AppError); ok {
		response = ErrorResponse{
			Error: appErr.Message,
			Code:  appErr.Code,
		}
		if appErr.Err != nil {
			response.Details = appErr.Err.Error()
		}
	} else {
		response = ErrorResponse{
			Error: err.Error(),
		}
	}

	return c.Status(status).JSON(response)
}
