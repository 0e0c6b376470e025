package dto

import (
	"encoding/json"
	"time"

	"taskboard/internal/domain"
)

type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	DueDate     string  `json:"dueDate"`
	// Priority is decoded as a number so integral forms such as 1.0 are
	// accepted; the handler converts it.
	Priority float64 `json:"priority"`
}

type TaskResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DueDate     string    `json:"dueDate"`
	Priority    int       `json:"priority"`
	Status      int       `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func NewTaskResponse(task domain.Task) TaskResponse {
	return TaskResponse{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		DueDate:     task.DueDate.String(),
		Priority:    int(task.Priority),
		Status:      int(task.Status),
		CreatedAt:   task.CreatedAt,
	}
}

type SuccessResponse struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorResponse struct {
	Success   bool      `json:"success"`
	Error     ErrorBody `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Environment string    `json:"environment"`
}

// Envelope is the decoding side of SuccessResponse and ErrorResponse.
type Envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     *ErrorEnvelope  `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type ErrorEnvelope struct {
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Details json.RawMessage `json:"details,omitempty"`
}

const (
	CodeValidation    = "VALIDATION_ERROR"
	CodeBusinessRule  = "BUSINESS_RULE_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeInternalError = "INTERNAL_SERVER_ERROR"
)
