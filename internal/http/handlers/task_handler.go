package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"time"

	"taskboard/internal/domain"
	"taskboard/internal/http/dto"
	"taskboard/internal/service"
	"taskboard/internal/validation"

	"github.com/charmbracelet/log"
)

const defaultMaxBodyBytes = 10 << 20

type TaskService interface {
	CreateTask(in service.CreateTaskInput) (domain.Task, error)
	GetTask(id string) (domain.Task, error)
	ListTasks() ([]domain.Task, error)
	ClearTasks()
}

type RequestValidator interface {
	ValidateCreateTask(doc any) []validation.FieldError
}

type Options struct {
	Validator    RequestValidator
	Calendar     domain.Calendar
	Logger       *log.Logger
	MaxBodyBytes int64
}

type TaskHandler struct {
	taskService  TaskService
	validator    RequestValidator
	calendar     domain.Calendar
	logger       *log.Logger
	maxBodyBytes int64
}

func New(taskService TaskService, opts Options) *TaskHandler {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}

	return &TaskHandler{
		taskService:  taskService,
		validator:    opts.Validator,
		calendar:     opts.Calendar,
		logger:       opts.Logger,
		maxBodyBytes: opts.MaxBodyBytes,
	}
}

// POST /api/v1/internal/task
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, dto.CodeValidation, "Request body too large", nil, h.calendar.Now())
			return
		}
		writeError(w, http.StatusBadRequest, dto.CodeValidation, "Could not read request body", nil, h.calendar.Now())
		return
	}

	doc, err := decodeDocument(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, dto.CodeValidation, "Invalid JSON body", err.Error(), h.calendar.Now())
		return
	}

	if h.validator != nil {
		if fieldErrs := h.validator.ValidateCreateTask(doc); len(fieldErrs) > 0 {
			writeError(w, http.StatusBadRequest, dto.CodeValidation, "Validation failed", fieldErrs, h.calendar.Now())
			return
		}
	}

	var req dto.CreateTaskRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, dto.CodeValidation, "Validation failed", []validation.FieldError{
			{Message: err.Error()},
		}, h.calendar.Now())
		return
	}

	dueDate, err := domain.ParseDate(req.DueDate, h.calendar.Location())
	if err != nil {
		writeError(w, http.StatusBadRequest, dto.CodeValidation, "Validation failed", []validation.FieldError{
			{Field: "dueDate", Keyword: "format", Message: "invalidDate"},
		}, h.calendar.Now())
		return
	}

	var description string
	if req.Description != nil {
		description = *req.Description
	}

	task, err := h.taskService.CreateTask(service.CreateTaskInput{
		Title:       req.Title,
		Description: description,
		DueDate:     dueDate,
		Priority:    priorityOf(req.Priority),
	})
	if err != nil {
		var ruleErr *service.RuleError
		if errors.As(err, &ruleErr) {
			writeError(w, http.StatusBadRequest, dto.CodeBusinessRule, ruleErr.Rule, nil, h.calendar.Now())
			return
		}
		h.internalError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusCreated, dto.NewTaskResponse(task), h.calendar.Now())
}

// GET /api/v1/internal/task/{id}
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	task, err := h.taskService.GetTask(r.PathValue("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidID):
			writeError(w, http.StatusBadRequest, dto.CodeValidation, service.ErrInvalidID.Error(), nil, h.calendar.Now())
		case errors.Is(err, service.ErrNotFound):
			writeError(w, http.StatusNotFound, dto.CodeNotFound, service.ErrNotFound.Error(), nil, h.calendar.Now())
		default:
			h.internalError(w, r, err)
		}
		return
	}

	writeSuccess(w, http.StatusOK, dto.NewTaskResponse(task), h.calendar.Now())
}

// GET /api/v1/internal/task
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.taskService.ListTasks()
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	response := make([]dto.TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		response = append(response, dto.NewTaskResponse(task))
	}

	writeSuccess(w, http.StatusOK, response, h.calendar.Now())
}

// DELETE /api/v1/internal/task
func (h *TaskHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.taskService.ClearTasks()
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Now() time.Time {
	return h.calendar.Now()
}

func (h *TaskHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	InternalError(w, h.calendar.Now())
}

// decodeDocument parses exactly one JSON value, keeping numbers exact for
// schema validation.
// priorityOf maps a fractional value to an invalid priority so the service
// reports invalidPriority for it.
func priorityOf(p float64) domain.Priority {
	if p != math.Trunc(p) {
		return domain.Priority(-1)
	}
	return domain.Priority(int(p))
}

func decodeDocument(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, errors.New("unexpected data after JSON body")
	}
	return doc, nil
}
