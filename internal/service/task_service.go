package service

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"taskboard/internal/domain"
	"taskboard/internal/store"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	MinTitleLength       = 3
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
)

type TaskStore interface {
	Create(task domain.Task) (domain.Task, error)
	Get(id string) (domain.Task, bool)
	List() ([]domain.Task, error)
	Clear()
}

type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     domain.Date
	Priority    domain.Priority
}

type TaskService struct {
	store    TaskStore
	calendar domain.Calendar
	logger   *log.Logger
}

func New(store TaskStore, calendar domain.Calendar, logger *log.Logger) (*TaskService, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if logger == nil {
		logger = log.Default()
	}

	return &TaskService{store: store, calendar: calendar, logger: logger}, nil
}

// ValidateCreate checks every field rule except title uniqueness, which
// only the store can answer atomically.
func ValidateCreate(in CreateTaskInput, today domain.Date) error {
	trimmed := strings.TrimSpace(in.Title)

	switch {
	case in.Title == "":
		return ErrTitleRequired
	case trimmed == "":
		return ErrTitleOnlySpaces
	case utf8.RuneCountInString(trimmed) < MinTitleLength:
		return ErrTitleTooShort
	case utf8.RuneCountInString(in.Title) > MaxTitleLength:
		return ErrTitleTooLong
	}

	if utf8.RuneCountInString(in.Description) > MaxDescriptionLength {
		return ErrDescriptionTooLong
	}

	if in.DueDate.Before(today) {
		return ErrDueDateInPast
	}

	if !in.Priority.Valid() {
		return ErrInvalidPriority
	}

	return nil
}

func (s *TaskService) CreateTask(in CreateTaskInput) (domain.Task, error) {
	if err := ValidateCreate(in, s.calendar.Today()); err != nil {
		return domain.Task{}, err
	}

	task := domain.Task{
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
		Priority:    in.Priority,
		CreatedAt:   s.calendar.Now(),
	}

	created, err := s.store.Create(task)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateTitle) {
			return domain.Task{}, ErrDuplicateTitle
		}
		return domain.Task{}, fmt.Errorf("create task: %w", err)
	}

	s.logger.Debug("task created", "id", created.ID, "due", created.DueDate, "priority", created.Priority, "status", created.Status)

	return created, nil
}

func (s *TaskService) GetTask(id string) (domain.Task, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Task{}, ErrInvalidID
	}

	task, ok := s.store.Get(id)
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	return task, nil
}

func (s *TaskService) ListTasks() ([]domain.Task, error) {
	tasks, err := s.store.List()
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) ClearTasks() {
	s.store.Clear()
	s.logger.Info("task store cleared")
}
