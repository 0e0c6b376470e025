package store

import (
	"errors"
	"taskboard/internal/domain"
)

var ErrDuplicateTitle = errors.New("task title already exists")

type TaskStore interface {
	Create(t domain.Task) (domain.Task, error)
	Get(id string) (domain.Task, bool)
	List() ([]domain.Task, error)
	Clear()
}
