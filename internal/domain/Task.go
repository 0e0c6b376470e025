package domain

import "time"

type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
)

func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityHigh
}

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "Low"
	case PriorityMedium:
		return "Medium"
	case PriorityHigh:
		return "High"
	default:
		return "Unknown"
	}
}

type TaskStatus int

const (
	StatusPending TaskStatus = iota
	StatusCompleted
	StatusOverdue
)

func (s TaskStatus) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusCompleted:
		return "Completed"
	case StatusOverdue:
		return "Overdue"
	default:
		return "Unknown"
	}
}

type Task struct {
	ID          string
	Title       string
	Description string

	DueDate  Date
	Priority Priority
	Status   TaskStatus

	CreatedAt time.Time
}

// InitialStatus derives the status a task is stored with.
func InitialStatus(due, today Date) TaskStatus {
	if due.Before(today) {
		return StatusOverdue
	}
	return StatusPending
}

// IsOverdue reports whether a pending task has passed its due date.
func (t Task) IsOverdue(today Date) bool {
	return t.Status == StatusPending && t.DueDate.Before(today)
}
