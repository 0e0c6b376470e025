package memory

import (
	"errors"
	"sync"

	"taskboard/internal/domain"
	"taskboard/internal/store"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	ErrNotInitialized = errors.New("task store not initialized")
)

var _ store.TaskStore = (*TaskStore)(nil)

// TaskStore keeps tasks in insertion order. Title uniqueness is a
// case-insensitive exact match on the title as stored.
type TaskStore struct {
	mu       sync.RWMutex
	calendar domain.Calendar
	newID    func() string

	order  []string
	tasks  map[string]domain.Task
	titles map[string]string
}

func New(calendar domain.Calendar) *TaskStore {
	return &TaskStore{
		calendar: calendar,
		newID:    uuid.NewString,
		tasks:    make(map[string]domain.Task),
		titles:   make(map[string]string),
	}
}

func TitleKey(title string) string {
	return cases.Lower(language.Und).String(title)
}

func (ts *TaskStore) Create(task domain.Task) (domain.Task, error) {
	key := TitleKey(task.Title)

	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.tasks == nil {
		return domain.Task{}, ErrNotInitialized
	}
	if _, taken := ts.titles[key]; taken {
		return domain.Task{}, store.ErrDuplicateTitle
	}

	id := ts.newID()
	for _, exists := ts.tasks[id]; exists; _, exists = ts.tasks[id] {
		id = ts.newID()
	}
	task.ID = id

	// status is not definable by user, so here we set its init value
	task.Status = domain.InitialStatus(task.DueDate, ts.calendar.Today())

	ts.tasks[id] = task
	ts.titles[key] = id
	ts.order = append(ts.order, id)

	return task, nil
}

func (ts *TaskStore) Get(id string) (domain.Task, bool) {
	ts.mu.RLock()
	task, ok := ts.tasks[id]
	ts.mu.RUnlock()

	// task is non-pointer value
	return task, ok
}

// List flips pending tasks whose due date has passed to overdue, then
// returns every task in creation order.
func (ts *TaskStore) List() ([]domain.Task, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.tasks == nil {
		return nil, ErrNotInitialized
	}

	today := ts.calendar.Today()

	tasks := make([]domain.Task, 0, len(ts.order))
	for _, id := range ts.order {
		t := ts.tasks[id]
		if t.IsOverdue(today) {
			t.Status = domain.StatusOverdue
			ts.tasks[id] = t
		}
		tasks = append(tasks, t)
	}

	return tasks, nil
}

func (ts *TaskStore) Clear() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.order = nil
	ts.tasks = make(map[string]domain.Task)
	ts.titles = make(map[string]string)
}
