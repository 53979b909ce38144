package todo

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nibzard/tasklist/internal/logging"
)

// Persister loads and saves full snapshots of the task list.
type Persister interface {
	// Load returns the stored snapshot. ok is false when nothing is stored.
	// A snapshot that cannot be decoded is reported as a CorruptSnapshotError.
	Load() (tasks []Task, ok bool, err error)
	// Save overwrites the stored snapshot.
	Save(tasks []Task) error
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for mutation events.
func WithLogger(logger *log.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock sets the time source used to assign task IDs.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store owns the task list and the current filter. It is safe for
// concurrent use; each operation runs its read-modify-save under one lock.
type Store struct {
	mu        sync.Mutex
	persister Persister
	tasks     []Task
	filter    Filter
	lastID    int64
	now       func() time.Time
	logger    *log.Logger
}

// Open creates a Store and loads the stored snapshot, if any.
//
// When the snapshot is corrupt, Open returns a usable empty Store together
// with the CorruptSnapshotError so the caller can warn about it. Any other
// load failure returns a nil Store.
func Open(p Persister, opts ...Option) (*Store, error) {
	if p == nil {
		return nil, fmt.Errorf("open store: persister is nil")
	}

	s := &Store{
		persister: p,
		filter:    FilterAll,
		now:       time.Now,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	tasks, ok, err := p.Load()
	if err != nil {
		if errors.Is(err, ErrCorruptSnapshot) {
			s.logger.Warn("Ignoring corrupt snapshot", "err", err)
			return s, err
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	if ok {
		if err := ValidateTasks(tasks); err != nil {
			corrupt := &CorruptSnapshotError{Err: err}
			s.logger.Warn("Ignoring corrupt snapshot", "err", corrupt)
			return s, corrupt
		}
		s.tasks = tasks
		for _, t := range tasks {
			if t.ID > s.lastID {
				s.lastID = t.ID
			}
		}
	}
	s.logger.Debug("Store opened", "tasks", len(s.tasks))
	return s, nil
}

// Add creates a task from text and appends it to the list. Invalid UTF-8
// sequences in text are replaced with U+FFFD so every codec stores the text
// exactly as it is held in memory.
func (s *Store) Add(text string) (Task, error) {
	text = strings.TrimSpace(strings.ToValidUTF8(text, "\uFFFD"))
	if text == "" {
		return Task{}, ErrEmptyInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := Task{
		ID:   s.nextIDLocked(),
		Text: text,
	}
	next := make([]Task, len(s.tasks), len(s.tasks)+1)
	copy(next, s.tasks)
	next = append(next, task)

	if err := s.commitLocked(next); err != nil {
		return Task{}, fmt.Errorf("add task: %w", err)
	}
	s.lastID = task.ID
	s.logger.Debug("Task added", "id", task.ID, "text", task.Text)
	return task, nil
}

// Remove deletes the task with the given ID.
func (s *Store) Remove(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return notFound(id)
	}

	next := make([]Task, 0, len(s.tasks)-1)
	next = append(next, s.tasks[:idx]...)
	next = append(next, s.tasks[idx+1:]...)

	if err := s.commitLocked(next); err != nil {
		return fmt.Errorf("remove task %d: %w", id, err)
	}
	s.logger.Debug("Task removed", "id", id)
	return nil
}

// Toggle flips the completed flag of the task with the given ID.
func (s *Store) Toggle(id int64) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return Task{}, notFound(id)
	}

	next := make([]Task, len(s.tasks))
	copy(next, s.tasks)
	next[idx].Completed = !next[idx].Completed

	if err := s.commitLocked(next); err != nil {
		return Task{}, fmt.Errorf("toggle task %d: %w", id, err)
	}
	s.logger.Debug("Task toggled", "id", id, "completed", next[idx].Completed)
	return next[idx], nil
}

// ClearCompleted removes every completed task and returns how many were
// removed. The snapshot is saved even when nothing was removed.
func (s *Store) ClearCompleted() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Completed {
			next = append(next, t)
		}
	}
	removed := len(s.tasks) - len(next)

	if err := s.commitLocked(next); err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	s.logger.Debug("Completed tasks cleared", "removed", removed)
	return removed, nil
}

// SetFilter replaces the current filter. It does not persist anything.
func (s *Store) SetFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

// Filter returns the current filter.
func (s *Store) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// Query returns the visible tasks and the active count.
func (s *Store) Query() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Visible: make([]Task, 0, len(s.tasks)),
		Filter:  s.filter,
	}
	for _, t := range s.tasks {
		if !t.Completed {
			v.ActiveCount++
		}
		if s.filter.Match(t) {
			v.Visible = append(v.Visible, t)
		}
	}
	return v
}

// Get returns the task with the given ID.
func (s *Store) Get(id int64) (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexLocked(id)
	if idx < 0 {
		return Task{}, false
	}
	return s.tasks[idx], true
}

// Len returns the number of tasks regardless of filter.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// commitLocked saves next and installs it only when the save succeeded.
func (s *Store) commitLocked(next []Task) error {
	if err := s.persister.Save(next); err != nil {
		s.logger.Error("Snapshot save failed", "err", err)
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.tasks = next
	return nil
}

func (s *Store) indexLocked(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// nextIDLocked returns the creation time in milliseconds, bumped past the
// largest ID handed out so far.
func (s *Store) nextIDLocked() int64 {
	id := s.now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	return id
}
