package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/common"
	"github.com/docuflow/docuflow/internal/entity"
)

// Archiver persists completed tasks outside the in-memory graph. Optional;
// a nil archiver disables archival.
type Archiver interface {
	Archive(ctx context.Context, t entity.TaskItem) error
}

// CreateParams are the caller-supplied fields of a new task.
type CreateParams struct {
	Title       string
	Description string
	Level       constants.ComplexityLevel
	Priority    constants.Priority
	Estimate    time.Duration
	Tags        []string
}

// Scheduler owns the task graph and serializes every mutation behind one
// mutex, so an unblock sweep always runs to completion before the next
// operation observes the graph.
type Scheduler struct {
	mu      sync.Mutex
	graph   *Graph
	archive Archiver
	logger  *slog.Logger
}

func NewScheduler(archive Archiver, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		graph:   NewGraph(),
		archive: archive,
		logger:  logger,
	}
}

// CreateTask registers a new task. A level 6 task is decomposed immediately
// and recursively, so its level 5 subtasks are themselves broken down; the
// returned task is the root and the subtasks are reachable via Subtasks.
func (s *Scheduler) CreateTask(params CreateParams) (entity.TaskItem, error) {
	if params.Title == "" {
		return entity.TaskItem{}, fmt.Errorf("%w: title is required", common.ErrInvalidInput)
	}
	if !params.Level.Valid() {
		return entity.TaskItem{}, fmt.Errorf("%w: complexity level %d", common.ErrInvalidInput, params.Level)
	}
	if params.Priority == "" {
		params.Priority = constants.PriorityMedium
	}

	t := &entity.TaskItem{
		ID:                uuid.New(),
		Title:             params.Title,
		Description:       params.Description,
		Level:             params.Level,
		Status:            constants.TaskStatusPending,
		Priority:          params.Priority,
		EstimatedDuration: params.Estimate,
		Tags:              params.Tags,
		CreatedAt:         time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.graph.Add(t)
	if t.Level >= constants.Level6 {
		s.decomposeLocked(t)
	}
	s.logger.Info("task created",
		"task_id", t.ID,
		"level", int(t.Level),
		"priority", t.Priority,
	)
	return *t, nil
}

// DecomposeTask breaks an existing level >= 5 task into subtasks,
// recursively. Calling it on a task below level 5 is an error; callers
// should check RequiresDecomposition first.
func (s *Scheduler) DecomposeTask(id uuid.UUID) ([]entity.TaskItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.graph.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrTaskNotFound, id)
	}
	if !t.Level.RequiresDecomposition() {
		return nil, fmt.Errorf("%w: level %d does not require decomposition", common.ErrInvalidInput, t.Level)
	}

	created := s.decomposeLocked(t)
	out := make([]entity.TaskItem, 0, len(created))
	for _, st := range created {
		out = append(out, *st)
	}
	return out, nil
}

// decomposeLocked expands a task and recursively expands any subtask whose
// assigned level itself requires decomposition. Caller holds s.mu.
func (s *Scheduler) decomposeLocked(parent *entity.TaskItem) []*entity.TaskItem {
	var created []*entity.TaskItem
	for _, st := range Decompose(parent) {
		sub := st
		s.graph.Add(&sub)
		created = append(created, &sub)
		if sub.Level.RequiresDecomposition() {
			created = append(created, s.decomposeLocked(&sub)...)
		}
	}
	return created
}

// AddDependency makes taskID wait on dependsOn.
func (s *Scheduler) AddDependency(taskID, dependsOn uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph.AddDependency(taskID, dependsOn)
}

// StartTask moves a pending task to in-progress and stamps StartedAt on the
// first call only; restarting an in-progress task is a no-op.
func (s *Scheduler) StartTask(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.graph.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrTaskNotFound, id)
	}
	switch t.Status {
	case constants.TaskStatusInProgress:
		return nil
	case constants.TaskStatusBlocked:
		return fmt.Errorf("%w: task %s is blocked by %d dependencies", common.ErrInvalidInput, id, len(s.graph.BlockingSet(id)))
	case constants.TaskStatusCompleted, constants.TaskStatusCancelled:
		return fmt.Errorf("%w: task %s is %s", common.ErrInvalidInput, id, t.Status)
	}

	now := time.Now().UTC()
	t.Status = constants.TaskStatusInProgress
	if t.StartedAt == nil {
		t.StartedAt = &now
	}
	return nil
}

// CompleteTask completes a task, runs the unblock sweep, and archives the
// completed task if an archiver is configured. Archive failures are logged,
// never surfaced: the graph state is already consistent at that point.
func (s *Scheduler) CompleteTask(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	unblocked, err := s.graph.CompleteAndUnblock(id)
	var archived *entity.TaskItem
	if err == nil {
		if t, ok := s.graph.Get(id); ok {
			copied := *t
			archived = &copied
		}
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if len(unblocked) > 0 {
		s.logger.Info("tasks unblocked", "task_id", id, "unblocked", len(unblocked))
	}
	if s.archive != nil && archived != nil {
		if aerr := s.archive.Archive(ctx, *archived); aerr != nil {
			s.logger.Warn("task archive failed", "task_id", id, "err", aerr)
		}
	}
	return nil
}

// CancelTask marks a task cancelled. Tasks blocked on it stay blocked;
// cancellation does not satisfy a dependency.
func (s *Scheduler) CancelTask(id uuid.UUID) error {
	return s.setStatus(id, constants.TaskStatusCancelled)
}

// FailTask marks a task failed.
func (s *Scheduler) FailTask(id uuid.UUID) error {
	return s.setStatus(id, constants.TaskStatusFailed)
}

func (s *Scheduler) setStatus(id uuid.UUID, status constants.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.graph.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", common.ErrTaskNotFound, id)
	}
	if t.Status == constants.TaskStatusCompleted {
		return fmt.Errorf("%w: task %s already completed", common.ErrInvalidInput, id)
	}
	t.Status = status
	return nil
}

// Task returns a snapshot of a task by id.
func (s *Scheduler) Task(id uuid.UUID) (entity.TaskItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.graph.Get(id)
	if !ok {
		return entity.TaskItem{}, fmt.Errorf("%w: %s", common.ErrTaskNotFound, id)
	}
	return *t, nil
}

// Subtasks returns snapshots of the direct children of a task.
func (s *Scheduler) Subtasks(parentID uuid.UUID) []entity.TaskItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []entity.TaskItem
	for _, t := range s.allLocked() {
		if t.ParentID != nil && *t.ParentID == parentID {
			out = append(out, *t)
		}
	}
	return out
}

// Tasks returns snapshots of every known task, active and completed.
func (s *Scheduler) Tasks() []entity.TaskItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.allLocked()
	out := make([]entity.TaskItem, 0, len(all))
	for _, t := range all {
		out = append(out, *t)
	}
	return out
}

// CleanupCompleted removes completed tasks whose completion is older than
// the given age. This is the only path that removes tasks from the graph.
func (s *Scheduler) CleanupCompleted(olderThan time.Duration) int {
	cutoff := time.Now().UTC().Add(-olderThan)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, t := range s.graph.completed {
		if t.CompletedAt != nil && t.CompletedAt.Before(cutoff) {
			delete(s.graph.completed, id)
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("completed tasks pruned", "removed", removed)
	}
	return removed
}

func (s *Scheduler) allLocked() []*entity.TaskItem {
	all := s.graph.Active()
	return append(all, s.graph.Completed()...)
}
