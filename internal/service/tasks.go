// Package service fronts the core packages for transports that speak gRPC
// status codes. The internal error taxonomy stays inside; callers on this
// boundary see codes they can act on.
package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow/internal/common"
	"github.com/docuflow/docuflow/internal/entity"
	"github.com/docuflow/docuflow/internal/task"
)

// TaskService exposes the scheduler with status-coded errors.
type TaskService struct {
	sched  *task.Scheduler
	logger *slog.Logger
}

func NewTaskService(sched *task.Scheduler, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{sched: sched, logger: logger}
}

func (s *TaskService) CreateTask(params task.CreateParams) (entity.TaskItem, error) {
	t, err := s.sched.CreateTask(params)
	if err != nil {
		return entity.TaskItem{}, common.StatusFromError(err)
	}
	return t, nil
}

func (s *TaskService) DecomposeTask(id uuid.UUID) ([]entity.TaskItem, error) {
	if id == uuid.Nil {
		return nil, common.InvalidArgumentErrorf("task id is required")
	}
	subs, err := s.sched.DecomposeTask(id)
	if err != nil {
		return nil, common.StatusFromError(err)
	}
	return subs, nil
}

func (s *TaskService) AddDependency(taskID, dependsOn uuid.UUID) error {
	if taskID == uuid.Nil || dependsOn == uuid.Nil {
		return common.InvalidArgumentErrorf("both task ids are required")
	}
	return common.StatusFromError(s.sched.AddDependency(taskID, dependsOn))
}

func (s *TaskService) StartTask(id uuid.UUID) error {
	return common.StatusFromError(s.sched.StartTask(id))
}

func (s *TaskService) CompleteTask(ctx context.Context, id uuid.UUID) error {
	return common.StatusFromError(s.sched.CompleteTask(ctx, id))
}

func (s *TaskService) CancelTask(id uuid.UUID) error {
	return common.StatusFromError(s.sched.CancelTask(id))
}

func (s *TaskService) Task(id uuid.UUID) (entity.TaskItem, error) {
	t, err := s.sched.Task(id)
	if err != nil {
		return entity.TaskItem{}, common.StatusFromError(err)
	}
	return t, nil
}

func (s *TaskService) Subtasks(parentID uuid.UUID) []entity.TaskItem {
	return s.sched.Subtasks(parentID)
}

func (s *TaskService) Analytics() entity.TaskAnalytics {
	return s.sched.GenerateAnalytics()
}
