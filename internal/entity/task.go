package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow/constants"
)

// TaskItem is one unit of work tracked by the scheduler. Level 5 and 6
// tasks must be decomposed into subtasks before execution.
type TaskItem struct {
	ID                uuid.UUID                 `json:"id"`
	Title             string                    `json:"title"`
	Description       string                    `json:"description"`
	Level             constants.ComplexityLevel `json:"level"`
	Status            constants.TaskStatus      `json:"status"`
	Priority          constants.Priority        `json:"priority"`
	EstimatedDuration time.Duration             `json:"estimated_duration"`
	ActualDuration    time.Duration             `json:"actual_duration"`
	ParentID          *uuid.UUID                `json:"parent_id,omitempty"`
	Dependencies      []uuid.UUID               `json:"dependencies,omitempty"`
	Tags              []string                  `json:"tags,omitempty"`
	CreatedAt         time.Time                 `json:"created_at"`
	StartedAt         *time.Time                `json:"started_at,omitempty"`
	CompletedAt       *time.Time                `json:"completed_at,omitempty"`
}

// HasTag reports whether the task carries the given tag.
func (t *TaskItem) HasTag(tag string) bool {
	for _, tg := range t.Tags {
		if tg == tag {
			return true
		}
	}
	return false
}

// TaskAnalytics is recomputed on demand from the active and completed sets;
// it is never maintained incrementally.
type TaskAnalytics struct {
	TotalTasks            int                               `json:"total_tasks"`
	CompletedTasks        int                               `json:"completed_tasks"`
	PendingTasks          int                               `json:"pending_tasks"`
	InProgressTasks       int                               `json:"in_progress_tasks"`
	BlockedTasks          int                               `json:"blocked_tasks"`
	CompletionRate        float64                           `json:"completion_rate"`
	AverageCompletionTime time.Duration                     `json:"average_completion_time"`
	TaskEfficiencyRatio   float64                           `json:"task_efficiency_ratio"`
	ByPriority            map[constants.Priority]int        `json:"by_priority"`
	ByLevel               map[constants.ComplexityLevel]int `json:"by_level"`
	GeneratedAt           time.Time                         `json:"generated_at"`
}
