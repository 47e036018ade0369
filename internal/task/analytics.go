package task

import (
	"time"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/entity"
)

// GenerateAnalytics recomputes workload metrics from the live graph. Nothing
// is cached: every call reflects the graph at the moment of the call.
func (s *Scheduler) GenerateAnalytics() entity.TaskAnalytics {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.allLocked()

	a := entity.TaskAnalytics{
		TotalTasks:  len(all),
		ByPriority:  make(map[constants.Priority]int),
		ByLevel:     make(map[constants.ComplexityLevel]int),
		GeneratedAt: time.Now().UTC(),
	}

	var completed int
	var completionSum time.Duration
	var completionN int
	var estimatedSum, actualSum time.Duration

	for _, t := range all {
		a.ByPriority[t.Priority]++
		a.ByLevel[t.Level]++

		switch t.Status {
		case constants.TaskStatusCompleted:
			completed++
			if t.StartedAt != nil && t.CompletedAt != nil {
				completionSum += t.CompletedAt.Sub(*t.StartedAt)
				completionN++
			}
			if t.ActualDuration > 0 {
				estimatedSum += t.EstimatedDuration
				actualSum += t.ActualDuration
			}
		case constants.TaskStatusBlocked:
			a.BlockedTasks++
		case constants.TaskStatusInProgress:
			a.InProgressTasks++
		case constants.TaskStatusPending:
			a.PendingTasks++
		}
	}

	a.CompletedTasks = completed
	if len(all) > 0 {
		a.CompletionRate = float64(completed) / float64(len(all))
	}
	if completionN > 0 {
		a.AverageCompletionTime = completionSum / time.Duration(completionN)
	}
	// Efficiency above 1.0 means tasks finish faster than estimated.
	if actualSum > 0 {
		a.TaskEfficiencyRatio = float64(estimatedSum) / float64(actualSum)
	}
	return a
}
