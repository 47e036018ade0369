package constants

// TaskStatus is the lifecycle state of a work item.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusBlocked    TaskStatus = "BLOCKED"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
	TaskStatusFailed     TaskStatus = "FAILED"
)

// Priority orders tasks for reporting; it does not influence scheduling.
type Priority string

const (
	PriorityLow      Priority = "LOW"
	PriorityMedium   Priority = "MEDIUM"
	PriorityHigh     Priority = "HIGH"
	PriorityCritical Priority = "CRITICAL"
)

// ComplexityLevel grades a work item from trivial (1) to system-wide (6).
// Levels 5 and 6 are too coarse to execute directly and must be broken down.
type ComplexityLevel int

const (
	Level1 ComplexityLevel = 1
	Level2 ComplexityLevel = 2
	Level3 ComplexityLevel = 3
	Level4 ComplexityLevel = 4
	Level5 ComplexityLevel = 5
	Level6 ComplexityLevel = 6
)

// RequiresDecomposition reports whether tasks at this level must be split
// into subtasks before execution.
func (l ComplexityLevel) RequiresDecomposition() bool {
	return l >= Level5
}

// Valid reports whether the level is within the supported 1..6 range.
func (l ComplexityLevel) Valid() bool {
	return l >= Level1 && l <= Level6
}
