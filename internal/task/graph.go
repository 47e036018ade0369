package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/common"
	"github.com/docuflow/docuflow/internal/entity"
)

// Graph is the dependency structure over task items: an adjacency list
// keyed by task id, maintained in both directions so completion sweeps are
// O(outstanding edges). It is not safe for concurrent use; the Scheduler
// serializes access.
//
// CompleteAndUnblock is the only operation that removes edges, which keeps
// the unblock invariant testable in isolation.
type Graph struct {
	active    map[uuid.UUID]*entity.TaskItem
	completed map[uuid.UUID]*entity.TaskItem

	// blockedBy[t] is the set of tasks t still waits on.
	blockedBy map[uuid.UUID]map[uuid.UUID]struct{}
	// dependents[t] is the set of tasks waiting on t.
	dependents map[uuid.UUID]map[uuid.UUID]struct{}
}

func NewGraph() *Graph {
	return &Graph{
		active:     make(map[uuid.UUID]*entity.TaskItem),
		completed:  make(map[uuid.UUID]*entity.TaskItem),
		blockedBy:  make(map[uuid.UUID]map[uuid.UUID]struct{}),
		dependents: make(map[uuid.UUID]map[uuid.UUID]struct{}),
	}
}

// Add registers a task with the graph.
func (g *Graph) Add(t *entity.TaskItem) {
	g.active[t.ID] = t
}

// Get returns a task from the active or completed set.
func (g *Graph) Get(id uuid.UUID) (*entity.TaskItem, bool) {
	if t, ok := g.active[id]; ok {
		return t, true
	}
	t, ok := g.completed[id]
	return t, ok
}

// Active returns all not-yet-completed tasks.
func (g *Graph) Active() []*entity.TaskItem {
	out := make([]*entity.TaskItem, 0, len(g.active))
	for _, t := range g.active {
		out = append(out, t)
	}
	return out
}

// Completed returns all completed tasks.
func (g *Graph) Completed() []*entity.TaskItem {
	out := make([]*entity.TaskItem, 0, len(g.completed))
	for _, t := range g.completed {
		out = append(out, t)
	}
	return out
}

// AddDependency inserts an edge taskID -> dependsOn and forces taskID into
// the blocked state. A dependency on an already-completed task is satisfied
// and inserts nothing. Unknown ids, self references, and edges that would
// close a cycle are rejected.
func (g *Graph) AddDependency(taskID, dependsOn uuid.UUID) error {
	t, ok := g.active[taskID]
	if !ok {
		if _, done := g.completed[taskID]; done {
			return fmt.Errorf("%w: cannot block completed task %s", common.ErrInvalidInput, taskID)
		}
		return fmt.Errorf("%w: %s", common.ErrTaskNotFound, taskID)
	}
	if _, ok := g.Get(dependsOn); !ok {
		return fmt.Errorf("%w: %s", common.ErrTaskNotFound, dependsOn)
	}
	if taskID == dependsOn {
		return fmt.Errorf("%w: task %s cannot depend on itself", common.ErrCircularDependency, taskID)
	}
	if _, done := g.completed[dependsOn]; done {
		return nil
	}
	if g.reachable(dependsOn, taskID) {
		return fmt.Errorf("%w: %s -> %s", common.ErrCircularDependency, taskID, dependsOn)
	}

	if g.blockedBy[taskID] == nil {
		g.blockedBy[taskID] = make(map[uuid.UUID]struct{})
	}
	g.blockedBy[taskID][dependsOn] = struct{}{}
	if g.dependents[dependsOn] == nil {
		g.dependents[dependsOn] = make(map[uuid.UUID]struct{})
	}
	g.dependents[dependsOn][taskID] = struct{}{}

	t.Status = constants.TaskStatusBlocked
	t.Dependencies = appendUnique(t.Dependencies, dependsOn)
	return nil
}

// reachable reports whether target can be reached from start by following
// blocking edges.
func (g *Graph) reachable(start, target uuid.UUID) bool {
	if start == target {
		return true
	}
	visited := map[uuid.UUID]struct{}{start: {}}
	stack := []uuid.UUID{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for next := range g.blockedBy[cur] {
			if next == target {
				return true
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			stack = append(stack, next)
		}
	}
	return false
}

// CompleteAndUnblock marks a task completed and runs the unblock sweep:
// every dependent loses its edge to the task, and any dependent whose
// blocking set empties becomes pending immediately. Returns the ids that
// were unblocked.
func (g *Graph) CompleteAndUnblock(id uuid.UUID) ([]uuid.UUID, error) {
	t, ok := g.active[id]
	if !ok {
		if _, done := g.completed[id]; done {
			return nil, nil // already completed; idempotent
		}
		return nil, fmt.Errorf("%w: %s", common.ErrTaskNotFound, id)
	}

	now := time.Now().UTC()
	t.Status = constants.TaskStatusCompleted
	t.CompletedAt = &now
	if t.StartedAt != nil {
		t.ActualDuration = now.Sub(*t.StartedAt)
	}
	delete(g.active, id)
	g.completed[id] = t

	var unblocked []uuid.UUID
	for depID := range g.dependents[id] {
		set := g.blockedBy[depID]
		delete(set, id)
		if len(set) > 0 {
			continue
		}
		delete(g.blockedBy, depID)
		if dep, ok := g.active[depID]; ok && dep.Status == constants.TaskStatusBlocked {
			dep.Status = constants.TaskStatusPending
			unblocked = append(unblocked, depID)
		}
	}
	delete(g.dependents, id)
	return unblocked, nil
}

// BlockingSet returns the ids a task still waits on.
func (g *Graph) BlockingSet(id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(g.blockedBy[id]))
	for dep := range g.blockedBy[id] {
		out = append(out, dep)
	}
	return out
}

func appendUnique(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}
