package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/entity"
)

// DecompositionTag marks subtasks produced by decomposition.
const DecompositionTag = "decomposed"

// subtaskSpec is one row of the decomposition table: the subtask's title,
// its assigned level, and its share of the parent's estimate.
type subtaskSpec struct {
	Title string
	Level constants.ComplexityLevel
	Share float64
}

// decompositionTable is keyed by the parent's level. The assigned levels are
// always below the parent's, so recursive decomposition terminates. Adding a
// level is a data change here, not a new code branch.
var decompositionTable = map[constants.ComplexityLevel][]subtaskSpec{
	constants.Level5: {
		{Title: "Planning & Analysis", Level: constants.Level3, Share: 0.15},
		{Title: "Core Implementation", Level: constants.Level4, Share: 0.60},
		{Title: "Testing & Validation", Level: constants.Level3, Share: 0.15},
		{Title: "Integration & Cleanup", Level: constants.Level3, Share: 0.10},
	},
	constants.Level6: {
		{Title: "System Analysis", Level: constants.Level4, Share: 0.10},
		{Title: "Architecture Design", Level: constants.Level5, Share: 0.30},
		{Title: "Core Development", Level: constants.Level5, Share: 0.40},
		{Title: "Security Validation", Level: constants.Level4, Share: 0.05},
		{Title: "Integration Testing", Level: constants.Level4, Share: 0.10},
		{Title: "Documentation & Deployment", Level: constants.Level4, Share: 0.05},
	},
}

// Decompose breaks a high-level task into ordered subtasks per the fixed
// table for its level. Tasks below level 5 are returned untouched (nil).
// Each subtask inherits the parent's priority and tags, gains the
// decomposition marker tag, and points back via ParentID.
func Decompose(parent *entity.TaskItem) []entity.TaskItem {
	if !parent.Level.RequiresDecomposition() {
		return nil
	}
	specs := decompositionTable[parent.Level]
	now := time.Now().UTC()

	subtasks := make([]entity.TaskItem, 0, len(specs))
	for _, spec := range specs {
		tags := make([]string, 0, len(parent.Tags)+1)
		tags = append(tags, parent.Tags...)
		tags = append(tags, DecompositionTag)

		parentID := parent.ID
		subtasks = append(subtasks, entity.TaskItem{
			ID:                uuid.New(),
			Title:             spec.Title,
			Description:       fmt.Sprintf("%s for %q", spec.Title, parent.Title),
			Level:             spec.Level,
			Status:            constants.TaskStatusPending,
			Priority:          parent.Priority,
			EstimatedDuration: time.Duration(spec.Share * float64(parent.EstimatedDuration)),
			ParentID:          &parentID,
			Tags:              tags,
			CreatedAt:         now,
		})
	}
	return subtasks
}
