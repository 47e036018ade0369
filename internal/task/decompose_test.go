package task

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/entity"
)

func TestDecomposeBelowThresholdReturnsNil(t *testing.T) {
	for _, level := range []constants.ComplexityLevel{
		constants.Level1, constants.Level2, constants.Level3, constants.Level4,
	} {
		parent := &entity.TaskItem{ID: uuid.New(), Title: "small", Level: level}
		if got := Decompose(parent); got != nil {
			t.Fatalf("Decompose(level %d) = %d subtasks, want none", level, len(got))
		}
	}
}

func TestDecomposeLevel5(t *testing.T) {
	parent := &entity.TaskItem{
		ID:                uuid.New(),
		Title:             "Refactor importer",
		Level:             constants.Level5,
		Priority:          constants.PriorityHigh,
		EstimatedDuration: 1000 * time.Second,
		Tags:              []string{"infra"},
	}
	subtasks := Decompose(parent)
	if len(subtasks) != 4 {
		t.Fatalf("len = %d, want 4", len(subtasks))
	}

	wantTitles := []string{
		"Planning & Analysis",
		"Core Implementation",
		"Testing & Validation",
		"Integration & Cleanup",
	}
	wantEstimates := []time.Duration{
		150 * time.Second,
		600 * time.Second,
		150 * time.Second,
		100 * time.Second,
	}
	for i, st := range subtasks {
		if st.Title != wantTitles[i] {
			t.Fatalf("subtask %d title = %q, want %q", i, st.Title, wantTitles[i])
		}
		if st.EstimatedDuration != wantEstimates[i] {
			t.Fatalf("%s estimate = %v, want %v", st.Title, st.EstimatedDuration, wantEstimates[i])
		}
		if st.Level.RequiresDecomposition() {
			t.Fatalf("%s assigned level %d, level 5 children must be executable", st.Title, st.Level)
		}
		if st.ParentID == nil || *st.ParentID != parent.ID {
			t.Fatalf("%s ParentID = %v, want %s", st.Title, st.ParentID, parent.ID)
		}
		if st.Priority != constants.PriorityHigh {
			t.Fatalf("%s priority = %s, want inherited HIGH", st.Title, st.Priority)
		}
		if !st.HasTag("infra") || !st.HasTag(DecompositionTag) {
			t.Fatalf("%s tags = %v, want inherited plus marker", st.Title, st.Tags)
		}
		if st.Status != constants.TaskStatusPending {
			t.Fatalf("%s status = %s, want PENDING", st.Title, st.Status)
		}
	}
}

func TestDecomposeLevel6Estimates(t *testing.T) {
	parent := &entity.TaskItem{
		ID:                uuid.New(),
		Title:             "Rebuild platform",
		Level:             constants.Level6,
		EstimatedDuration: 3600 * time.Second,
	}
	subtasks := Decompose(parent)
	if len(subtasks) != 6 {
		t.Fatalf("len = %d, want 6", len(subtasks))
	}

	byTitle := map[string]entity.TaskItem{}
	for _, st := range subtasks {
		byTitle[st.Title] = st
	}
	if got := byTitle["Architecture Design"].EstimatedDuration; got != 1080*time.Second {
		t.Fatalf("Architecture Design estimate = %v, want 1080s", got)
	}
	if got := byTitle["Core Development"].EstimatedDuration; got != 1440*time.Second {
		t.Fatalf("Core Development estimate = %v, want 1440s", got)
	}
	if byTitle["Architecture Design"].Level != constants.Level5 {
		t.Fatalf("Architecture Design level = %d, want 5", byTitle["Architecture Design"].Level)
	}
	if byTitle["Security Validation"].Level != constants.Level4 {
		t.Fatalf("Security Validation level = %d, want 4", byTitle["Security Validation"].Level)
	}
}
