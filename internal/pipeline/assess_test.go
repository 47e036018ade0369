package pipeline

import (
	"testing"

	"github.com/docuflow/docuflow/internal/entity"
)

func TestAssess(t *testing.T) {
	tests := []struct {
		name        string
		confidence  float32
		wantEnhance bool
	}{
		{name: "below threshold", confidence: 0.5, wantEnhance: true},
		{name: "just below threshold", confidence: 0.79, wantEnhance: true},
		{name: "at threshold", confidence: 0.8, wantEnhance: false},
		{name: "above threshold", confidence: 0.95, wantEnhance: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Assess(entity.OCRResult{Confidence: tt.confidence})
			if a.NeedsEnhancement != tt.wantEnhance {
				t.Fatalf("NeedsEnhancement = %v, want %v", a.NeedsEnhancement, tt.wantEnhance)
			}
			if a.Confidence != tt.confidence {
				t.Fatalf("Confidence = %v, want %v", a.Confidence, tt.confidence)
			}
		})
	}
}
