package ocr

import (
	"strings"
	"testing"
)

func TestHeuristicConfidence(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float32
	}{
		{name: "empty", text: "", want: 0.2},
		{name: "date only", text: "issued 2024-01-02", want: 0.4},
		{name: "currency only", text: "paid in usd", want: 0.35},
		{name: "amount only", text: "qty 17.40", want: 0.35},
		{name: "date and currency", text: "2024-01-02 $", want: 0.55},
		{name: "date currency amount", text: "2024-01-02 total $ 1,234.56", want: 0.7},
		{
			name: "all signals with long text",
			text: "Invoice 2024-01-02 total $ 1,234.56 " + strings.Repeat("lorem ipsum ", 10),
			want: 0.8,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := heuristicConfidence(tt.text)
			if !approx(got, tt.want) {
				t.Fatalf("heuristicConfidence(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestBlendConfidence(t *testing.T) {
	tests := []struct {
		name   string
		engine float32
		heur   float32
		want   float32
	}{
		{name: "both present", engine: 0.9, heur: 0.5, want: 0.78},
		{name: "engine missing", engine: 0, heur: 0.5, want: 0.5},
		{name: "capped at one", engine: 1.4, heur: 1.0, want: 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := blendConfidence(tt.engine, tt.heur)
			if !approx(got, tt.want) {
				t.Fatalf("blendConfidence(%v, %v) = %v, want %v", tt.engine, tt.heur, got, tt.want)
			}
		})
	}
}

func approx(got, want float32) bool {
	d := got - want
	if d < 0 {
		d = -d
	}
	return d < 1e-4
}
