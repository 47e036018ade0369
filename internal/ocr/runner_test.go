package ocr

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/docuflow/docuflow/internal/common"
)

func TestToolError(t *testing.T) {
	if err := toolError(nil, nil, "tesseract", time.Second); err != nil {
		t.Fatalf("toolError(nil) = %v, want nil", err)
	}

	err := toolError(errors.New("signal: killed"), context.DeadlineExceeded, "tesseract", 90*time.Second)
	if !errors.Is(err, common.ErrRecognitionFailed) {
		t.Fatalf("deadline err = %v, want ErrRecognitionFailed", err)
	}
	if !strings.Contains(err.Error(), "exceeded 1m30s") {
		t.Fatalf("deadline err = %q, want the timeout named", err)
	}

	err = toolError(errors.New("exit status 1"), nil, "pdftoppm", 0)
	if !errors.Is(err, common.ErrRecognitionFailed) {
		t.Fatalf("exit err = %v, want ErrRecognitionFailed", err)
	}
	if !strings.Contains(err.Error(), "pdftoppm") {
		t.Fatalf("exit err = %q, want the tool named", err)
	}
}

func TestNewExecRunnerDefaults(t *testing.T) {
	r := newExecRunner(nil)
	if r.timeout != defaultToolTimeout {
		t.Fatalf("timeout = %s, want %s", r.timeout, defaultToolTimeout)
	}
	if r.logger == nil {
		t.Fatal("nil logger must fall back to the default")
	}
}

func TestClip(t *testing.T) {
	if got := clip("short", 16); got != "short" {
		t.Fatalf("clip = %q", got)
	}
	got := clip(strings.Repeat("x", 32), 16)
	if !strings.HasSuffix(got, "...(truncated)") || len(got) != 16+len("...(truncated)") {
		t.Fatalf("clip long = %q", got)
	}
}
