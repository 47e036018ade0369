package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/docuflow/docuflow/internal/common"
)

// Runner lets us stub the external recognition tools in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// Per-invocation ceiling. A wedged binary must not absorb the whole
// document budget; the coordinator's advisory timeout assumes tool calls
// are individually bounded.
const defaultToolTimeout = 90 * time.Second

// execRunner shells out to pdftotext/pdftoppm/tesseract, bounding each call
// and folding failures into the recognition error taxonomy.
type execRunner struct {
	logger  *slog.Logger
	timeout time.Duration
}

func newExecRunner(logger *slog.Logger) execRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return execRunner{logger: logger, timeout: defaultToolTimeout}
}

func (r execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := toolError(cmd.Run(), ctx.Err(), name, r.timeout)
	elapsed := time.Since(start)

	if err != nil {
		r.logger.Error("recognition tool failed",
			"tool", name,
			"elapsed_ms", elapsed.Milliseconds(),
			"error", err,
			"stderr", clip(errb.String(), 8<<10),
		)
		return out.Bytes(), errb.Bytes(), err
	}

	r.logger.Debug("recognition tool ok",
		"tool", name,
		"elapsed_ms", elapsed.Milliseconds(),
		"stdout_bytes", out.Len(),
	)
	return out.Bytes(), errb.Bytes(), nil
}

// toolError maps a tool failure onto ErrRecognitionFailed. A deadline hit is
// reported as such; any other exit keeps the tool's own error text.
func toolError(runErr, ctxErr error, name string, timeout time.Duration) error {
	if runErr == nil {
		return nil
	}
	if ctxErr == context.DeadlineExceeded {
		return fmt.Errorf("%w: %s exceeded %s", common.ErrRecognitionFailed, name, timeout)
	}
	return fmt.Errorf("%w: %s: %v", common.ErrRecognitionFailed, name, runErr)
}

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
