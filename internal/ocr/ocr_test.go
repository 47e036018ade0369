package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/common"
)

// fakeRunner serves canned stdout per binary name and never shells out.
type fakeRunner struct {
	stdout map[string]string
	err    error
}

func (f fakeRunner) Run(_ context.Context, name string, _ ...string) ([]byte, []byte, error) {
	if f.err != nil {
		return nil, []byte("boom"), f.err
	}
	return []byte(f.stdout[name]), nil, nil
}

func TestExtractPlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	content := "Invoice 2024-01-02\nTotal $ 1,234.56 for services rendered this quarter"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewEngine(Config{}, nil)
	res, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != "plain-text" {
		t.Fatalf("Method = %q, want plain-text", res.Method)
	}
	if res.SourceType != constants.TEXT {
		t.Fatalf("SourceType = %q, want %q", res.SourceType, constants.TEXT)
	}
	if res.Pages != 1 {
		t.Fatalf("Pages = %d, want 1", res.Pages)
	}
	if !approx(res.Confidence, 0.98) {
		t.Fatalf("Confidence = %v, want 0.98", res.Confidence)
	}
}

func TestExtractPlainTextShort(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.txt")
	if err := os.WriteFile(path, []byte("ok"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewEngine(Config{}, nil)
	res, err := e.Extract(context.Background(), path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !approx(res.Confidence, 0.8) {
		t.Fatalf("Confidence = %v, want 0.8 for thin content", res.Confidence)
	}
}

func TestExtractPlainTextInvalidUTF8(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.txt")
	if err := os.WriteFile(path, []byte{0xff, 0xfe, 0xfd}, 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewEngine(Config{}, nil)
	_, err := e.Extract(context.Background(), path)
	if !errors.Is(err, common.ErrSourceLoadFailed) {
		t.Fatalf("err = %v, want ErrSourceLoadFailed", err)
	}
}

func TestExtractUnsupportedExtension(t *testing.T) {
	e := NewEngine(Config{}, nil)
	_, err := e.Extract(context.Background(), "report.docx")
	if !errors.Is(err, common.ErrUnsupportedFileType) {
		t.Fatalf("err = %v, want ErrUnsupportedFileType", err)
	}
}

func TestExtractImage(t *testing.T) {
	e := NewEngine(Config{}, nil).WithRunner(fakeRunner{stdout: map[string]string{
		"tesseract": "Total: $ 12.34",
	}})

	res, err := e.Extract(context.Background(), "scan.png")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if res.Method != "image-ocr" {
		t.Fatalf("Method = %q, want image-ocr", res.Method)
	}
	if res.Text != "Total: $ 12.34" {
		t.Fatalf("Text = %q", res.Text)
	}
	// TSV is off by default, so the heuristic is the whole score:
	// base 0.2 + currency 0.15 + amount 0.15.
	if !approx(res.Confidence, 0.5) {
		t.Fatalf("Confidence = %v, want 0.5", res.Confidence)
	}
}

func TestExtractImageFailure(t *testing.T) {
	e := NewEngine(Config{}, nil).WithRunner(fakeRunner{err: errors.New("exit status 1")})

	_, err := e.Extract(context.Background(), "scan.png")
	if !errors.Is(err, common.ErrRecognitionFailed) {
		t.Fatalf("err = %v, want ErrRecognitionFailed", err)
	}
}

func TestTesseractTSVRegions(t *testing.T) {
	tsv := "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
		"1\t1\t0\t0\t0\t0\t0\t0\t600\t800\t-1\t\n" +
		"5\t1\t1\t1\t1\t1\t10\t20\t100\t30\t91\tTotal:\n" +
		"5\t1\t1\t1\t1\t2\t120\t20\t80\t30\t85\t$12.34\n"
	e := NewEngine(Config{EnableTSVConfidence: true}, nil).
		WithRunner(fakeRunner{stdout: map[string]string{"tesseract": tsv}})

	conf, regions, _, err := e.tesseractTSV(context.Background(), "scan.png", 3)
	if err != nil {
		t.Fatalf("tesseractTSV: %v", err)
	}
	if !approx(conf, 0.88) {
		t.Fatalf("conf = %v, want mean 0.88", conf)
	}
	if len(regions) != 2 {
		t.Fatalf("regions = %d, want one per recognized word", len(regions))
	}
	first := regions[0]
	if first.Text != "Total:" || first.Page != 3 {
		t.Fatalf("regions[0] = %+v, want Total: on page 3", first)
	}
	if first.X != 10 || first.Y != 20 || first.Width != 100 || first.Height != 30 {
		t.Fatalf("regions[0] box = %+v, want 10/20/100x30", first)
	}
	if !approx(first.Confidence, 0.91) {
		t.Fatalf("regions[0] conf = %v, want 0.91", first.Confidence)
	}
}

func TestEnhancedConfig(t *testing.T) {
	cfg := Config{DPI: 300}.EnhancedConfig()
	if cfg.DPI != 600 {
		t.Fatalf("DPI = %d, want 600", cfg.DPI)
	}
	if cfg.OEM != 1 || cfg.PSM != 6 {
		t.Fatalf("OEM/PSM = %d/%d, want 1/6", cfg.OEM, cfg.PSM)
	}
	if !cfg.EnableTSVConfidence {
		t.Fatal("EnableTSVConfidence should be on for enhanced runs")
	}
}
