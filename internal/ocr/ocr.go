package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/common"
)

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned pages, default 300
	MaxPages      int    // OCR page cap for cost control, default 10

	TessdataDir         string
	EnableTSVConfidence bool

	PSM int // 6 works well for a uniform block of text
	OEM int // 1 = LSTM; 0 uses the engine default
}

// Region is one recognized word with its bounding box, in page pixels at
// the rasterization DPI. Only the TSV path produces regions.
type Region struct {
	Text       string
	Page       int
	X          int
	Y          int
	Width      int
	Height     int
	Confidence float32
}

// Result is the outcome of one extraction attempt.
type Result struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE | constants.TEXT
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr" | "plain-text"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Regions    []Region
	Confidence float32
}

// Engine extracts text from source documents, picking a strategy per format.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	return &Engine{cfg: cfg, runner: newExecRunner(logger), logger: logger}
}

// EnhancedConfig derives a higher-cost configuration for re-runs: finer
// rasterization, LSTM engine, uniform-block segmentation, word confidences on.
func (c Config) EnhancedConfig() Config {
	out := c
	out.DPI = 600
	out.OEM = 1
	out.PSM = 6
	out.EnableTSVConfidence = true
	return out
}

// WithRunner swaps the command runner; used by tests to stub external tools.
func (e *Engine) WithRunner(r Runner) *Engine {
	e.runner = r
	return e
}

// Config returns the engine's effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// Extract picks a strategy based on the file extension.
//
// PDFs try the native text layer first and fall back to rasterized OCR when
// the trimmed native text is empty. Images go straight to OCR. Plain text is
// decoded as UTF-8. Anything else fails with ErrUnsupportedFileType.
func (e *Engine) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("starting text extraction", "path", path, "ext", ext)
	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err := e.extractPDF(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		res, err := e.extractImage(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.TEXT:
		res, err := e.extractPlainText(path)
		res.Duration = time.Since(start)
		return res, err
	default:
		e.logger.Error("unsupported extension", "extension", ext)
		return Result{}, fmt.Errorf("%w: %q", common.ErrUnsupportedFileType, ext)
	}
}

func (e *Engine) extractPlainText(path string) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{SourceType: constants.TEXT}, fmt.Errorf("%w: %v", common.ErrSourceLoadFailed, err)
	}
	if !utf8.Valid(raw) {
		return Result{SourceType: constants.TEXT}, fmt.Errorf("%w: not valid UTF-8", common.ErrSourceLoadFailed)
	}
	txt := Normalize(string(raw))
	return Result{
		Text:       txt,
		Pages:      1,
		SourceType: constants.TEXT,
		Method:     "plain-text",
		Confidence: plainTextConfidence(txt),
	}, nil
}

// plainTextConfidence rates decoded text: a clean decode is near-certain,
// scaled down only when the content is too thin to judge.
func plainTextConfidence(txt string) float32 {
	if len(txt) == 0 {
		return 0
	}
	if len(txt) < 40 {
		return 0.8
	}
	return 0.98
}
