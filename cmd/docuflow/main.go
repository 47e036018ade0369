package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/async"
	"github.com/docuflow/docuflow/internal/common"
	"github.com/docuflow/docuflow/internal/entity"
	"github.com/docuflow/docuflow/internal/export"
	"github.com/docuflow/docuflow/internal/extract"
	"github.com/docuflow/docuflow/internal/extract/structured"
	"github.com/docuflow/docuflow/internal/ingest"
	"github.com/docuflow/docuflow/internal/notify"
	"github.com/docuflow/docuflow/internal/ocr"
	"github.com/docuflow/docuflow/internal/pipeline"
	"github.com/docuflow/docuflow/internal/repository"
	"github.com/docuflow/docuflow/internal/service"
	"github.com/docuflow/docuflow/internal/task"
	"github.com/docuflow/docuflow/internal/taskstore"
	"github.com/docuflow/docuflow/internal/validate"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir     = flag.String("dir", "", "directory to process documents from (required)")
		out     = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		docType = flag.String("type", "", "declared document type: invoice|receipt|statement|contract (optional, inferred per file when empty)")
		tier    = flag.String("tier", "", "service tier: standard|advanced|ml (overrides SERVICE_TIER)")
		workers = flag.Int("workers", 0, "max concurrent documents (overrides PIPELINE_MAX_WORKERS)")
		stream  = flag.Bool("stream", false, "feed documents through the worker queue instead of a single batch pass")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		parentDir := filepath.Dir(*dir)
		*out = filepath.Join(parentDir, "docuflow.xlsx")
	}

	// .env is optional; environment wins where both are set.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()

	cfg := common.LoadConfig()
	if *tier != "" {
		cfg.Pipeline.Tier = *tier
	}
	if *workers > 0 {
		cfg.Pipeline.MaxWorkers = *workers
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	serviceTier := constants.ParseTier(cfg.Pipeline.Tier)

	var declaredType constants.DocumentType
	if *docType != "" {
		dt, ok := constants.CanonicalizeDocumentType(*docType)
		if !ok {
			printError("Error: unknown document type %q (known: %s)\n", *docType, strings.Join(constants.DocumentTypes(), ", "))
			os.Exit(1)
		}
		declaredType = dt
	}

	// Recognition engine and pipeline wiring.
	engine := ocr.NewEngine(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
		TessdataDir:   cfg.OCR.TessdataDir,
	}, logger)

	validator, err := validate.NewEngine(validate.Config{
		DefaultThreshold: cfg.Pipeline.ValidationThreshold,
		Tier:             serviceTier,
	}, logger)
	if err != nil {
		logger.Error("failed to build validation engine", "error", err)
		os.Exit(1)
	}

	coordinator := pipeline.NewCoordinator(
		extract.NewOCRAdapter(engine),
		structured.NewExtractor(logger),
		validator,
		notify.NewLogSink(logger),
		logger,
		pipeline.Config{
			Tier:            serviceTier,
			MaxWorkers:      cfg.Pipeline.MaxWorkers,
			MaxRecognition:  int64(cfg.Pipeline.MaxRecognition),
			DocumentTimeout: cfg.Pipeline.DocumentTimeout,
		},
	)

	// Task tracking with a local archive for completed work.
	archive, err := taskstore.Open(cfg.Archive.Path, logger)
	if err != nil {
		logger.Error("failed to open task archive", "error", err)
		os.Exit(1)
	}
	defer func() { _ = archive.Close() }()
	tasks := service.NewTaskService(task.NewScheduler(archive, logger), logger)

	// Discover documents.
	scanner := ingest.NewScanner(logger)
	logger.Info("starting ingestion", "dir", *dir)
	docs, fileResults, stats, err := scanner.ScanDirectory(ctx, *dir, declaredType, nil, true)
	if err != nil {
		logger.Error("failed to scan directory", "error", err)
		os.Exit(1)
	}
	logger.Info("ingestion complete",
		"files_loaded", len(docs),
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated)
	for _, fr := range fileResults {
		if fr.Err != "" {
			logger.Warn("file skipped", "path", fr.Path, "error", fr.Err)
		}
	}
	if len(docs) == 0 {
		printError("No processable documents found under %s\n", *dir)
		os.Exit(1)
	}

	// Track the batch as a work item; large batches decompose automatically.
	batchTask, err := tasks.CreateTask(task.CreateParams{
		Title:       fmt.Sprintf("Process %s", filepath.Base(*dir)),
		Description: fmt.Sprintf("Batch of %d documents from %s", len(docs), *dir),
		Level:       batchComplexity(len(docs)),
		Priority:    constants.PriorityMedium,
		Estimate:    time.Duration(len(docs)) * cfg.Pipeline.DocumentTimeout,
		Tags:        []string{"batch"},
	})
	if err != nil {
		logger.Error("failed to create batch task", "error", err)
		os.Exit(1)
	}
	if err := tasks.StartTask(batchTask.ID); err != nil {
		logger.Warn("failed to start batch task", "task_id", batchTask.ID, "error", err)
	}

	// Run the pipeline.
	state := pipeline.NewWorkflowState()
	var results []entity.PipelineResult
	if *stream {
		results = runStreamed(ctx, coordinator, state, docs, cfg.Pipeline.MaxWorkers, cfg.Pipeline.DocumentTimeout, logger)
	} else {
		results = coordinator.ProcessBatch(ctx, state, docs)
	}

	if err := tasks.CompleteTask(ctx, batchTask.ID); err != nil {
		logger.Warn("failed to complete batch task", "task_id", batchTask.ID, "error", err)
	}

	if metrics, review, ok := state.QualityMetrics(); ok {
		logger.Info("batch quality",
			"overall_score", metrics.OverallScore,
			"accuracy", metrics.AccuracyScore,
			"completeness", metrics.CompletenessScore,
			"consistency", metrics.ConsistencyScore,
			"review_status", review,
			"transactions", len(state.Transactions()))
	}
	if _, err := archive.PruneOlderThan(ctx, cfg.Archive.MaxAge); err != nil {
		logger.Warn("failed to prune task archive", "error", err)
	}

	// Persist runs when a database is configured.
	if cfg.Database.DSN != "" {
		pool, err := repository.Open(ctx, repository.Config{
			DSN:             cfg.Database.DSN,
			MaxConns:        cfg.Database.MaxConns,
			MinConns:        cfg.Database.MinConns,
			MaxConnLifetime: cfg.Database.MaxConnLifetime,
			MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
			DialTimeout:     cfg.Database.DialTimeout,
		}, logger)
		if err != nil {
			logger.Error("failed to connect run sink", "error", err)
		} else {
			defer repository.Close(pool, logger)
			runs := repository.NewRunRepository(pool, logger)
			if err := runs.EnsureSchema(ctx); err != nil {
				logger.Error("failed to prepare run sink", "error", err)
			} else if err := runs.SaveBatch(ctx, docs, results); err != nil {
				logger.Error("failed to save runs", "error", err)
			}
		}
	}

	// Export the workbook.
	analytics := tasks.Analytics()
	exportService := export.NewService(logger)
	xlsxBytes, err := exportService.ExportResultsXLSX(docs, results, &analytics)
	if err != nil {
		logger.Error("failed to export results", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	completed := 0
	failures := 0
	for _, r := range results {
		if r.Succeeded() {
			completed++
		}
		if r.Status == constants.DocStatusFailed {
			failures++
		}
	}
	logger.Info("batch processing complete",
		"documents", len(docs),
		"completed", completed,
		"failures", failures,
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Documents: %d\n", len(docs))
	fmt.Printf("- Completed: %d\n", completed)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Output: %s\n", *out)
}

// runStreamed pushes every document through the worker queue and drains it.
// Results come back in the same order as docs; a document the queue dropped
// is reported as a failed run rather than a missing row.
func runStreamed(ctx context.Context, coordinator *pipeline.Coordinator, state *pipeline.WorkflowState, docs []entity.Document, workers int, timeout time.Duration, logger *slog.Logger) []entity.PipelineResult {
	var mu sync.Mutex
	byDoc := make(map[uuid.UUID]entity.PipelineResult, len(docs))

	proc := async.ProcessorFunc(func(ctx context.Context, doc entity.Document) entity.PipelineResult {
		res := coordinator.ProcessDocument(ctx, state, doc)
		mu.Lock()
		byDoc[doc.ID] = res
		mu.Unlock()
		return res
	})
	queue := async.NewDocumentQueue(proc, logger,
		async.WithWorkers(workers),
		async.WithQueueSize(len(docs)),
		async.WithProcessTimeout(timeout))

	for _, doc := range docs {
		if err := queue.Enqueue(ctx, async.Job{Document: doc, SubmittedAt: time.Now()}); err != nil {
			logger.Warn("failed to enqueue document", "document_id", doc.ID, "error", err)
		}
	}
	queue.Shutdown(ctx)

	results := make([]entity.PipelineResult, len(docs))
	mu.Lock()
	for i, doc := range docs {
		res, ok := byDoc[doc.ID]
		if !ok {
			res = entity.PipelineResult{
				DocumentID: doc.ID,
				Status:     constants.DocStatusFailed,
				Err: &entity.ProcessingError{
					DocumentID: doc.ID,
					Stage:      constants.StagePipeline,
					Message:    "document was never processed before shutdown",
					Severity:   entity.ErrorHigh,
					Timestamp:  time.Now().UTC(),
				},
			}
		}
		results[i] = res
	}
	mu.Unlock()

	coordinator.Summarize(state, results)
	return results
}

// batchComplexity grades a batch by size; large batches must be decomposed
// before they can be tracked meaningfully.
func batchComplexity(n int) constants.ComplexityLevel {
	switch {
	case n >= 50:
		return constants.Level6
	case n >= 20:
		return constants.Level5
	case n >= 10:
		return constants.Level4
	case n >= 5:
		return constants.Level3
	case n >= 2:
		return constants.Level2
	default:
		return constants.Level1
	}
}
