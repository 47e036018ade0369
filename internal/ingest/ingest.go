// Package ingest discovers source documents on disk and prepares them for
// the pipeline: extension filtering, content hashing, and dedup by hash.
package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/entity"
)

type FileResult struct {
	Path         string
	DocumentID   uuid.UUID
	Deduplicated bool
	HashHex      string
	Err          string
}

type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// Scanner walks directories and turns files into documents. The dedup set
// spans the scanner's lifetime, so re-scanning a directory does not produce
// duplicate documents.
type Scanner struct {
	logger *slog.Logger
	seen   map[string]uuid.UUID // content hash -> first document id
}

func NewScanner(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		logger: logger,
		seen:   make(map[string]uuid.UUID),
	}
}

// ScanDirectory walks root, filters by includeExts (or the supported
// defaults), skips hidden entries if requested, and loads each match.
// Returns the new documents plus per-file results and aggregate stats.
// One unreadable file never aborts the walk.
func (s *Scanner) ScanDirectory(ctx context.Context, root string, docType constants.DocumentType, includeExts []string, skipHidden bool) ([]entity.Document, []FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, nil, DirStats{}, errors.New("root path is required")
	}

	exts := map[string]struct{}{}
	if len(includeExts) == 0 {
		for ext := range constants.AllowedExtensions {
			exts[ext] = struct{}{}
		}
	} else {
		for _, e := range includeExts {
			e = constants.NormalizeExt(e)
			if e != "" {
				exts[e] = struct{}{}
			}
		}
	}

	var docs []entity.Document
	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil // continue walking
		}
		if skipHidden && isHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		ext := constants.NormalizeExt(filepath.Ext(path))
		if _, ok := exts[ext]; !ok {
			return nil
		}
		stats.Matched++

		doc, hashHex, dedup, err := s.load(path, docType)
		if err != nil {
			results = append(results, FileResult{Path: path, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, FileResult{
			Path:         path,
			DocumentID:   doc.ID,
			Deduplicated: dedup,
			HashHex:      hashHex,
		})
		stats.Succeeded++
		if dedup {
			stats.Deduplicated++
			return nil
		}
		docs = append(docs, doc)
		return nil
	})

	if err != nil {
		return docs, results, stats, fmt.Errorf("walk: %w", err)
	}
	s.logger.Info("directory scanned",
		"root", root,
		"matched", stats.Matched,
		"loaded", len(docs),
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return docs, results, stats, nil
}

// load stats and hashes one file. A duplicate hash returns the id of the
// first document with that content.
func (s *Scanner) load(path string, docType constants.DocumentType) (entity.Document, string, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return entity.Document{}, "", false, fmt.Errorf("stat: %w", err)
	}

	sum, err := hashFile(path)
	if err != nil {
		return entity.Document{}, "", false, err
	}
	hashHex := hex.EncodeToString(sum)

	if firstID, ok := s.seen[hashHex]; ok {
		return entity.Document{ID: firstID}, hashHex, true, nil
	}

	if docType == "" {
		docType = InferDocumentType(path)
	}
	doc := entity.NewDocument(path, info.Size(), docType)
	doc.ContentHash = sum
	s.seen[hashHex] = doc.ID
	return doc, hashHex, false, nil
}

func hashFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return nil, fmt.Errorf("hash: %w", err)
	}
	return h.Sum(nil), nil
}

// InferDocumentType guesses the declared type from filename tokens. Callers
// that know the type should pass it to ScanDirectory instead.
func InferDocumentType(path string) constants.DocumentType {
	name := strings.ToLower(filepath.Base(path))
	for _, probe := range []string{"invoice", "receipt", "statement", "contract"} {
		if strings.Contains(name, probe) {
			if dt, ok := constants.CanonicalizeDocumentType(probe); ok {
				return dt
			}
		}
	}
	return constants.OtherDoc
}

func isHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}
