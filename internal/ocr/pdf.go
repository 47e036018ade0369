package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/common"
)

func (e *Engine) extractPDF(ctx context.Context, path string) (Result, error) {
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return Result{SourceType: constants.PDF}, fmt.Errorf("%w: %v", common.ErrSourceLoadFailed, err)
	}

	// Native text layer first.
	text, warns, err := e.pdfToText(ctx, path)
	if err == nil && strings.TrimSpace(text) != "" {
		txt := Normalize(text)
		return Result{
			Text:       txt,
			Pages:      pageCount,
			SourceType: constants.PDF,
			Method:     "pdf-text",
			Language:   e.cfg.TesseractLang,
			Warnings:   warns,
			Confidence: nativeTextConfidence(txt),
		}, nil
	}
	if err != nil {
		warns = append(warns, err.Error())
	}

	// Empty or unreadable text layer: rasterize and OCR.
	res, err := e.pdfToOCR(ctx, path, pageCount)
	res.Warnings = append(warns, res.Warnings...)
	return res, err
}

func (e *Engine) pdfToText(ctx context.Context, path string) (text string, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", []string{string(errb)}, err
	}
	return string(out), nil, nil
}

func (e *Engine) pdfToOCR(ctx context.Context, path string, pageCount int) (Result, error) {
	tmpDir, err := os.MkdirTemp("", "df-pp-*")
	if err != nil {
		return Result{SourceType: constants.PDF}, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", rmErr)
		}
	}()

	// Cap rasterization at the first MaxPages pages for cost control.
	lastPage := pageCount
	if lastPage > e.cfg.MaxPages {
		lastPage = e.cfg.MaxPages
	}

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -f 1 -l <lastPage> -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm,
		"-r", fmt.Sprintf("%d", e.cfg.DPI),
		"-f", "1", "-l", fmt.Sprintf("%d", lastPage),
		"-png", path, prefix)
	if err != nil {
		return Result{SourceType: constants.PDF}, fmt.Errorf("%w: %v (%s)", common.ErrRecognitionFailed, err, string(errb))
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) > lastPage {
		matches = matches[:lastPage]
	}
	if len(matches) == 0 {
		return Result{SourceType: constants.PDF}, fmt.Errorf("%w: no pages rendered", common.ErrRecognitionFailed)
	}

	var b strings.Builder
	var warns []string
	var regions []Region
	var confSum float64
	var confN int
	for i, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n") // keep a clear page break marker
		}
		b.WriteString(txt)
		warns = append(warns, w...)

		if e.cfg.EnableTSVConfidence {
			if c, regs, _, cErr := e.tesseractTSV(ctx, img, i+1); cErr == nil && c > 0 {
				confSum += float64(c)
				confN++
				regions = append(regions, regs...)
			}
		}
	}

	txt := Normalize(b.String())
	conf := blendConfidence(pageMeanConfidence(confSum, confN), heuristicConfidence(txt))

	return Result{
		Text:       txt,
		Pages:      len(matches),
		SourceType: constants.PDF,
		Method:     "pdf-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warns,
		Regions:    regions,
		Confidence: conf,
	}, nil
}

func pageMeanConfidence(sum float64, n int) float32 {
	if n == 0 {
		return 0
	}
	return float32(sum / float64(n))
}

// nativeTextConfidence rates an embedded text layer. The layer is authored,
// not recognized, so the floor is high; thin output still drags it down.
func nativeTextConfidence(txt string) float32 {
	conf := float32(0.9)
	if h := heuristicConfidence(txt); h > 0.5 {
		conf += 0.05
	}
	if len(txt) < 40 {
		conf = 0.6
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}
