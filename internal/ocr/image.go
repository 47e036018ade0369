package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/common"
)

func (e *Engine) extractImage(ctx context.Context, path string) (Result, error) {
	txt, warn, err := e.tesseractOCR(ctx, path)
	if err != nil {
		return Result{SourceType: constants.IMAGE, Warnings: warn}, fmt.Errorf("%w: %v", common.ErrRecognitionFailed, err)
	}
	txt = Normalize(txt)

	// compute confidence; the same TSV pass yields the word boxes
	var ocrConf float32
	var regions []Region
	if e.cfg.EnableTSVConfidence {
		if c, regs, w, err2 := e.tesseractTSV(ctx, path, 1); err2 == nil {
			ocrConf = c
			regions = regs
			warn = append(warn, w...)
		} else {
			warn = append(warn, err2.Error())
		}
	}
	conf := blendConfidence(ocrConf, heuristicConfidence(txt))

	return Result{
		Text:       txt,
		Pages:      1,
		SourceType: constants.IMAGE,
		Method:     "image-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warn,
		Regions:    regions,
		Confidence: conf,
	}, nil
}

// blendConfidence weights the engine's word confidence over the text
// heuristic when both are available.
func blendConfidence(engineConf, heurConf float32) float32 {
	var conf float32
	if engineConf > 0 {
		conf = 0.7*engineConf + 0.3*heurConf
	} else {
		conf = heurConf
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}

func (e *Engine) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}

	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}

	// minor cleanup of obvious line noise
	txt := reBoxNoise.ReplaceAllString(string(out), "")
	return txt, nil, nil
}

// tesseractTSV runs tesseract in TSV mode and returns the mean word
// confidence in 0..1 plus one Region per recognized word on the given page.
func (e *Engine) tesseractTSV(ctx context.Context, path string, page int) (float32, []Region, []string, error) {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	// TSV output
	args = append(args, "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return 0, nil, []string{string(errb)}, fmt.Errorf("tesseract TSV: %w", err)
	}

	lines := strings.Split(string(out), "\n")
	// columns: level page block par line word left top width height conf text
	var sum, n float64
	var regions []Region
	for i, ln := range lines {
		if i == 0 || len(ln) == 0 {
			continue
		} // skip header
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[10]
		if confStr == "" || confStr == "-1" {
			continue
		}
		v, perr := strconv.ParseFloat(confStr, 64)
		if perr != nil {
			continue
		}
		sum += v
		n++

		word := strings.TrimSpace(cols[11])
		if word == "" {
			continue
		}
		left, _ := strconv.Atoi(cols[6])
		top, _ := strconv.Atoi(cols[7])
		width, _ := strconv.Atoi(cols[8])
		height, _ := strconv.Atoi(cols[9])
		regions = append(regions, Region{
			Text:       word,
			Page:       page,
			X:          left,
			Y:          top,
			Width:      width,
			Height:     height,
			Confidence: float32(v / 100.0),
		})
	}
	if n == 0 {
		return 0, nil, nil, nil
	}
	mean := sum / n // 0..100
	return float32(mean / 100.0), regions, nil, nil
}
