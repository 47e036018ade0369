package structured

import (
	"regexp"
	"time"

	"github.com/docuflow/docuflow/internal/entity"
)

// datePattern couples a matcher with the layouts that can parse its matches
// and the confidence assigned to a successful parse. Ambiguous numeric
// formats score lower than unambiguous ones.
type datePattern struct {
	re         *regexp.Regexp
	layouts    []string
	confidence float32
}

var datePatterns = []datePattern{
	{
		re:         regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		layouts:    []string{"2006-01-02"},
		confidence: 0.95,
	},
	{
		re:         regexp.MustCompile(`\b(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{1,2},?\s+\d{4}\b`),
		layouts:    []string{"Jan 2, 2006", "Jan 2 2006", "January 2, 2006", "January 2 2006"},
		confidence: 0.9,
	},
	{
		re:         regexp.MustCompile(`\b\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\.?\s+\d{4}\b`),
		layouts:    []string{"2 Jan 2006", "2 January 2006"},
		confidence: 0.9,
	},
	{
		// month-first vs day-first is undecidable without locale; parse
		// month-first, fall back to day-first, and score accordingly.
		re:         regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
		layouts:    []string{"1/2/2006", "2/1/2006"},
		confidence: 0.7,
	},
	{
		re:         regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\.\d{4}\b`),
		layouts:    []string{"2.1.2006", "1.2.2006"},
		confidence: 0.75,
	},
}

// extractDates matches multiple locale formats and normalizes each hit to a
// canonical calendar date (midnight UTC). Duplicate dates are collapsed,
// keeping the highest-confidence match.
func extractDates(text string) []entity.Date {
	best := map[string]entity.Date{}
	var order []string

	for _, p := range datePatterns {
		for _, raw := range p.re.FindAllString(text, -1) {
			t, ok := parseAny(raw, p.layouts)
			if !ok {
				continue
			}
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			key := day.Format("2006-01-02")
			if cur, exists := best[key]; exists {
				if p.confidence <= cur.Confidence {
					continue
				}
			} else {
				order = append(order, key)
			}
			best[key] = entity.Date{Raw: raw, Value: day, Confidence: p.confidence}
		}
	}

	out := make([]entity.Date, 0, len(order))
	for _, key := range order {
		out = append(out, best[key])
	}
	return out
}

func parseAny(raw string, layouts []string) (time.Time, bool) {
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
