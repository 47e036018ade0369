package structured

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/docuflow/docuflow/internal/entity"
)

var (
	// currency marker followed by a number: "$ 1,234.56", "EUR 42", "£9.99"
	reSymAmount = regexp.MustCompile(`(?i)(USD|EUR|GBP|CAD|AUD|INR|JPY|[$£€¥])\s*(\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`)
	// bare decimal amounts: "1,234.56", "17.40" (two decimals required to
	// avoid matching quantities and years)
	reBareAmount = regexp.MustCompile(`\b\d{1,3}(?:,\d{3})*\.\d{2}\b`)
)

var symbolToCode = map[string]string{
	"$": "USD",
	"£": "GBP",
	"€": "EUR",
	"¥": "JPY",
}

// extractAmounts matches currency-agnostic numeric patterns. Matched amounts
// carry no confidence; presence is treated as certain once the pattern hits.
func extractAmounts(text string) []entity.Amount {
	var out []entity.Amount
	seen := map[string]struct{}{}

	add := func(raw, numeric, currency string) {
		v, err := strconv.ParseFloat(strings.ReplaceAll(numeric, ",", ""), 64)
		if err != nil {
			return
		}
		// Dedup by value alone: a bare match inside "$10.00" is the same
		// amount, not a second one.
		key := strconv.FormatFloat(v, 'f', 2, 64)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, entity.Amount{Raw: strings.TrimSpace(raw), Value: v, Currency: currency})
	}

	for _, m := range reSymAmount.FindAllStringSubmatch(text, -1) {
		marker := strings.ToUpper(m[1])
		code, ok := symbolToCode[m[1]]
		if !ok {
			code = marker
		}
		add(m[0], m[2], code)
	}
	for _, m := range reBareAmount.FindAllString(text, -1) {
		add(m, m, "")
	}
	return out
}
