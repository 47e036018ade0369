package structured

import (
	"regexp"
	"strings"

	"github.com/docuflow/docuflow/internal/entity"
)

var (
	reCompany = regexp.MustCompile(`\b([A-Z][A-Za-z0-9&'.-]*(?:\s+[A-Z][A-Za-z0-9&'.-]*){0,4})[,]?\s+(Inc|LLC|Ltd|Corp|Co|GmbH|PLC|LLP)\.?\b`)
	rePerson  = regexp.MustCompile(`(?m)^(?:Attn|Bill To|Sold To|Customer|Name)\s*[:.]?\s+([A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,2})\s*$`)

	reAccountNo = regexp.MustCompile(`(?i)\b(?:acct|account|a/c)\s*(?:no\.?|number|#)?\s*[:\s]\s*([0-9Xx*\-]{4,24})`)
	reIBAN      = regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{10,30}\b`)
	reCardTail  = regexp.MustCompile(`(?i)(?:ending in|x{4}|\*{4})\s*(\d{4})\b`)
)

const (
	companyConfidence = 0.85
	personConfidence  = 0.6
	accountConfidence = 0.8
	ibanConfidence    = 0.9
	cardConfidence    = 0.7
)

// extractNames matches company references by legal suffix and person
// references behind common labels.
func extractNames(text string) []entity.Name {
	var out []entity.Name
	seen := map[string]struct{}{}

	for _, m := range reCompany.FindAllStringSubmatch(text, -1) {
		full := strings.TrimSpace(m[1] + " " + m[2])
		key := strings.ToLower(full)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entity.Name{Value: full, Role: entity.RoleCompany, Confidence: companyConfidence})
	}
	for _, m := range rePerson.FindAllStringSubmatch(text, -1) {
		key := strings.ToLower(m[1])
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, entity.Name{Value: m[1], Role: entity.RolePerson, Confidence: personConfidence})
	}
	return out
}

func extractAccounts(text string) []entity.Account {
	var out []entity.Account
	seen := map[string]struct{}{}

	add := func(number string, conf float32) {
		number = strings.TrimSpace(number)
		if number == "" {
			return
		}
		if _, dup := seen[number]; dup {
			return
		}
		seen[number] = struct{}{}
		out = append(out, entity.Account{Number: number, Confidence: conf})
	}

	for _, m := range reAccountNo.FindAllStringSubmatch(text, -1) {
		add(m[1], accountConfidence)
	}
	for _, m := range reIBAN.FindAllString(text, -1) {
		add(m, ibanConfidence)
	}
	for _, m := range reCardTail.FindAllStringSubmatch(text, -1) {
		add("****"+m[1], cardConfidence)
	}
	return out
}
