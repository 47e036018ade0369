package constants

import "strings"

// ServiceTier gates the higher-cost processing paths. It is a policy knob,
// not an error path: a tier that disallows a feature simply skips it.
type ServiceTier string

const (
	TierStandard ServiceTier = "standard"
	TierAdvanced ServiceTier = "advanced"
	TierML       ServiceTier = "ml"
)

// ParseTier maps a free-form label to a known tier, defaulting to standard.
func ParseTier(s string) ServiceTier {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(TierAdvanced):
		return TierAdvanced
	case string(TierML), "ml-corrected":
		return TierML
	default:
		return TierStandard
	}
}

// AllowsEnhancement reports whether the tier permits recognition re-runs.
func (t ServiceTier) AllowsEnhancement() bool {
	return t == TierAdvanced || t == TierML
}

// AllowsCompliance reports whether the tier permits compliance sub-checks.
func (t ServiceTier) AllowsCompliance() bool {
	return t == TierAdvanced || t == TierML
}

// EnhancementBonus is the cap on the confidence improvement an enhancement
// re-run may claim over the original result.
func (t ServiceTier) EnhancementBonus() float32 {
	switch t {
	case TierAdvanced:
		return 0.10
	case TierML:
		return 0.15
	default:
		return 0
	}
}
