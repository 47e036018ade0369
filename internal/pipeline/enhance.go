package pipeline

import (
	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/entity"
)

// EnhancedConfidence merges an original confidence with an enhancement
// re-run. Re-runs are not guaranteed strictly better, so the claimed
// improvement is capped at the tier's bonus and the original is a floor:
// the merged value never decreases.
func EnhancedConfidence(original, rerun float32, tier constants.ServiceTier) float32 {
	bonus := tier.EnhancementBonus()
	if bonus == 0 {
		return original
	}
	ceiling := original + bonus
	if ceiling > 1.0 {
		ceiling = 1.0
	}
	enhanced := rerun
	if enhanced > ceiling {
		enhanced = ceiling
	}
	if enhanced < original {
		return original
	}
	return enhanced
}

// mergeEnhanced folds a re-run into the original result, keeping the better
// text and the capped confidence.
func mergeEnhanced(original, rerun entity.OCRResult, tier constants.ServiceTier) entity.OCRResult {
	merged := original
	merged.Confidence = EnhancedConfidence(original.Confidence, rerun.Confidence, tier)
	if rerun.Confidence > original.Confidence && rerun.Text != "" {
		merged.Text = rerun.Text
		merged.Method = rerun.Method
		merged.Pages = rerun.Pages
	}
	merged.Enhanced = true
	return merged
}
