package calculator

import (
	"fmt"

	"github.com/cypherlabdev/stake-calculator-service/internal/models"
)

// AdvisoryMessage renders the human-readable advice for a computed stake
func AdvisoryMessage(res *models.StakeResult) string {
	switch res.Advisory {
	case models.AdvisoryNoEdge:
		return fmt.Sprintf(
			"No value: your probability estimate (%s%%) does not exceed the implied probability (%s%%). Staking is not recommended.",
			res.Inputs.EstimatedProbabilityPct.String(),
			res.ImpliedProbabilityPct.StringFixed(1),
		)
	case models.AdvisorySmallEdge:
		return fmt.Sprintf(
			"Small value (%s%%). It may be worth looking for a better price.",
			res.EdgePct.StringFixed(1),
		)
	case models.AdvisoryGoodEdge:
		return fmt.Sprintf(
			"Good value: your estimate exceeds the implied probability by %s%%.",
			res.EdgePct.StringFixed(1),
		)
	default:
		return ""
	}
}
