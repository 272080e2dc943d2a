package promotion

import (
	"sort"

	"school_sms/backend/internal/shared"
)

// AssignRanks orders the evaluated cohort descending by total obtained
// marks and assigns dense 1-based ranks. Ties keep encounter order (stable
// sort); rank is cohort-relative and recomputed on every evaluation pass,
// never persisted.
func AssignRanks(cands []shared.PromotionCandidate) {
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].TotalObtained > cands[j].TotalObtained
	})
	for i := range cands {
		cands[i].Rank = int32(i + 1)
	}
}
