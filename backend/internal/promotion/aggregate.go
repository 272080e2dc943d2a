package promotion

import (
	"math"

	"school_sms/backend/internal/shared"
)

// Evaluate computes a candidate's aggregate totals, percentages, overall
// grade, and pass/fail status under the given policy, mutating the
// candidate in place and moving it to an evaluated status.
//
// A candidate with no subject scores at all gets the N/A sentinel and can
// never pass; no arithmetic runs for it.
func Evaluate(cand *shared.PromotionCandidate, policy shared.PromotionPolicy) {
	if len(cand.SubjectScores) == 0 {
		cand.TotalObtained = 0
		cand.TotalPossible = 0
		cand.AveragePercentage = 0
		cand.AverageGradePoint = 0
		cand.OverallGrade = shared.GradeNA
		cand.Passed = false
		cand.Status = shared.StatusFailed
		return
	}

	var (
		totalObtained float64
		totalPossible float64
		pctSum        float64
		gpSum         float64
		subjectFail   bool
	)

	for _, score := range cand.SubjectScores {
		totalObtained += score.ObtainedMarks
		totalPossible += score.TotalMarks
		pctSum += score.Percentage
		gpSum += score.GradePoint

		if failsSubjectMinimum(score, policy) {
			subjectFail = true
		}
	}

	n := float64(len(cand.SubjectScores))
	cand.TotalObtained = totalObtained
	cand.TotalPossible = totalPossible
	// Mean of per-subject percentages, not totalObtained/totalPossible:
	// subjects carry different weight and the policy averages per-subject rates.
	cand.AveragePercentage = round2(pctSum / n)
	cand.AverageGradePoint = round2(gpSum / n)
	cand.OverallGrade = shared.GradeForPercentage(cand.AveragePercentage)
	cand.Passed = cand.AveragePercentage >= policy.PassThresholdPercent && !subjectFail

	if cand.Passed {
		cand.Status = shared.StatusPassed
	} else {
		cand.Status = shared.StatusFailed
	}
}

// EvaluateAll evaluates every candidate in the cohort under one policy
func EvaluateAll(cands []shared.PromotionCandidate, policy shared.PromotionPolicy) {
	for i := range cands {
		Evaluate(&cands[i], policy)
	}
}

// failsSubjectMinimum applies the per-subject minimum-pass rule: zero or
// absent obtained marks fail outright, otherwise the subject must reach
// the policy's minimum mark for its total.
func failsSubjectMinimum(score shared.SubjectScore, policy shared.PromotionPolicy) bool {
	if score.ObtainedMarks <= 0 {
		return true
	}
	return score.ObtainedMarks < policy.MinimumPassMark(score.TotalMarks)
}

// round2 rounds half-up to 2 decimal places
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
