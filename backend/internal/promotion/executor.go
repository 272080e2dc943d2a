package promotion

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"school_sms/backend/internal/shared"
)

// Executor orchestrates per-student promotion, single or bulk. Bulk runs
// are strictly sequential: one fully-completed allocate+commit per student
// at a time. That ordering is the correctness mechanism — the allocator
// re-reads occupied rolls before each decision, so sequential execution
// guarantees no two students in a batch receive the same roll even though
// allocation itself takes no lock.
type Executor struct {
	directory StudentDirectory
	sink      MutationSink
	allocator *RollAllocator
	audit     AuditSink // optional
}

// NewExecutor creates an Executor. audit may be nil.
func NewExecutor(directory StudentDirectory, sink MutationSink, allocator *RollAllocator, audit AuditSink) *Executor {
	return &Executor{
		directory: directory,
		sink:      sink,
		allocator: allocator,
		audit:     audit,
	}
}

// PromoteOne commits a single candidate: resolve the authoritative
// directory record by admission number, allocate a roll in the target
// class near the candidate's rank, and write the class+roll mutation.
// Failures are captured in the outcome, never raised; the caller decides
// whether to retry with a fresh invocation.
func (e *Executor) PromoteOne(ctx context.Context, schoolID string, cand *shared.PromotionCandidate, actorID string) shared.PromotionOutcome {
	outcome := shared.PromotionOutcome{
		StudentKey:  cand.StudentKey,
		StudentName: cand.StudentName,
		TargetClass: cand.TargetClass,
	}
	cand.Status = shared.StatusPromoting

	// Candidates synthesized from orphan result rows have no authoritative
	// record and cannot be promoted safely. No retry for this kind.
	student, err := e.directory.StudentByStudentID(ctx, schoolID, cand.StudentKey)
	if err != nil {
		cand.Status = shared.StatusError
		outcome.ErrorKind = shared.ErrorNoAuthoritativeRecord
		outcome.ErrorDetail = err.Error()
		return outcome
	}
	if student == nil {
		cand.Status = shared.StatusError
		outcome.ErrorKind = shared.ErrorNoAuthoritativeRecord
		outcome.ErrorDetail = "no directory record for student id " + cand.StudentKey
		return outcome
	}

	roll, err := e.allocator.Allocate(ctx, schoolID, cand.TargetClass, cand.Rank)
	if err != nil {
		cand.Status = shared.StatusError
		if errors.Is(err, ErrProbeExhausted) {
			outcome.ErrorKind = shared.ErrorAllocationExhausted
		} else {
			outcome.ErrorKind = shared.ErrorMutationFailed
		}
		outcome.ErrorDetail = err.Error()
		return outcome
	}

	if err := e.sink.UpdateClassAndRoll(ctx, student.ID, cand.TargetClass, roll); err != nil {
		// Prior class/roll are untouched on a failed write.
		cand.Status = shared.StatusError
		outcome.ErrorKind = shared.ErrorMutationFailed
		outcome.ErrorDetail = err.Error()
		return outcome
	}

	cand.Status = shared.StatusPromoted
	outcome.AssignedRoll = roll
	outcome.CommittedAt = time.Now()

	if e.audit != nil {
		e.audit.Record(ctx, actorID, shared.ActionPromoteStudent, cand.StudentKey, map[string]interface{}{
			"student_name":  cand.StudentName,
			"from_class":    cand.CurrentClass,
			"to_class":      cand.TargetClass,
			"assigned_roll": roll,
		})
	}

	return outcome
}

// PromoteAll runs bulk promotion over the passed subset of an evaluated
// cohort, one fully-awaited student at a time, in the rank order produced
// by AssignRanks. A per-student failure is recorded and the batch
// continues; only empty-cohort preconditions abort before any mutation.
func (e *Executor) PromoteAll(ctx context.Context, schoolID, examName, sourceClass, targetClass string, cands []shared.PromotionCandidate, actorID string) (*shared.PromotionBatchResult, error) {
	if len(cands) == 0 {
		return nil, ErrEmptyCohort
	}

	var eligible []*shared.PromotionCandidate
	for i := range cands {
		if cands[i].Passed {
			eligible = append(eligible, &cands[i])
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNoEligibleCandidates
	}

	result := &shared.PromotionBatchResult{
		BatchID:     uuid.NewString(),
		ExamName:    examName,
		SourceClass: sourceClass,
		TargetClass: targetClass,
		StartedAt:   time.Now(),
	}

	log.Printf("INFO: promotion batch %s: %d eligible of %d evaluated, %s -> %s", result.BatchID, len(eligible), len(cands), sourceClass, targetClass)

	for _, cand := range eligible {
		outcome := e.PromoteOne(ctx, schoolID, cand, actorID)
		result.Outcomes = append(result.Outcomes, outcome)
		result.Attempted++
		if outcome.Succeeded() {
			result.Promoted++
		} else {
			result.Failed++
			log.Printf("Warning: batch %s: promotion failed for %s (%s): %s", result.BatchID, cand.StudentName, cand.StudentKey, outcome.ErrorKind)
		}
	}

	result.FinishedAt = time.Now()
	if result.Attempted > 0 {
		result.SuccessRate = round2(float64(result.Promoted) / float64(result.Attempted) * 100)
	}

	// Directory state changed during the run; record the batch so
	// downstream views know to refresh.
	if e.audit != nil {
		e.audit.Record(ctx, actorID, shared.ActionPromoteBatch, result.BatchID, map[string]interface{}{
			"exam_name":    examName,
			"source_class": sourceClass,
			"target_class": targetClass,
			"attempted":    result.Attempted,
			"promoted":     result.Promoted,
			"failed":       result.Failed,
		})
	}
	log.Printf("INFO: promotion batch %s finished: %d promoted, %d failed (%.2f%%)", result.BatchID, result.Promoted, result.Failed, result.SuccessRate)

	return result, nil
}
