// Package promotion implements the student promotion and grading engine:
// indexing raw exam results into per-student candidates, evaluating them
// against a promotion policy, ranking the cohort, and committing class and
// roll-number reassignments for students who pass.
package promotion

import (
	"context"
	"errors"

	"school_sms/backend/internal/shared"
)

// ResultSource supplies flat exam-result rows for a school and exam.
type ResultSource interface {
	ResultsForExam(ctx context.Context, schoolID, examName string) ([]shared.ExamResultRow, error)
}

// StudentDirectory is the read side of the student records store.
type StudentDirectory interface {
	// StudentByStudentID looks up the authoritative record by admission
	// number (the stable key candidates carry).
	StudentByStudentID(ctx context.Context, schoolID, studentID string) (*shared.Student, error)
	// StudentsInClass lists all active students currently in a class.
	StudentsInClass(ctx context.Context, schoolID, className string) ([]shared.Student, error)
}

// MutationSink is the single write operation the engine performs: moving a
// student to a class with a new roll number. No other fields are touched.
type MutationSink interface {
	UpdateClassAndRoll(ctx context.Context, id, className string, rollNumber int32) error
}

// AuditSink records committed promotions for later correlation.
type AuditSink interface {
	Record(ctx context.Context, userID, action, resource string, details map[string]interface{}) error
}

// Precondition errors raised before any mutation occurs. Per-student
// failures during a batch are never surfaced this way; they become
// PromotionOutcome entries instead.
var (
	ErrEmptyCohort          = errors.New("promotion: evaluated cohort is empty")
	ErrNoEligibleCandidates = errors.New("promotion: no passed candidates to promote")
	ErrProbeExhausted       = errors.New("promotion: roll number probe limit exhausted")
)
