// ============================================================================
// backend/internal/shared/models.go
// Shared data models and structs for MongoDB documents
// ============================================================================

package shared

import (
	"time"
)

// ============================================================================
// Student Directory Models
// ============================================================================

// Student represents a student record in the directory
type Student struct {
	ID         string    `bson:"_id" json:"id"`
	SchoolID   string    `bson:"school_id" json:"school_id"`
	StudentID  string    `bson:"student_id" json:"student_id"` // admission number, distinct from internal id
	Name       string    `bson:"name" json:"name"`
	Class      string    `bson:"class" json:"class"`
	RollNumber int32     `bson:"roll_number" json:"roll_number"` // unique within a class, 0 = unassigned
	IsActive   bool      `bson:"is_active" json:"is_active"`
	CreatedAt  time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// ============================================================================
// Exam Result Models
// ============================================================================

// ExamResultRow is one subject's result for one student in one exam,
// as stored by the exam module
type ExamResultRow struct {
	ID            string    `bson:"_id,omitempty" json:"id,omitempty"`
	SchoolID      string    `bson:"school_id" json:"school_id"`
	StudentKey    string    `bson:"student_key" json:"student_key"` // matches Student.StudentID
	StudentName   string    `bson:"student_name" json:"student_name"`
	ClassName     string    `bson:"class_name" json:"class_name"`
	ExamName      string    `bson:"exam_name" json:"exam_name"`
	Subject       string    `bson:"subject" json:"subject"`
	ObtainedMarks float64   `bson:"obtained_marks" json:"obtained_marks"`
	TotalMarks    float64   `bson:"total_marks" json:"total_marks"`
	Percentage    float64   `bson:"percentage" json:"percentage"`
	LetterGrade   string    `bson:"letter_grade" json:"letter_grade"`
	GradePoint    float64   `bson:"grade_point" json:"grade_point"`
	RecordedAt    time.Time `bson:"recorded_at,omitempty" json:"recorded_at,omitempty"`
}

// SubjectScore is the immutable per-subject view a candidate carries
type SubjectScore struct {
	Subject       string  `json:"subject"`
	ObtainedMarks float64 `json:"obtained_marks"`
	TotalMarks    float64 `json:"total_marks"`
	Percentage    float64 `json:"percentage"`
	LetterGrade   string  `json:"letter_grade"`
	GradePoint    float64 `json:"grade_point"`
}

// ============================================================================
// Promotion Models
// ============================================================================

// PromotionPolicy is the per-run promotion configuration. It is passed
// explicitly into evaluation, never read from process-wide state.
type PromotionPolicy struct {
	PassThresholdPercent float64 `json:"pass_threshold_percent"`
}

// DefaultPolicy returns the standard 40% promotion policy
func DefaultPolicy() PromotionPolicy {
	return PromotionPolicy{PassThresholdPercent: 40.0}
}

// MinimumPassMark returns the minimum obtained marks required to pass a
// subject with the given total. The rule is 33% of the subject total, with
// rounding-corrected fixed values for the common 100-mark and 50-mark papers.
func (p PromotionPolicy) MinimumPassMark(totalMarks float64) float64 {
	switch totalMarks {
	case 100:
		return 33
	case 50:
		return 17
	default:
		return totalMarks * 0.33
	}
}

// PromotionCandidate is one cohort member after indexing/evaluation.
// Candidates are ephemeral: recomputed from source data on every run,
// never persisted.
type PromotionCandidate struct {
	StudentKey            string                  `json:"student_key"`
	StudentName           string                  `json:"student_name"`
	CurrentClass          string                  `json:"current_class"`
	TargetClass           string                  `json:"target_class"`
	SubjectScores         map[string]SubjectScore `json:"subject_scores"`
	TotalObtained         float64                 `json:"total_obtained"`
	TotalPossible         float64                 `json:"total_possible"`
	AveragePercentage     float64                 `json:"average_percentage"`
	AverageGradePoint     float64                 `json:"average_grade_point"`
	OverallGrade          string                  `json:"overall_grade"`
	Passed                bool                    `json:"passed"`
	Rank                  int32                   `json:"rank"` // 1-based, dense, assigned after sorting
	Status                string                  `json:"status"`
	MissingDirectoryEntry bool                    `json:"missing_directory_entry"` // synthesized from orphan result rows
}

// PromotionOutcome is the result of attempting to commit one candidate.
// AssignedRoll is set if and only if ErrorKind is empty.
type PromotionOutcome struct {
	StudentKey   string    `json:"student_key"`
	StudentName  string    `json:"student_name"`
	TargetClass  string    `json:"target_class"`
	AssignedRoll int32     `json:"assigned_roll,omitempty"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	ErrorDetail  string    `json:"error_detail,omitempty"`
	CommittedAt  time.Time `json:"committed_at"`
}

// Succeeded reports whether the outcome represents a committed promotion
func (o *PromotionOutcome) Succeeded() bool {
	return o.ErrorKind == ""
}

// PromotionBatchResult aggregates the outcomes of one bulk promotion run
type PromotionBatchResult struct {
	BatchID     string             `json:"batch_id"`
	ExamName    string             `json:"exam_name"`
	SourceClass string             `json:"source_class"`
	TargetClass string             `json:"target_class"`
	Attempted   int32              `json:"attempted"`
	Promoted    int32              `json:"promoted"`
	Failed      int32              `json:"failed"`
	SuccessRate float64            `json:"success_rate"` // promoted / attempted, 2 decimals
	Outcomes    []PromotionOutcome `json:"outcomes"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
}

// PromotedNames returns the names of successfully promoted students
func (r *PromotionBatchResult) PromotedNames() []string {
	var names []string
	for i := range r.Outcomes {
		if r.Outcomes[i].Succeeded() {
			names = append(names, r.Outcomes[i].StudentName)
		}
	}
	return names
}

// FailedNames returns the names of students whose promotion failed
func (r *PromotionBatchResult) FailedNames() []string {
	var names []string
	for i := range r.Outcomes {
		if !r.Outcomes[i].Succeeded() {
			names = append(names, r.Outcomes[i].StudentName)
		}
	}
	return names
}

// ============================================================================
// Audit Log Models
// ============================================================================

// AuditLog represents an audit log entry
type AuditLog struct {
	ID        string                 `bson:"_id" json:"id"`
	Timestamp time.Time              `bson:"timestamp" json:"timestamp"`
	UserID    string                 `bson:"user_id" json:"user_id"`
	Action    string                 `bson:"action" json:"action"`
	Resource  string                 `bson:"resource" json:"resource"`
	Details   map[string]interface{} `bson:"details,omitempty" json:"details,omitempty"`
}

// ============================================================================
// Helper Methods
// ============================================================================

// GradeForPercentage maps an average percentage to the overall letter grade
func GradeForPercentage(pct float64) string {
	switch {
	case pct >= 80:
		return GradeAPlus
	case pct >= 70:
		return GradeA
	case pct >= 60:
		return GradeAMinus
	case pct >= 50:
		return GradeB
	case pct >= 40:
		return GradeC
	case pct >= 33:
		return GradeD
	default:
		return GradeF
	}
}

// ============================================================================
// Constants
// ============================================================================

const (
	// Candidate statuses (promotion state machine)
	StatusPending   = "pending"        // computed, not yet evaluated
	StatusPassed    = "evaluated_pass" // eligible for promotion
	StatusFailed    = "evaluated_fail" // not eligible
	StatusPromoting = "promoting"      // commit in flight
	StatusPromoted  = "promoted"       // terminal success
	StatusError     = "error"          // terminal failure, retry is a fresh single promotion

	// Per-student outcome error kinds
	ErrorNoAuthoritativeRecord = "no_authoritative_record"
	ErrorAllocationExhausted   = "allocation_exhausted"
	ErrorMutationFailed        = "mutation_failed"

	// Overall grades
	GradeAPlus  = "A+"
	GradeA      = "A"
	GradeAMinus = "A-"
	GradeB      = "B"
	GradeC      = "C"
	GradeD      = "D"
	GradeF      = "F"
	GradeNA     = "N/A" // candidate with no subject scores at all

	// User roles
	RoleAdmin   = "admin"
	RoleFaculty = "faculty"
	RoleStudent = "student"

	// Audit actions
	ActionPromoteStudent = "promote_student"
	ActionPromoteBatch   = "promote_batch"

	// Collections
	CollectionStudents    = "students"
	CollectionExamResults = "exam_results"
	CollectionAuditLogs   = "audit_logs"
)
