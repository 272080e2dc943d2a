package promotion

import (
	"context"
	"log"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"school_sms/backend/internal/shared"
)

// Indexer turns flat exam-result rows into one candidate seed per student.
type Indexer struct {
	directory StudentDirectory
	source    ResultSource
}

// NewIndexer creates an Indexer over the given collaborators
func NewIndexer(directory StudentDirectory, source ResultSource) *Indexer {
	return &Indexer{directory: directory, source: source}
}

// BuildCandidates produces one PromotionCandidate seed per distinct student
// for the selected exam and source class.
//
// Directory students in the source class are always included, even with zero
// result rows, so they surface as failing/incomplete instead of silently
// dropping out. Result rows with no matching directory entry are included
// too, keyed by the row's own student key and flagged MissingDirectoryEntry,
// using the row's reported name/class as a fallback. Subject results for a
// (student, subject) pair are deduplicated last-seen-wins.
func (ix *Indexer) BuildCandidates(ctx context.Context, schoolID, examName, sourceClass, targetClass string) ([]shared.PromotionCandidate, error) {
	rows, err := ix.source.ResultsForExam(ctx, schoolID, examName)
	if err != nil {
		return nil, err
	}

	students, err := ix.directory.StudentsInClass(ctx, schoolID, sourceClass)
	if err != nil {
		return nil, err
	}

	// Seed candidates from the directory first so encounter order is
	// roster order, then orphan rows in row order.
	var order []string
	byKey := make(map[string]*shared.PromotionCandidate)

	for i := range students {
		s := &students[i]
		key := s.StudentID
		if key == "" {
			key = s.ID
		}
		if _, exists := byKey[key]; exists {
			continue
		}
		byKey[key] = &shared.PromotionCandidate{
			StudentKey:    key,
			StudentName:   s.Name,
			CurrentClass:  s.Class,
			TargetClass:   targetClass,
			SubjectScores: make(map[string]shared.SubjectScore),
			Status:        shared.StatusPending,
		}
		order = append(order, key)
	}

	for i := range rows {
		row := &rows[i]
		if row.ExamName != examName || !ClassMatches(row.ClassName, sourceClass) {
			continue
		}

		cand, ok := byKey[row.StudentKey]
		if !ok {
			// Orphan row: the directory and the result store disagree.
			// Keep the student rather than lose the data, but flag the
			// discrepancy so the commit path can refuse it.
			log.Printf("Warning: result row for %s (%s) has no directory entry in class %s", row.StudentName, row.StudentKey, sourceClass)
			cand = &shared.PromotionCandidate{
				StudentKey:            row.StudentKey,
				StudentName:           row.StudentName,
				CurrentClass:          row.ClassName,
				TargetClass:           targetClass,
				SubjectScores:         make(map[string]shared.SubjectScore),
				Status:                shared.StatusPending,
				MissingDirectoryEntry: true,
			}
			byKey[row.StudentKey] = cand
			order = append(order, row.StudentKey)
		}

		// Last-seen row wins for a repeated (student, subject) pair.
		cand.SubjectScores[row.Subject] = shared.SubjectScore{
			Subject:       row.Subject,
			ObtainedMarks: row.ObtainedMarks,
			TotalMarks:    row.TotalMarks,
			Percentage:    rowPercentage(row),
			LetterGrade:   row.LetterGrade,
			GradePoint:    row.GradePoint,
		}
	}

	candidates := make([]shared.PromotionCandidate, 0, len(order))
	for _, key := range order {
		candidates = append(candidates, *byKey[key])
	}
	return candidates, nil
}

// rowPercentage prefers the stored percentage and derives it when absent
func rowPercentage(row *shared.ExamResultRow) float64 {
	if row.Percentage > 0 {
		return row.Percentage
	}
	if row.TotalMarks > 0 {
		return row.ObtainedMarks / row.TotalMarks * 100
	}
	return 0
}

// NormalizeClassName lowercases, NFKC-normalizes, and collapses whitespace
// so "Five ", "five" and full-width variants compare equal.
func NormalizeClassName(name string) string {
	folded := strings.ToLower(norm.NFKC.String(name))
	return strings.Join(strings.FieldsFunc(folded, unicode.IsSpace), " ")
}

// ClassMatches reports whether two class names refer to the same class,
// tolerating minor naming drift: comparison is case/whitespace/unicode
// insensitive and accepts substring containment in either direction
// (e.g. "Five" matches "Five (Science)").
func ClassMatches(a, b string) bool {
	na, nb := NormalizeClassName(a), NormalizeClassName(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
