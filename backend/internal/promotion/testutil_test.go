package promotion

import (
	"context"
	"errors"
	"fmt"

	"school_sms/backend/internal/shared"
)

// fakeStore is an in-memory stand-in for the student directory, the
// mutation sink, and the audit sink. Mutations apply immediately, so a
// later occupied-roll read observes earlier writes the same way the live
// directory does.
type fakeStore struct {
	students map[string]*shared.Student // by internal id

	lookupErrFor map[string]bool // student_id -> force lookup failure
	updateErrFor map[string]bool // internal id -> force write failure

	auditEntries []string
}

func newFakeStore(students ...shared.Student) *fakeStore {
	store := &fakeStore{
		students:     make(map[string]*shared.Student),
		lookupErrFor: make(map[string]bool),
		updateErrFor: make(map[string]bool),
	}
	for i := range students {
		s := students[i]
		store.students[s.ID] = &s
	}
	return store
}

func (f *fakeStore) StudentByStudentID(ctx context.Context, schoolID, studentID string) (*shared.Student, error) {
	if f.lookupErrFor[studentID] {
		return nil, errors.New("directory unavailable")
	}
	for _, s := range f.students {
		if s.SchoolID == schoolID && s.StudentID == studentID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) StudentsInClass(ctx context.Context, schoolID, className string) ([]shared.Student, error) {
	var out []shared.Student
	for _, s := range f.students {
		if s.SchoolID == schoolID && s.Class == className && s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateClassAndRoll(ctx context.Context, id, className string, rollNumber int32) error {
	if f.updateErrFor[id] {
		return errors.New("write failed")
	}
	s, ok := f.students[id]
	if !ok {
		return fmt.Errorf("student %s not found", id)
	}
	s.Class = className
	s.RollNumber = rollNumber
	return nil
}

func (f *fakeStore) Record(ctx context.Context, userID, action, resource string, details map[string]interface{}) error {
	f.auditEntries = append(f.auditEntries, action+":"+resource)
	return nil
}

// fakeSource serves canned exam result rows
type fakeSource struct {
	rows []shared.ExamResultRow
}

func (f *fakeSource) ResultsForExam(ctx context.Context, schoolID, examName string) ([]shared.ExamResultRow, error) {
	var out []shared.ExamResultRow
	for _, row := range f.rows {
		if row.SchoolID == schoolID && row.ExamName == examName {
			out = append(out, row)
		}
	}
	return out, nil
}

// activeStudent builds a directory record for tests
func activeStudent(id, studentID, name, class string, roll int32) shared.Student {
	return shared.Student{
		ID:         id,
		SchoolID:   "SCH-TEST",
		StudentID:  studentID,
		Name:       name,
		Class:      class,
		RollNumber: roll,
		IsActive:   true,
	}
}

// resultRow builds an exam result row for tests
func resultRow(studentKey, name, class, exam, subject string, obtained, total float64) shared.ExamResultRow {
	return shared.ExamResultRow{
		SchoolID:      "SCH-TEST",
		StudentKey:    studentKey,
		StudentName:   name,
		ClassName:     class,
		ExamName:      exam,
		Subject:       subject,
		ObtainedMarks: obtained,
		TotalMarks:    total,
		Percentage:    obtained / total * 100,
		GradePoint:    obtained / total * 5, // close enough for tests
	}
}

// scoredCandidate builds an evaluated-input candidate with direct percentages
func scoredCandidate(scores ...shared.SubjectScore) shared.PromotionCandidate {
	cand := shared.PromotionCandidate{
		StudentKey:    "ADM-TEST-001",
		StudentName:   "Test Student",
		SubjectScores: make(map[string]shared.SubjectScore),
		Status:        shared.StatusPending,
	}
	for _, s := range scores {
		cand.SubjectScores[s.Subject] = s
	}
	return cand
}
