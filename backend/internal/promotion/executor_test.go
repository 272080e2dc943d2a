package promotion

import (
	"context"
	"errors"
	"testing"

	"school_sms/backend/internal/shared"
)

func passedCandidate(studentKey, name string, rank int32) shared.PromotionCandidate {
	return shared.PromotionCandidate{
		StudentKey:    studentKey,
		StudentName:   name,
		CurrentClass:  "Five",
		TargetClass:   "Six",
		SubjectScores: make(map[string]shared.SubjectScore),
		Passed:        true,
		Rank:          rank,
		Status:        shared.StatusPassed,
	}
}

func newTestExecutor(store *fakeStore) *Executor {
	return NewExecutor(store, store, NewRollAllocator(store, 0), store)
}

func TestPromoteOne_Success(t *testing.T) {
	store := newFakeStore(
		activeStudent("stu-001", "ADM-2024-001", "Amina Rahman", "Five", 1),
	)
	exec := newTestExecutor(store)
	cand := passedCandidate("ADM-2024-001", "Amina Rahman", 1)

	outcome := exec.PromoteOne(context.Background(), "SCH-TEST", &cand, "admin-1")

	if !outcome.Succeeded() {
		t.Fatalf("Expected success, got %s: %s", outcome.ErrorKind, outcome.ErrorDetail)
	}
	if outcome.AssignedRoll != 1 {
		t.Errorf("Expected roll 1 in an empty target class, got %d", outcome.AssignedRoll)
	}
	if cand.Status != shared.StatusPromoted {
		t.Errorf("Expected status %s, got %s", shared.StatusPromoted, cand.Status)
	}

	student := store.students["stu-001"]
	if student.Class != "Six" || student.RollNumber != 1 {
		t.Errorf("Expected directory record moved to Six/1, got %s/%d", student.Class, student.RollNumber)
	}
	if len(store.auditEntries) != 1 || store.auditEntries[0] != shared.ActionPromoteStudent+":ADM-2024-001" {
		t.Errorf("Expected one promote_student audit entry, got %v", store.auditEntries)
	}
}

func TestPromoteOne_NoDirectoryRecord(t *testing.T) {
	store := newFakeStore()
	exec := newTestExecutor(store)
	cand := passedCandidate("ADM-2024-099", "Iqbal Hasan", 1)

	outcome := exec.PromoteOne(context.Background(), "SCH-TEST", &cand, "admin-1")

	if outcome.Succeeded() {
		t.Fatal("Expected failure for a student with no directory record")
	}
	if outcome.ErrorKind != shared.ErrorNoAuthoritativeRecord {
		t.Errorf("Expected error kind %s, got %s", shared.ErrorNoAuthoritativeRecord, outcome.ErrorKind)
	}
	if cand.Status != shared.StatusError {
		t.Errorf("Expected status %s, got %s", shared.StatusError, cand.Status)
	}
}

func TestPromoteOne_MutationFailureLeavesRecordUntouched(t *testing.T) {
	store := newFakeStore(
		activeStudent("stu-003", "ADM-2024-003", "Chitra Das", "Five", 3),
	)
	store.updateErrFor["stu-003"] = true
	exec := newTestExecutor(store)
	cand := passedCandidate("ADM-2024-003", "Chitra Das", 1)

	outcome := exec.PromoteOne(context.Background(), "SCH-TEST", &cand, "admin-1")

	if outcome.Succeeded() {
		t.Fatal("Expected failure when the directory write fails")
	}
	if outcome.ErrorKind != shared.ErrorMutationFailed {
		t.Errorf("Expected error kind %s, got %s", shared.ErrorMutationFailed, outcome.ErrorKind)
	}

	student := store.students["stu-003"]
	if student.Class != "Five" || student.RollNumber != 3 {
		t.Errorf("Expected prior class/roll untouched, got %s/%d", student.Class, student.RollNumber)
	}
	if len(store.auditEntries) != 0 {
		t.Errorf("Expected no audit entry on failure, got %v", store.auditEntries)
	}
}

func TestPromoteAll_EmptyCohort(t *testing.T) {
	exec := newTestExecutor(newFakeStore())

	_, err := exec.PromoteAll(context.Background(), "SCH-TEST", "Annual 2024", "Five", "Six", nil, "admin-1")
	if !errors.Is(err, ErrEmptyCohort) {
		t.Errorf("Expected ErrEmptyCohort, got %v", err)
	}
}

func TestPromoteAll_NoEligibleCandidates(t *testing.T) {
	exec := newTestExecutor(newFakeStore())
	failed := passedCandidate("ADM-2024-004", "Dipu Hossain", 1)
	failed.Passed = false
	failed.Status = shared.StatusFailed

	_, err := exec.PromoteAll(context.Background(), "SCH-TEST", "Annual 2024", "Five", "Six", []shared.PromotionCandidate{failed}, "admin-1")
	if !errors.Is(err, ErrNoEligibleCandidates) {
		t.Errorf("Expected ErrNoEligibleCandidates, got %v", err)
	}
}

func TestPromoteAll_SequentialRollsPastOccupied(t *testing.T) {
	// Target class already holds rolls 1-3: the three ranked candidates
	// must land on 4, 5, 6 in rank order.
	store := newFakeStore(
		activeStudent("stu-001", "ADM-2024-001", "Amina Rahman", "Five", 1),
		activeStudent("stu-002", "ADM-2024-002", "Bashir Ahmed", "Five", 2),
		activeStudent("stu-003", "ADM-2024-003", "Chitra Das", "Five", 3),
		activeStudent("stu-101", "ADM-2023-101", "Farid Uddin", "Six", 1),
		activeStudent("stu-102", "ADM-2023-102", "Gita Sen", "Six", 2),
		activeStudent("stu-103", "ADM-2023-103", "Habib Karim", "Six", 3),
	)
	exec := newTestExecutor(store)

	cands := []shared.PromotionCandidate{
		passedCandidate("ADM-2024-001", "Amina Rahman", 1),
		passedCandidate("ADM-2024-002", "Bashir Ahmed", 2),
		passedCandidate("ADM-2024-003", "Chitra Das", 3),
	}

	result, err := exec.PromoteAll(context.Background(), "SCH-TEST", "Annual 2024", "Five", "Six", cands, "admin-1")
	if err != nil {
		t.Fatalf("PromoteAll failed: %v", err)
	}

	if result.Promoted != 3 || result.Failed != 0 {
		t.Fatalf("Expected 3 promoted and 0 failed, got %d/%d", result.Promoted, result.Failed)
	}
	if result.SuccessRate != 100 {
		t.Errorf("Expected success rate 100, got %g", result.SuccessRate)
	}
	if result.BatchID == "" {
		t.Error("Expected a non-empty batch id")
	}

	expectedRolls := []int32{4, 5, 6}
	for i, outcome := range result.Outcomes {
		if outcome.AssignedRoll != expectedRolls[i] {
			t.Errorf("Outcome %d: expected roll %d, got %d", i, expectedRolls[i], outcome.AssignedRoll)
		}
	}

	// Three per-student entries plus one batch entry
	if len(store.auditEntries) != 4 {
		t.Errorf("Expected 4 audit entries, got %d: %v", len(store.auditEntries), store.auditEntries)
	}
}

func TestPromoteAll_PartialFailureIsolation(t *testing.T) {
	store := newFakeStore(
		activeStudent("stu-001", "ADM-2024-001", "Amina Rahman", "Five", 1),
		activeStudent("stu-002", "ADM-2024-002", "Bashir Ahmed", "Five", 2),
		activeStudent("stu-003", "ADM-2024-003", "Chitra Das", "Five", 3),
	)
	store.lookupErrFor["ADM-2024-002"] = true
	exec := newTestExecutor(store)

	cands := []shared.PromotionCandidate{
		passedCandidate("ADM-2024-001", "Amina Rahman", 1),
		passedCandidate("ADM-2024-002", "Bashir Ahmed", 2),
		passedCandidate("ADM-2024-003", "Chitra Das", 3),
	}

	result, err := exec.PromoteAll(context.Background(), "SCH-TEST", "Annual 2024", "Five", "Six", cands, "admin-1")
	if err != nil {
		t.Fatalf("PromoteAll failed: %v", err)
	}

	if result.Attempted != 3 {
		t.Errorf("Expected 3 attempts, got %d", result.Attempted)
	}
	if result.Promoted != 2 || result.Failed != 1 {
		t.Fatalf("Expected 2 promoted and 1 failed, got %d/%d", result.Promoted, result.Failed)
	}

	failedNames := result.FailedNames()
	if len(failedNames) != 1 || failedNames[0] != "Bashir Ahmed" {
		t.Errorf("Expected only Bashir Ahmed to fail, got %v", failedNames)
	}

	// The failing student's directory record is untouched.
	bashir := store.students["stu-002"]
	if bashir.Class != "Five" || bashir.RollNumber != 2 {
		t.Errorf("Expected failed student left in Five/2, got %s/%d", bashir.Class, bashir.RollNumber)
	}

	// The others moved, with unique rolls.
	amina := store.students["stu-001"]
	chitra := store.students["stu-003"]
	if amina.Class != "Six" || chitra.Class != "Six" {
		t.Error("Expected the surviving candidates to be promoted to Six")
	}
	if amina.RollNumber == chitra.RollNumber {
		t.Errorf("Promoted students share roll %d", amina.RollNumber)
	}
}
