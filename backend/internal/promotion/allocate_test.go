package promotion

import (
	"context"
	"errors"
	"testing"
)

func TestAllocate_DesiredRollFree(t *testing.T) {
	store := newFakeStore(
		activeStudent("stu-101", "ADM-2023-101", "Farid Uddin", "Six", 1),
		activeStudent("stu-102", "ADM-2023-102", "Gita Sen", "Six", 3),
	)
	alloc := NewRollAllocator(store, 0)

	roll, err := alloc.Allocate(context.Background(), "SCH-TEST", "Six", 2)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if roll != 2 {
		t.Errorf("Expected free desired roll 2, got %d", roll)
	}
}

func TestAllocate_ProbesUpwardPastOccupied(t *testing.T) {
	// Rolls 1-3 occupied: a candidate asking for 2 lands on 4.
	store := newFakeStore(
		activeStudent("stu-101", "ADM-2023-101", "Farid Uddin", "Six", 1),
		activeStudent("stu-102", "ADM-2023-102", "Gita Sen", "Six", 2),
		activeStudent("stu-103", "ADM-2023-103", "Habib Karim", "Six", 3),
	)
	alloc := NewRollAllocator(store, 0)

	roll, err := alloc.Allocate(context.Background(), "SCH-TEST", "Six", 2)
	if err != nil {
		t.Fatalf("Allocate failed: %v", err)
	}
	if roll != 4 {
		t.Errorf("Expected probe to land on roll 4, got %d", roll)
	}
}

func TestAllocate_NonPositiveDesiredStartsAtOne(t *testing.T) {
	store := newFakeStore()
	alloc := NewRollAllocator(store, 0)

	for _, desired := range []int32{0, -5} {
		roll, err := alloc.Allocate(context.Background(), "SCH-TEST", "Six", desired)
		if err != nil {
			t.Fatalf("Allocate(%d) failed: %v", desired, err)
		}
		if roll != 1 {
			t.Errorf("Allocate(%d): expected roll 1, got %d", desired, roll)
		}
	}
}

func TestAllocate_ProbeLimitExhausted(t *testing.T) {
	store := newFakeStore(
		activeStudent("stu-101", "ADM-2023-101", "Farid Uddin", "Six", 1),
		activeStudent("stu-102", "ADM-2023-102", "Gita Sen", "Six", 2),
		activeStudent("stu-103", "ADM-2023-103", "Habib Karim", "Six", 3),
	)
	alloc := NewRollAllocator(store, 3)

	_, err := alloc.Allocate(context.Background(), "SCH-TEST", "Six", 1)
	if err == nil {
		t.Fatal("Expected probe exhaustion error, got nil")
	}
	if !errors.Is(err, ErrProbeExhausted) {
		t.Errorf("Expected ErrProbeExhausted, got %v", err)
	}
}

func TestAllocate_SequentialAllocationsStayUnique(t *testing.T) {
	// Committing each allocation before the next read keeps rolls unique,
	// the same discipline the executor enforces for a batch.
	store := newFakeStore(
		activeStudent("stu-101", "ADM-2023-101", "Farid Uddin", "Six", 1),
		activeStudent("stu-201", "ADM-2024-001", "Amina Rahman", "Five", 1),
		activeStudent("stu-202", "ADM-2024-002", "Bashir Ahmed", "Five", 2),
		activeStudent("stu-203", "ADM-2024-003", "Chitra Das", "Five", 3),
	)
	alloc := NewRollAllocator(store, 0)

	seen := make(map[int32]bool)
	for _, id := range []string{"stu-201", "stu-202", "stu-203"} {
		roll, err := alloc.Allocate(context.Background(), "SCH-TEST", "Six", 1)
		if err != nil {
			t.Fatalf("Allocate for %s failed: %v", id, err)
		}
		if seen[roll] {
			t.Errorf("Roll %d allocated twice", roll)
		}
		seen[roll] = true
		if err := store.UpdateClassAndRoll(context.Background(), id, "Six", roll); err != nil {
			t.Fatalf("Commit for %s failed: %v", id, err)
		}
	}

	for _, roll := range []int32{2, 3, 4} {
		if !seen[roll] {
			t.Errorf("Expected roll %d to be allocated", roll)
		}
	}
}

func TestOccupiedRolls_IgnoresInvalidRolls(t *testing.T) {
	store := newFakeStore(
		activeStudent("stu-101", "ADM-2023-101", "Farid Uddin", "Six", 1),
		activeStudent("stu-102", "ADM-2023-102", "Gita Sen", "Six", 0),
		activeStudent("stu-103", "ADM-2023-103", "Habib Karim", "Six", -2),
	)
	alloc := NewRollAllocator(store, 0)

	occupied, err := alloc.OccupiedRolls(context.Background(), "SCH-TEST", "Six")
	if err != nil {
		t.Fatalf("OccupiedRolls failed: %v", err)
	}
	if len(occupied) != 1 || !occupied[1] {
		t.Errorf("Expected only roll 1 occupied, got %v", occupied)
	}
}
