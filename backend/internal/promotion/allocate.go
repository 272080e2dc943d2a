package promotion

import (
	"context"
	"fmt"
)

// RollAllocator finds the nearest available roll number in a target class.
//
// Allocation is a point-in-time decision: the occupied set is re-read from
// the directory on every call and nothing is reserved atomically. Roll
// uniqueness within a batch therefore depends on the executor running
// allocate+commit sequences strictly sequentially for a class.
type RollAllocator struct {
	directory  StudentDirectory
	probeLimit int
}

// NewRollAllocator creates an allocator with the given probe bound.
// A non-positive bound falls back to the default of 10000.
func NewRollAllocator(directory StudentDirectory, probeLimit int) *RollAllocator {
	if probeLimit <= 0 {
		probeLimit = 10000
	}
	return &RollAllocator{directory: directory, probeLimit: probeLimit}
}

// Allocate returns the desired roll if it is free in the target class,
// otherwise the first free number found probing upward from it. A desired
// roll of 0 or less starts the probe at 1. The returned roll is always a
// positive integer not occupied at the time of the directory read.
func (a *RollAllocator) Allocate(ctx context.Context, schoolID, targetClass string, desiredRoll int32) (int32, error) {
	occupied, err := a.OccupiedRolls(ctx, schoolID, targetClass)
	if err != nil {
		return 0, fmt.Errorf("fetch occupied rolls for class %s: %w", targetClass, err)
	}

	roll := desiredRoll
	if roll <= 0 {
		roll = 1
	}

	for i := 0; i < a.probeLimit; i++ {
		if !occupied[roll] {
			return roll, nil
		}
		roll++
	}

	// Only reachable on corrupted occupied-set data; bounded so a bad
	// directory state cannot hang a batch.
	return 0, fmt.Errorf("%w: class %s, desired roll %d, probed %d slots", ErrProbeExhausted, targetClass, desiredRoll, a.probeLimit)
}

// OccupiedRolls returns the set of valid (>0) roll numbers currently in
// use in the class, read live from the directory.
func (a *RollAllocator) OccupiedRolls(ctx context.Context, schoolID, className string) (map[int32]bool, error) {
	students, err := a.directory.StudentsInClass(ctx, schoolID, className)
	if err != nil {
		return nil, err
	}

	occupied := make(map[int32]bool, len(students))
	for i := range students {
		if roll := students[i].RollNumber; roll > 0 {
			occupied[roll] = true
		}
	}
	return occupied, nil
}
