// Package directory is the MongoDB-backed student directory: the read side
// the promotion engine indexes and allocates against, and the single
// class+roll mutation it writes back.
package directory

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"school_sms/backend/internal/shared"
)

const queryTimeout = 10 * time.Second

// Store provides student directory lookups and mutations over MongoDB
type Store struct {
	studentsCol *mongo.Collection
	auditCol    *mongo.Collection
}

// NewStore creates a Store bound to the students and audit_logs collections
func NewStore(db *mongo.Database) *Store {
	return &Store{
		studentsCol: db.Collection(shared.CollectionStudents),
		auditCol:    db.Collection(shared.CollectionAuditLogs),
	}
}

// StudentByStudentID looks up the authoritative record by admission number.
// Returns (nil, nil) when no record exists.
func (s *Store) StudentByStudentID(ctx context.Context, schoolID, studentID string) (*shared.Student, error) {
	filter := bson.M{
		"school_id":  schoolID,
		"student_id": studentID,
	}

	var doc bson.M
	err := shared.FindOneWithTimeout(ctx, s.studentsCol, filter, &doc, queryTimeout)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up student by student_id %s: %w", studentID, err)
	}

	student := docToStudent(doc)
	return &student, nil
}

// StudentsInClass lists all active students currently enrolled in a class,
// ordered by roll number
func (s *Store) StudentsInClass(ctx context.Context, schoolID, className string) ([]shared.Student, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{
		"school_id": schoolID,
		"class":     className,
		"is_active": true,
	}
	findOptions := shared.BuildFindOptions(0, "roll_number", 1)

	cursor, err := s.studentsCol.Find(queryCtx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to query students in class %s: %w", className, err)
	}
	defer cursor.Close(queryCtx)

	var docs []bson.M
	if err := cursor.All(queryCtx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode students: %w", err)
	}

	students := make([]shared.Student, 0, len(docs))
	for _, doc := range docs {
		students = append(students, docToStudent(doc))
	}
	return students, nil
}

// UpdateClassAndRoll moves a student to a class with a new roll number.
// Only these two fields (plus updated_at) are touched.
func (s *Store) UpdateClassAndRoll(ctx context.Context, id, className string, rollNumber int32) error {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	update := bson.M{
		"$set": bson.M{
			"class":       className,
			"roll_number": rollNumber,
			"updated_at":  time.Now(),
		},
	}

	result, err := s.studentsCol.UpdateOne(queryCtx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update student %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("student %s not found", id)
	}
	return nil
}

// Record writes an audit entry for a committed promotion
func (s *Store) Record(ctx context.Context, userID, action, resource string, details map[string]interface{}) error {
	return shared.LogAuditEvent(ctx, s.auditCol, userID, action, resource, details)
}

// docToStudent converts a raw student document into a Student. Legacy
// records store roll numbers as strings or mixed numeric types, so the
// roll is parsed tolerantly instead of struct-decoded.
func docToStudent(doc bson.M) shared.Student {
	var student shared.Student

	if v, err := shared.GetString(doc["_id"]); err == nil {
		student.ID = v
	}
	if v, err := shared.GetString(doc["school_id"]); err == nil {
		student.SchoolID = v
	}
	if v, err := shared.GetString(doc["student_id"]); err == nil {
		student.StudentID = v
	}
	if v, err := shared.GetString(doc["name"]); err == nil {
		student.Name = v
	}
	if v, err := shared.GetString(doc["class"]); err == nil {
		student.Class = v
	}
	student.RollNumber = shared.GetRollNumber(doc["roll_number"])
	if v, ok := doc["is_active"].(bool); ok {
		student.IsActive = v
	}
	if v, err := shared.GetTime(doc["created_at"]); err == nil {
		student.CreatedAt = v
	}
	if v, err := shared.GetTime(doc["updated_at"]); err == nil {
		student.UpdatedAt = v
	}

	return student
}
