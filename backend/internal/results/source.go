// Package results is the MongoDB-backed exam result source the promotion
// engine reads raw per-subject scores from.
package results

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"school_sms/backend/internal/shared"
)

const queryTimeout = 10 * time.Second

// Source reads exam result rows from the exam_results collection
type Source struct {
	resultsCol *mongo.Collection
}

// NewSource creates a Source bound to the exam_results collection
func NewSource(db *mongo.Database) *Source {
	return &Source{resultsCol: db.Collection(shared.CollectionExamResults)}
}

// ResultsForExam returns every result row recorded for the exam in the
// school scope, oldest first so that re-entered scores override earlier
// ones during indexing. Rows are decoded leniently: the exam module has
// written marks as int32, int64, and double over time, so each field is
// extracted individually instead of relying on struct decoding.
func (s *Source) ResultsForExam(ctx context.Context, schoolID, examName string) ([]shared.ExamResultRow, error) {
	queryCtx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	filter := bson.M{
		"school_id": schoolID,
		"exam_name": examName,
	}
	findOptions := shared.BuildFindOptions(0, "recorded_at", 1)

	cursor, err := s.resultsCol.Find(queryCtx, filter, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to query results for exam %s: %w", examName, err)
	}
	defer cursor.Close(queryCtx)

	var docs []bson.M
	if err := cursor.All(queryCtx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode result rows: %w", err)
	}

	rows := make([]shared.ExamResultRow, 0, len(docs))
	for _, doc := range docs {
		row, err := docToResultRow(doc)
		if err != nil {
			log.Printf("Warning: skipping malformed result row: %v", err)
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// docToResultRow converts a raw result document into an ExamResultRow.
// student_key and subject are mandatory; everything else degrades to its
// zero value (the indexer derives a missing percentage from the marks).
func docToResultRow(doc bson.M) (shared.ExamResultRow, error) {
	var row shared.ExamResultRow

	key, err := shared.GetString(doc["student_key"])
	if err != nil || key == "" {
		return row, fmt.Errorf("result row %v has no student_key", doc["_id"])
	}
	subject, err := shared.GetString(doc["subject"])
	if err != nil || subject == "" {
		return row, fmt.Errorf("result row for student %s has no subject", key)
	}
	row.StudentKey = key
	row.Subject = subject

	if v, err := shared.GetString(doc["_id"]); err == nil {
		row.ID = v
	}
	if v, err := shared.GetString(doc["school_id"]); err == nil {
		row.SchoolID = v
	}
	if v, err := shared.GetString(doc["student_name"]); err == nil {
		row.StudentName = v
	}
	if v, err := shared.GetString(doc["class_name"]); err == nil {
		row.ClassName = v
	}
	if v, err := shared.GetString(doc["exam_name"]); err == nil {
		row.ExamName = v
	}
	if v, err := shared.GetString(doc["letter_grade"]); err == nil {
		row.LetterGrade = v
	}

	if v, err := shared.GetFloat64(doc["obtained_marks"]); err == nil {
		row.ObtainedMarks = v
	}
	if v, err := shared.GetFloat64(doc["total_marks"]); err == nil {
		row.TotalMarks = v
	}
	if v, err := shared.GetFloat64(doc["percentage"]); err == nil {
		row.Percentage = v
	}
	if v, err := shared.GetFloat64(doc["grade_point"]); err == nil {
		row.GradePoint = v
	}
	if v, err := shared.GetTime(doc["recorded_at"]); err == nil {
		row.RecordedAt = v
	}

	return row, nil
}
