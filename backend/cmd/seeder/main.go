package main

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"school_sms/backend/internal/shared"
)

// Seed constants for a small but representative promotion cohort
const (
	SchoolID = "SCH-001"

	SourceClass = "Five"
	TargetClass = "Six"

	ExamName = "Annual Examination 2024"
)

// StudentSeed describes one directory record to insert
type StudentSeed struct {
	ID         string
	StudentID  string
	Name       string
	Class      string
	RollNumber int32
}

// ResultSeed describes one exam result row to insert
type ResultSeed struct {
	StudentKey  string
	StudentName string
	ClassName   string
	Subject     string
	Obtained    float64
	Total       float64
	Grade       string
	GradePoint  float64
}

func main() {
	log.Println("Starting Promotion Database Seeder...")

	if err := shared.LoadEnv(".env"); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg, err := shared.LoadServiceConfig("seeder")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client, db, err := shared.ConnectMongoDB(&cfg.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer shared.DisconnectMongoDB(client)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Clear previous seed data
	db.Collection(shared.CollectionStudents).Drop(ctx)
	db.Collection(shared.CollectionExamResults).Drop(ctx)
	log.Println("Cleared students and exam_results collections.")

	seedStudents(ctx, db)
	seedResults(ctx, db)

	log.Println("Seeding complete.")
}

func seedStudents(ctx context.Context, db *mongo.Database) {
	studentSeeds := []StudentSeed{
		// Source class cohort
		{"stu-001", "ADM-2024-001", "Amina Rahman", SourceClass, 1},
		{"stu-002", "ADM-2024-002", "Bashir Ahmed", SourceClass, 2},
		{"stu-003", "ADM-2024-003", "Chitra Das", SourceClass, 3},
		{"stu-004", "ADM-2024-004", "Dipu Hossain", SourceClass, 4},
		// Enrolled but no results for the exam: surfaces as incomplete
		{"stu-005", "ADM-2024-005", "Esha Khatun", SourceClass, 5},

		// Target class already has a few occupied rolls, forcing probing
		{"stu-101", "ADM-2023-101", "Farid Uddin", TargetClass, 1},
		{"stu-102", "ADM-2023-102", "Gita Sen", TargetClass, 2},
		{"stu-103", "ADM-2023-103", "Habib Karim", TargetClass, 3},
	}

	docs := make([]interface{}, 0, len(studentSeeds))
	now := time.Now()
	for _, seed := range studentSeeds {
		docs = append(docs, shared.Student{
			ID:         seed.ID,
			SchoolID:   SchoolID,
			StudentID:  seed.StudentID,
			Name:       seed.Name,
			Class:      seed.Class,
			RollNumber: seed.RollNumber,
			IsActive:   true,
			CreatedAt:  now,
		})
	}

	if _, err := db.Collection(shared.CollectionStudents).InsertMany(ctx, docs); err != nil {
		log.Fatalf("Failed to seed students: %v", err)
	}
	log.Printf("Seeded %d students.", len(docs))
}

func seedResults(ctx context.Context, db *mongo.Database) {
	resultSeeds := []ResultSeed{
		// Amina: strong pass
		{"ADM-2024-001", "Amina Rahman", SourceClass, "Bangla", 85, 100, "A+", 5.0},
		{"ADM-2024-001", "Amina Rahman", SourceClass, "English", 78, 100, "A", 4.0},
		{"ADM-2024-001", "Amina Rahman", SourceClass, "Mathematics", 92, 100, "A+", 5.0},

		// Bashir: pass, with a re-entered Mathematics score (last one counts)
		{"ADM-2024-002", "Bashir Ahmed", SourceClass, "Bangla", 60, 100, "A-", 3.5},
		{"ADM-2024-002", "Bashir Ahmed", SourceClass, "English", 55, 100, "B", 3.0},
		{"ADM-2024-002", "Bashir Ahmed", SourceClass, "Mathematics", 38, 100, "D", 1.0},
		{"ADM-2024-002", "Bashir Ahmed", SourceClass, "Mathematics", 48, 100, "C", 2.0},

		// Chitra: fails the subject minimum in English (100-mark paper, min 33)
		{"ADM-2024-003", "Chitra Das", SourceClass, "Bangla", 70, 100, "A", 4.0},
		{"ADM-2024-003", "Chitra Das", SourceClass, "English", 20, 100, "F", 0.0},
		{"ADM-2024-003", "Chitra Das", SourceClass, "Mathematics", 66, 100, "A-", 3.5},

		// Dipu: below the 40% average threshold
		{"ADM-2024-004", "Dipu Hossain", SourceClass, "Bangla", 35, 100, "D", 1.0},
		{"ADM-2024-004", "Dipu Hossain", SourceClass, "English", 34, 100, "D", 1.0},
		{"ADM-2024-004", "Dipu Hossain", SourceClass, "Mathematics", 36, 100, "D", 1.0},

		// Orphan rows: no directory record for this key
		{"ADM-2024-099", "Iqbal Hasan", SourceClass + " (Science)", "Bangla", 50, 100, "B", 3.0},
		{"ADM-2024-099", "Iqbal Hasan", SourceClass + " (Science)", "English", 52, 100, "B", 3.0},
	}

	docs := make([]interface{}, 0, len(resultSeeds))
	base := time.Now().Add(-24 * time.Hour)
	for i, seed := range resultSeeds {
		docs = append(docs, shared.ExamResultRow{
			ID:            shared.GenerateID("RES"),
			SchoolID:      SchoolID,
			StudentKey:    seed.StudentKey,
			StudentName:   seed.StudentName,
			ClassName:     seed.ClassName,
			ExamName:      ExamName,
			Subject:       seed.Subject,
			ObtainedMarks: seed.Obtained,
			TotalMarks:    seed.Total,
			Percentage:    seed.Obtained / seed.Total * 100,
			LetterGrade:   seed.Grade,
			GradePoint:    seed.GradePoint,
			RecordedAt:    base.Add(time.Duration(i) * time.Minute),
		})
	}

	if _, err := db.Collection(shared.CollectionExamResults).InsertMany(ctx, docs); err != nil {
		log.Fatalf("Failed to seed exam results: %v", err)
	}
	log.Printf("Seeded %d exam result rows for %q.", len(docs), ExamName)
}
