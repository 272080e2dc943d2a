package tests

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"school_sms/backend/internal/gateway"
	"school_sms/backend/internal/gateway/handlers"
	"school_sms/backend/internal/promotion"
	"school_sms/backend/internal/shared"
)

const (
	testJWTSecret = "gateway-test-secret"
	testSchoolID  = "SCH-TEST"
)

// memStore is an in-memory directory + mutation sink + audit sink so the
// gateway tests run against the real router and service wiring without a
// live database.
type memStore struct {
	students map[string]*shared.Student
	audits   int
}

func newMemStore(students ...shared.Student) *memStore {
	store := &memStore{students: make(map[string]*shared.Student)}
	for i := range students {
		s := students[i]
		store.students[s.ID] = &s
	}
	return store
}

func (m *memStore) StudentByStudentID(ctx context.Context, schoolID, studentID string) (*shared.Student, error) {
	for _, s := range m.students {
		if s.SchoolID == schoolID && s.StudentID == studentID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *memStore) StudentsInClass(ctx context.Context, schoolID, className string) ([]shared.Student, error) {
	var out []shared.Student
	for _, s := range m.students {
		if s.SchoolID == schoolID && s.Class == className && s.IsActive {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memStore) UpdateClassAndRoll(ctx context.Context, id, className string, rollNumber int32) error {
	s, ok := m.students[id]
	if !ok {
		return errors.New("student not found")
	}
	s.Class = className
	s.RollNumber = rollNumber
	return nil
}

func (m *memStore) Record(ctx context.Context, userID, action, resource string, details map[string]interface{}) error {
	m.audits++
	return nil
}

type memSource struct {
	rows []shared.ExamResultRow
}

func (m *memSource) ResultsForExam(ctx context.Context, schoolID, examName string) ([]shared.ExamResultRow, error) {
	var out []shared.ExamResultRow
	for _, row := range m.rows {
		if row.SchoolID == schoolID && row.ExamName == examName {
			out = append(out, row)
		}
	}
	return out, nil
}

// testEnv bundles the router and its backing fakes for one test
type testEnv struct {
	Router *chi.Mux
	Store  *memStore
}

func setupGatewayTestEnv(t *testing.T, store *memStore, source *memSource) *testEnv {
	t.Helper()

	cfg := &shared.GatewayConfig{
		ServiceConfig: shared.ServiceConfig{
			ServiceName: "gateway-test",
			Environment: "test",
			Security: shared.SecurityConfig{
				JWTSecret:          testJWTSecret,
				JWTExpirationHours: 1,
			},
			Promotion: shared.PromotionConfig{
				DefaultPassThreshold: 40,
				RollProbeLimit:       100,
				QueryTimeout:         5 * time.Second,
			},
		},
		HTTPPort: "0",
		CORS: shared.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Authorization", "Content-Type"},
		},
	}

	service := promotion.NewService(store, source, store, store, cfg.Promotion)
	handler := handlers.NewPromotionHandler(service)

	return &testEnv{
		Router: gateway.SetupRoutes(handler, cfg),
		Store:  store,
	}
}

// mintToken signs a JWT the way the surrounding application would
func mintToken(t *testing.T, role string) string {
	t.Helper()

	claims := &handlers.AuthClaims{
		UserID:   fmt.Sprintf("user-%s", role),
		Role:     role,
		SchoolID: testSchoolID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return signed
}

func student(id, studentID, name, class string, roll int32) shared.Student {
	return shared.Student{
		ID:         id,
		SchoolID:   testSchoolID,
		StudentID:  studentID,
		Name:       name,
		Class:      class,
		RollNumber: roll,
		IsActive:   true,
	}
}

func examRow(studentKey, name, class, exam, subject string, obtained, total float64) shared.ExamResultRow {
	return shared.ExamResultRow{
		SchoolID:      testSchoolID,
		StudentKey:    studentKey,
		StudentName:   name,
		ClassName:     class,
		ExamName:      exam,
		Subject:       subject,
		ObtainedMarks: obtained,
		TotalMarks:    total,
		Percentage:    obtained / total * 100,
	}
}
