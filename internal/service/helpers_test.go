package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dlms/dlms-backend/internal/config"
	"github.com/dlms/dlms-backend/internal/memstore"
	"github.com/dlms/dlms-backend/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type fixture struct {
	cfg   *config.Config
	store *memstore.Store
	cache *memstore.Cache

	delivery  *ExamDeliveryService
	scoring   *ExamScoringService
	schedules *ScheduleService
	questions *QuestionService
	licenses  *LicenseService
	auth      *AuthService
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:              "test-secret",
		JWTExpiry:              time.Hour,
		BcryptCost:             4,
		PassThreshold:          74,
		TrialPassThreshold:     70,
		TheoryQuestionCount:    50,
		TrialQuestionCount:     20,
		PracticalQuestionCount: 30,
		PracticalExpiryWindow:  24 * time.Hour,
		PaperCacheTTL:          time.Hour,
		TrialSessionTTL:        time.Hour,
		MaxLicensePoints:       12,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testConfig()
	store := memstore.New()
	cache := memstore.NewCache()
	log := zerolog.Nop()

	catalog, err := config.LoadViolationCatalog("")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	return &fixture{
		cfg:       cfg,
		store:     store,
		cache:     cache,
		delivery:  NewExamDeliveryService(cfg, store.Schedules(), store.Questions(), store.Drafts(), cache, log),
		scoring:   NewExamScoringService(cfg, store.Schedules(), store.Questions(), store.Results(), store.Drafts(), cache, log),
		schedules: NewScheduleService(cfg, store.Schedules(), nil, log),
		questions: NewQuestionService(store.Questions(), cache, log),
		licenses:  NewLicenseService(cfg, catalog, store.Licenses(), log),
		auth:      NewAuthService(cfg, store.Users()),
	}
}

// addQuestions seeds n four-option questions; question i has correct answer i%4.
func (f *fixture) addQuestions(t *testing.T, examType model.ExamType, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		q := &model.ExamQuestion{
			ExamType:      examType,
			Language:      model.LanguageEnglish,
			Category:      "signs",
			Difficulty:    model.DifficultyEasy,
			Question:      fmt.Sprintf("%s question %d", examType, i),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: i % 4,
		}
		if err := f.store.Questions().Create(context.Background(), q); err != nil {
			t.Fatal(err)
		}
	}
}

func (f *fixture) addUser(t *testing.T, name string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{Name: name, Email: name + "@dlms.test", Role: role, Active: true}
	if err := f.store.Users().Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u
}

func (f *fixture) book(t *testing.T, userID int, examType model.ExamType) *model.ExamSchedule {
	t.Helper()
	at := time.Now().Add(time.Hour)
	sched, err := f.schedules.Book(context.Background(), userID, model.BookExamRequest{
		ExamType:    examType,
		ScheduledAt: &at,
		Location:    "Addis Ababa",
	})
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return sched
}

// correctAnswers returns the answer key of a delivered paper.
func (f *fixture) correctAnswers(t *testing.T, paperIDs []uuid.UUID) []int {
	t.Helper()
	out := make([]int, len(paperIDs))
	for i, id := range paperIDs {
		q, err := f.store.Questions().GetByID(context.Background(), id)
		if err != nil {
			t.Fatal(err)
		}
		out[i] = q.CorrectAnswer
	}
	return out
}

func paperIDs(questions []model.QuestionForTaker) []uuid.UUID {
	ids := make([]uuid.UUID, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}

func intPtr(v int) *int { return &v }
