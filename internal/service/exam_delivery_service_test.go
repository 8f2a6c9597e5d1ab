package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dlms/dlms-backend/internal/model"
	"github.com/google/uuid"
)

func TestDeliverIsIdempotentAcrossLanguages(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 60)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	sched := f.book(t, citizen.ID, model.ExamTypeTheory)
	ctx := context.Background()

	first, err := f.delivery.Deliver(ctx, sched.ID, citizen.ID, model.LanguageEnglish)
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if len(first.Questions) != 50 {
		t.Fatalf("got %d questions, want 50", len(first.Questions))
	}
	for _, q := range first.Questions {
		if q.Question == "" || len(q.Options) != 4 {
			t.Fatalf("incomplete question %+v", q)
		}
	}

	// Dropping the paper cache must not change the fixed set.
	if _, err := f.cache.InvalidatePapers(ctx); err != nil {
		t.Fatal(err)
	}

	for _, lang := range []model.Language{model.LanguageEnglish, model.LanguageAmharic} {
		again, err := f.delivery.Deliver(ctx, sched.ID, citizen.ID, lang)
		if err != nil {
			t.Fatalf("Deliver(%s): %v", lang, err)
		}
		a, b := paperIDs(first.Questions), paperIDs(again.Questions)
		if len(a) != len(b) {
			t.Fatalf("length changed: %d vs %d", len(a), len(b))
		}
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("%s: position %d changed", lang, i)
			}
		}
	}
}

func TestDeliverSelectsWithoutReplacement(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 50)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	sched := f.book(t, citizen.ID, model.ExamTypeTheory)

	paper, err := f.delivery.Deliver(context.Background(), sched.ID, citizen.ID, "")
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if paper.Language != model.LanguageEnglish {
		t.Fatalf("default language = %s", paper.Language)
	}
	seen := map[uuid.UUID]bool{}
	for _, q := range paper.Questions {
		if seen[q.ID] {
			t.Fatalf("question %s delivered twice", q.ID)
		}
		seen[q.ID] = true
	}
}

func TestDeliverLocalizesWithFallback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	translated := &model.ExamQuestion{
		ExamType: model.ExamTypePractical, Language: model.LanguageEnglish, Category: "signs",
		Difficulty: model.DifficultyEasy, Question: "Stop sign?", Options: []string{"stop", "go"},
		Translations: map[model.Language]model.QuestionText{
			model.LanguageAmharic: {Question: "ቁም ምልክት?", Options: []string{"ቁም", "ሂድ"}},
		},
	}
	untranslated := &model.ExamQuestion{
		ExamType: model.ExamTypePractical, Language: model.LanguageEnglish, Category: "signs",
		Difficulty: model.DifficultyEasy, Question: "Yield sign?", Options: []string{"yield", "go"},
	}
	for _, q := range []*model.ExamQuestion{translated, untranslated} {
		if err := f.store.Questions().Create(ctx, q); err != nil {
			t.Fatal(err)
		}
	}

	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	f.addUser(t, "examiner", model.RoleExaminer)
	sched := f.book(t, citizen.ID, model.ExamTypePractical)
	if _, err := f.schedules.Approve(ctx, sched.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	paper, err := f.delivery.Deliver(ctx, sched.ID, citizen.ID, model.LanguageAmharic)
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if got := paper.Questions[0].Question; got != "ቁም ምልክት?" {
		t.Fatalf("translated question = %q", got)
	}
	if got := paper.Questions[1].Question; got != "Yield sign?" {
		t.Fatalf("fallback question = %q", got)
	}
}

func TestDeliverHidesOtherUsersExams(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 5)
	owner := f.addUser(t, "owner", model.RoleCitizen)
	other := f.addUser(t, "other", model.RoleCitizen)
	sched := f.book(t, owner.ID, model.ExamTypeTheory)

	_, err := f.delivery.Deliver(context.Background(), sched.ID, other.ID, model.LanguageEnglish)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	_, err = f.delivery.Deliver(context.Background(), uuid.New(), owner.ID, model.LanguageEnglish)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestDeliverPracticalGates(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypePractical, 3)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	f.addUser(t, "examiner", model.RoleExaminer)
	sched := f.book(t, citizen.ID, model.ExamTypePractical)
	ctx := context.Background()

	if _, err := f.delivery.Deliver(ctx, sched.ID, citizen.ID, model.LanguageEnglish); !errors.Is(err, ErrExamNotAvailable) {
		t.Fatalf("unapproved practical: err = %v", err)
	}

	if _, err := f.schedules.Approve(ctx, sched.ID); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := f.delivery.Deliver(ctx, sched.ID, citizen.ID, model.LanguageEnglish); err != nil {
		t.Fatalf("approved practical: %v", err)
	}

	f.delivery.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	if _, err := f.delivery.Deliver(ctx, sched.ID, citizen.ID, model.LanguageEnglish); !errors.Is(err, ErrExamExpired) {
		t.Fatalf("overdue practical: err = %v", err)
	}
	stored, _ := f.store.Schedules().GetByID(ctx, sched.ID)
	if stored.Status != model.ScheduleStatusExpired {
		t.Fatalf("status = %s, want expired", stored.Status)
	}
}

func TestDeliverTheoryIgnoresSchedulingGates(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 5)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	sched := f.book(t, citizen.ID, model.ExamTypeTheory)

	f.delivery.now = func() time.Time { return time.Now().Add(30 * 24 * time.Hour) }
	if _, err := f.delivery.Deliver(context.Background(), sched.ID, citizen.ID, model.LanguageEnglish); err != nil {
		t.Fatalf("theory should stay available: %v", err)
	}
}

func TestDeliverWithEmptyBank(t *testing.T) {
	f := newFixture(t)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	sched := f.book(t, citizen.ID, model.ExamTypeTheory)

	_, err := f.delivery.Deliver(context.Background(), sched.ID, citizen.ID, model.LanguageEnglish)
	if !errors.Is(err, ErrNoQuestions) {
		t.Fatalf("err = %v, want ErrNoQuestions", err)
	}
}

func TestTrialCount(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 60)
	ctx := context.Background()

	paper, err := f.delivery.Trial(ctx, 1, model.LanguageEnglish, 0)
	if err != nil {
		t.Fatalf("Trial: %v", err)
	}
	if len(paper.Questions) != 20 {
		t.Fatalf("default trial size = %d, want 20", len(paper.Questions))
	}

	paper, err = f.delivery.Trial(ctx, 1, model.LanguageEnglish, 50)
	if err != nil || len(paper.Questions) != 50 {
		t.Fatalf("Trial(50) = %d, %v", len(paper.Questions), err)
	}

	var ve *ValidationError
	if _, err := f.delivery.Trial(ctx, 1, model.LanguageEnglish, 30); !errors.As(err, &ve) {
		t.Fatalf("Trial(30) err = %v, want ValidationError", err)
	}
}

func TestAutosaveAndState(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 5)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	sched := f.book(t, citizen.ID, model.ExamTypeTheory)
	ctx := context.Background()

	if err := f.delivery.Autosave(ctx, sched.ID, citizen.ID, 0, 1); !errors.Is(err, ErrNotDelivered) {
		t.Fatalf("autosave before delivery: %v", err)
	}

	if _, err := f.delivery.Deliver(ctx, sched.ID, citizen.ID, model.LanguageEnglish); err != nil {
		t.Fatal(err)
	}
	if err := f.delivery.Autosave(ctx, sched.ID, citizen.ID, 2, 3); err != nil {
		t.Fatalf("Autosave: %v", err)
	}
	var ve *ValidationError
	if err := f.delivery.Autosave(ctx, sched.ID, citizen.ID, 5, 0); !errors.As(err, &ve) {
		t.Fatalf("out of range position: %v", err)
	}

	state, err := f.delivery.State(ctx, sched.ID, citizen.ID)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if !state.Delivered || state.Questions != 5 || state.Answers[2] != 3 {
		t.Fatalf("state = %+v", state)
	}
	if len(f.cache.Queued) != 1 {
		t.Fatalf("queued %d drafts, want 1", len(f.cache.Queued))
	}
}

func TestStateFallsBackToDrafts(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 5)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	sched := f.book(t, citizen.ID, model.ExamTypeTheory)
	ctx := context.Background()

	if _, err := f.delivery.Deliver(ctx, sched.ID, citizen.ID, model.LanguageEnglish); err != nil {
		t.Fatal(err)
	}
	if err := f.store.Drafts().Upsert(ctx, sched.ID, citizen.ID, 4, 2); err != nil {
		t.Fatal(err)
	}

	state, err := f.delivery.State(ctx, sched.ID, citizen.ID)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.Answers[4] != 2 {
		t.Fatalf("answers = %v", state.Answers)
	}
}

func TestTrialUsesConfiguredDefault(t *testing.T) {
	f := newFixture(t)
	f.cfg.TrialQuestionCount = 10
	f.addQuestions(t, model.ExamTypeTheory, 12)

	paper, err := f.delivery.Trial(context.Background(), 1, model.LanguageEnglish, 0)
	if err != nil {
		t.Fatalf("Trial: %v", err)
	}
	if len(paper.Questions) != 10 {
		t.Fatalf("questions = %d, want 10", len(paper.Questions))
	}
}
