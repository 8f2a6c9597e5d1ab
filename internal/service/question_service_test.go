package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dlms/dlms-backend/internal/model"
	"github.com/google/uuid"
)

func questionRequest() *model.QuestionRequest {
	return &model.QuestionRequest{
		ExamType:      model.ExamTypeTheory,
		Language:      model.LanguageEnglish,
		Category:      "road signs",
		Difficulty:    model.DifficultyMedium,
		Question:      "What does a red octagon mean?",
		Options:       []string{"Stop", "Yield", "Go"},
		CorrectAnswer: intPtr(0),
		Translations: map[model.Language]model.QuestionText{
			model.LanguageAmharic: {Question: "ቀይ ስምንት ጎን ምን ማለት ነው?", Options: []string{"ቁም", "ቅድሚያ ስጥ", "ሂድ"}},
		},
	}
}

func TestCreateQuestionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(r *model.QuestionRequest)
		field  string
	}{
		{"correct out of range", func(r *model.QuestionRequest) { r.CorrectAnswer = intPtr(3) }, "correct_answer"},
		{"translation option count", func(r *model.QuestionRequest) {
			r.Translations[model.LanguageAmharic] = model.QuestionText{Question: "x", Options: []string{"a"}}
		}, "translations.am"},
		{"translation repeats base", func(r *model.QuestionRequest) {
			r.Translations = map[model.Language]model.QuestionText{
				model.LanguageEnglish: {Question: "x", Options: []string{"a", "b", "c"}},
			}
		}, "translations.en"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := questionRequest()
			tc.mutate(req)
			_, err := f.questions.Create(ctx, req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if _, ok := ve.Fields[tc.field]; !ok {
				t.Fatalf("fields = %v, want %s", ve.Fields, tc.field)
			}
		})
	}
}

func TestQuestionLifecycleInvalidatesPapers(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 3)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	f.deliver(t, citizen.ID)
	ctx := context.Background()

	if f.cache.PaperCount() != 1 {
		t.Fatalf("expected one cached paper, got %d", f.cache.PaperCount())
	}

	q, err := f.questions.Create(ctx, questionRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if f.cache.PaperCount() != 0 {
		t.Fatal("create should invalidate cached papers")
	}

	req := questionRequest()
	req.Question = "Updated?"
	updated, err := f.questions.Update(ctx, q.ID, req)
	if err != nil || updated.Question != "Updated?" {
		t.Fatalf("Update = %+v, %v", updated, err)
	}

	if err := f.questions.Delete(ctx, q.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.questions.Update(ctx, q.ID, req); !errors.Is(err, ErrNotFound) {
		t.Fatalf("update after delete err = %v", err)
	}
	if err := f.questions.Delete(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete unknown err = %v", err)
	}

	items, pagination, err := f.questions.List(ctx, model.QuestionFilter{ExamType: model.ExamTypeTheory}, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 || pagination.TotalItems != 3 {
		t.Fatalf("listed %d (total %d), want 3 live questions", len(items), pagination.TotalItems)
	}
}
