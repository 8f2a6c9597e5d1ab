package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/dlms/dlms-backend/internal/model"
	"github.com/dlms/dlms-backend/internal/scoring"
)

// deliver books and delivers a theory exam and returns its answer key.
func (f *fixture) deliver(t *testing.T, userID int) (*model.ExamSchedule, []int) {
	t.Helper()
	sched := f.book(t, userID, model.ExamTypeTheory)
	paper, err := f.delivery.Deliver(context.Background(), sched.ID, userID, model.LanguageEnglish)
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	return sched, f.correctAnswers(t, paperIDs(paper.Questions))
}

func TestSubmitScoresFourOfFive(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 5)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	sched, key := f.deliver(t, citizen.ID)

	answers := make([]*int, len(key))
	for i, c := range key {
		answers[i] = intPtr(c)
	}
	answers[4] = intPtr((key[4] + 1) % 4)

	res, err := f.scoring.Submit(context.Background(), SubmitInput{
		ScheduleID: sched.ID,
		UserID:     citizen.ID,
		UserName:   citizen.Name,
		Answers:    answers,
		TimeSpent:  600,
		Language:   model.LanguageEnglish,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Score != 80 || !res.Passed || res.CorrectAnswers != 4 || res.TotalQuestions != 5 {
		t.Fatalf("result = %+v", res.Summary())
	}
	if res.Attempt != 1 || res.Threshold != 74 {
		t.Fatalf("attempt=%d threshold=%d", res.Attempt, res.Threshold)
	}
	if res.Answers[4].IsCorrect || !res.Answers[0].IsCorrect {
		t.Fatalf("outcomes = %+v", res.Answers)
	}

	stored, _ := f.store.Schedules().GetByID(context.Background(), sched.ID)
	if stored.Status != model.ScheduleStatusCompleted {
		t.Fatalf("schedule status = %s", stored.Status)
	}
}

func TestSubmitTreatsMissingAnswersAsIncorrect(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 4)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	sched, _ := f.deliver(t, citizen.ID)

	// Null, out of range, then nothing for the last two positions.
	answers := []*int{nil, intPtr(9)}

	res, err := f.scoring.Submit(context.Background(), SubmitInput{
		ScheduleID: sched.ID, UserID: citizen.ID, Answers: answers,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.CorrectAnswers != 0 || res.Score != 0 || res.Passed {
		t.Fatalf("result = %+v", res.Summary())
	}
	for i, o := range res.Answers {
		if o.Submitted != scoring.Unanswered || o.IsCorrect {
			t.Fatalf("position %d = %+v", i, o)
		}
	}
}

func TestSubmitTwiceIsRejected(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 3)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	sched, _ := f.deliver(t, citizen.ID)
	ctx := context.Background()

	in := SubmitInput{ScheduleID: sched.ID, UserID: citizen.ID, Answers: []*int{intPtr(0)}}
	if _, err := f.scoring.Submit(ctx, in); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := f.scoring.Submit(ctx, in); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("second submit err = %v", err)
	}

	results, _ := f.scoring.ListResults(ctx, citizen.ID)
	if len(results) != 1 {
		t.Fatalf("stored %d results, want 1", len(results))
	}
}

func TestSubmitBeforeDelivery(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 3)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	sched := f.book(t, citizen.ID, model.ExamTypeTheory)

	_, err := f.scoring.Submit(context.Background(), SubmitInput{ScheduleID: sched.ID, UserID: citizen.ID})
	if !errors.Is(err, ErrNotDelivered) {
		t.Fatalf("err = %v, want ErrNotDelivered", err)
	}
}

func TestCancelledAttemptConsumesOrdinal(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 5)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	ctx := context.Background()

	first, key := f.deliver(t, citizen.ID)
	answers := make([]*int, len(key))
	for i, c := range key {
		answers[i] = intPtr(c)
	}
	res, err := f.scoring.Submit(ctx, SubmitInput{ScheduleID: first.ID, UserID: citizen.ID, Answers: answers, Cancelled: true})
	if err != nil {
		t.Fatalf("cancelled submit: %v", err)
	}
	if !res.Cancelled || res.CorrectAnswers != 0 || res.Passed || res.Attempt != 1 {
		t.Fatalf("cancelled result = %+v", res.Summary())
	}
	stored, _ := f.store.Schedules().GetByID(ctx, first.ID)
	if stored.Status != model.ScheduleStatusCancelled {
		t.Fatalf("status = %s, want cancelled", stored.Status)
	}

	second, _ := f.deliver(t, citizen.ID)
	res, err = f.scoring.Submit(ctx, SubmitInput{ScheduleID: second.ID, UserID: citizen.ID})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if res.Attempt != 2 {
		t.Fatalf("attempt = %d, want 2", res.Attempt)
	}
}

func TestConcurrentSubmissionsGetDistinctAttempts(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 5)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)

	const n = 8
	schedules := make([]*model.ExamSchedule, n)
	for i := range schedules {
		schedules[i], _ = f.deliver(t, citizen.ID)
	}

	var wg sync.WaitGroup
	attempts := make([]int, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.scoring.Submit(context.Background(), SubmitInput{ScheduleID: schedules[i].ID, UserID: citizen.ID})
			errs[i] = err
			if err == nil {
				attempts[i] = res.Attempt
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
	}
	sort.Ints(attempts)
	for i, a := range attempts {
		if a != i+1 {
			t.Fatalf("attempts = %v, want 1..%d", attempts, n)
		}
	}
}

func TestSoftDeletedQuestionStillGraded(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 3)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	sched := f.book(t, citizen.ID, model.ExamTypeTheory)
	ctx := context.Background()

	paper, err := f.delivery.Deliver(ctx, sched.ID, citizen.ID, model.LanguageEnglish)
	if err != nil {
		t.Fatal(err)
	}
	key := f.correctAnswers(t, paperIDs(paper.Questions))
	if err := f.questions.Delete(ctx, paper.Questions[0].ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	answers := []*int{intPtr(key[0]), intPtr(key[1]), intPtr(key[2])}
	res, err := f.scoring.Submit(ctx, SubmitInput{ScheduleID: sched.ID, UserID: citizen.ID, Answers: answers})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.TotalQuestions != 3 || res.Score != 100 {
		t.Fatalf("result = %+v", res.Summary())
	}
}

func TestSubmitAutosaved(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 4)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	sched, key := f.deliver(t, citizen.ID)
	ctx := context.Background()

	for pos := 0; pos < 3; pos++ {
		if err := f.delivery.Autosave(ctx, sched.ID, citizen.ID, pos, key[pos]); err != nil {
			t.Fatal(err)
		}
	}

	res, err := f.scoring.SubmitAutosaved(ctx, sched.ID, citizen.ID, citizen.Name, model.LanguageEnglish)
	if err != nil {
		t.Fatalf("SubmitAutosaved: %v", err)
	}
	if res.CorrectAnswers != 3 || res.Score != 75 || !res.Passed {
		t.Fatalf("result = %+v", res.Summary())
	}

	saved, _ := f.cache.Answers(ctx, sched.ID, citizen.ID)
	if len(saved) != 0 {
		t.Fatalf("autosave hash not cleared: %v", saved)
	}
}

func TestSubmitAutosavedFallsBackToDrafts(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 5)
	citizen := f.addUser(t, "hana", model.RoleCitizen)
	sched, key := f.deliver(t, citizen.ID)
	ctx := context.Background()

	for pos, ans := range key {
		if err := f.delivery.Autosave(ctx, sched.ID, citizen.ID, pos, ans); err != nil {
			t.Fatal(err)
		}
		if err := f.store.Drafts().Upsert(ctx, sched.ID, citizen.ID, pos, ans); err != nil {
			t.Fatal(err)
		}
	}
	// Redis hash evicted; only the worker-persisted drafts remain.
	if err := f.cache.ClearAnswers(ctx, sched.ID, citizen.ID); err != nil {
		t.Fatal(err)
	}

	res, err := f.scoring.SubmitAutosaved(ctx, sched.ID, citizen.ID, citizen.Name, model.LanguageEnglish)
	if err != nil {
		t.Fatalf("SubmitAutosaved: %v", err)
	}
	if res.CorrectAnswers != 5 || res.Score != 100 || !res.Passed {
		t.Fatalf("result = %+v", res.Summary())
	}
}

func TestSubmitTrial(t *testing.T) {
	f := newFixture(t)
	f.addQuestions(t, model.ExamTypeTheory, 20)
	citizen := f.addUser(t, "abebe", model.RoleCitizen)
	intruder := f.addUser(t, "intruder", model.RoleCitizen)
	ctx := context.Background()

	paper, err := f.delivery.Trial(ctx, citizen.ID, model.LanguageEnglish, 20)
	if err != nil {
		t.Fatalf("Trial: %v", err)
	}
	key := f.correctAnswers(t, paperIDs(paper.Questions))

	// 14 of 20 = 70%, exactly the trial threshold.
	answers := make([]*int, len(key))
	for i := 0; i < 14; i++ {
		answers[i] = intPtr(key[i])
	}

	_, err = f.scoring.SubmitTrial(ctx, TrialSubmitInput{TrialID: paper.TrialID, UserID: intruder.ID, Answers: answers})
	if !errors.Is(err, ErrTrialNotFound) {
		t.Fatalf("foreign submit err = %v", err)
	}

	res, err := f.scoring.SubmitTrial(ctx, TrialSubmitInput{TrialID: paper.TrialID, UserID: citizen.ID, Answers: answers})
	if err != nil {
		t.Fatalf("SubmitTrial: %v", err)
	}
	if res.Score != 70 || !res.Passed || res.Threshold != 70 || res.ExamType != model.ExamTypeTrial {
		t.Fatalf("result = %+v", res)
	}

	_, err = f.scoring.SubmitTrial(ctx, TrialSubmitInput{TrialID: paper.TrialID, UserID: citizen.ID, Answers: answers})
	if !errors.Is(err, ErrTrialNotFound) {
		t.Fatalf("resubmit err = %v", err)
	}
}
