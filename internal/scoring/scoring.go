// Package scoring grades positional multiple-choice answers.
package scoring

import (
	"errors"

	"github.com/google/uuid"
)

// Unanswered is recorded for positions with no answer or an answer outside
// the option range. It never equals a correct index.
const Unanswered = -1

// ErrNoQuestions is returned when there is nothing to grade.
var ErrNoQuestions = errors.New("cannot score an exam with no questions")

// Item is the answer key of one delivered question position.
type Item struct {
	QuestionID  uuid.UUID
	Correct     int
	OptionCount int
}

// Outcome is the graded result of one position.
type Outcome struct {
	QuestionID uuid.UUID
	Submitted  int
	IsCorrect  bool
}

// Result aggregates a graded submission.
type Result struct {
	Outcomes     []Outcome
	CorrectCount int
	Total        int
	Percentage   int
	Passed       bool
	Threshold    int
}

// Score grades answers against items position by position. Missing and
// out-of-range answers count as incorrect; answers beyond len(items) are
// ignored.
func Score(items []Item, answers []int, threshold int) (Result, error) {
	if len(items) == 0 {
		return Result{}, ErrNoQuestions
	}

	outcomes := make([]Outcome, len(items))
	correct := 0
	for i, it := range items {
		submitted := Unanswered
		if i < len(answers) && answers[i] >= 0 && answers[i] < it.OptionCount {
			submitted = answers[i]
		}

		ok := submitted != Unanswered && submitted == it.Correct
		if ok {
			correct++
		}
		outcomes[i] = Outcome{QuestionID: it.QuestionID, Submitted: submitted, IsCorrect: ok}
	}

	pct := Percentage(correct, len(items))
	return Result{
		Outcomes:     outcomes,
		CorrectCount: correct,
		Total:        len(items),
		Percentage:   pct,
		Passed:       pct >= threshold,
		Threshold:    threshold,
	}, nil
}

// Cancelled returns the result recorded for an abandoned attempt: every
// position unanswered, zero correct, not passed.
func Cancelled(items []Item, threshold int) Result {
	outcomes := make([]Outcome, len(items))
	for i, it := range items {
		outcomes[i] = Outcome{QuestionID: it.QuestionID, Submitted: Unanswered}
	}
	return Result{
		Outcomes:  outcomes,
		Total:     len(items),
		Threshold: threshold,
	}
}

// Percentage returns round(100*correct/total) with halves rounded up.
// total must be positive.
func Percentage(correct, total int) int {
	return (200*correct + total) / (2 * total)
}
