package memstore

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dlms/dlms-backend/internal/model"
	"github.com/google/uuid"
)

type answersKey struct {
	scheduleID uuid.UUID
	userID     int
}

// Cache is an in-memory exam cache. TTLs are ignored.
type Cache struct {
	mu      sync.Mutex
	papers  map[string][]byte
	trials  map[uuid.UUID]model.TrialSession
	answers map[answersKey]map[int]int

	// Queued records every autosaved answer in push order, standing in for
	// the persistence queue.
	Queued []model.AnswerDraft
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{
		papers:  make(map[string][]byte),
		trials:  make(map[uuid.UUID]model.TrialSession),
		answers: make(map[answersKey]map[int]int),
	}
}

func paperKey(id uuid.UUID, lang model.Language) string {
	return id.String() + ":" + string(lang)
}

// GetPaper returns a cached paper or nil.
func (c *Cache) GetPaper(_ context.Context, scheduleID uuid.UUID, lang model.Language) (*model.ExamPaper, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.papers[paperKey(scheduleID, lang)]
	if !ok {
		return nil, nil
	}
	var paper model.ExamPaper
	if err := json.Unmarshal(data, &paper); err != nil {
		return nil, err
	}
	return &paper, nil
}

// SetPaper caches a paper.
func (c *Cache) SetPaper(_ context.Context, paper *model.ExamPaper, _ time.Duration) error {
	data, err := json.Marshal(paper)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.papers[paperKey(paper.Exam.ID, paper.Language)] = data
	return nil
}

// InvalidatePapers drops every cached paper.
func (c *Cache) InvalidatePapers(_ context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.papers)
	c.papers = make(map[string][]byte)
	return n, nil
}

// PaperCount returns the number of cached papers.
func (c *Cache) PaperCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.papers)
}

// SaveTrial stores a trial session.
func (c *Cache) SaveTrial(_ context.Context, t *model.TrialSession, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *t
	cp.QuestionIDs = append([]uuid.UUID(nil), t.QuestionIDs...)
	c.trials[t.ID] = cp
	return nil
}

// TakeTrial removes and returns a trial session, or nil when absent.
func (c *Cache) TakeTrial(_ context.Context, trialID uuid.UUID) (*model.TrialSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.trials[trialID]
	if !ok {
		return nil, nil
	}
	delete(c.trials, trialID)
	return &t, nil
}

// SaveAnswer records an autosaved answer and queues it.
func (c *Cache) SaveAnswer(_ context.Context, scheduleID uuid.UUID, userID, position, answer int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := answersKey{scheduleID, userID}
	if c.answers[k] == nil {
		c.answers[k] = make(map[int]int)
	}
	c.answers[k][position] = answer
	c.Queued = append(c.Queued, model.AnswerDraft{ScheduleID: scheduleID, UserID: userID, Position: position, Answer: answer})
	return nil
}

// Answers returns the autosaved answers.
func (c *Cache) Answers(_ context.Context, scheduleID uuid.UUID, userID int) (map[int]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[int]int)
	for pos, ans := range c.answers[answersKey{scheduleID, userID}] {
		out[pos] = ans
	}
	return out, nil
}

// ClearAnswers drops a user's autosaved answers.
func (c *Cache) ClearAnswers(_ context.Context, scheduleID uuid.UUID, userID int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.answers, answersKey{scheduleID, userID})
	return nil
}
