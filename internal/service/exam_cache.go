package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dlms/dlms-backend/internal/config"
	"github.com/dlms/dlms-backend/internal/model"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisExamCache is the Redis-backed ExamCache.
type RedisExamCache struct {
	rdb *redis.Client
}

// NewRedisExamCache creates a new RedisExamCache.
func NewRedisExamCache(rdb *redis.Client) *RedisExamCache {
	return &RedisExamCache{rdb: rdb}
}

// GetPaper returns the cached paper, or nil on a cache miss.
func (c *RedisExamCache) GetPaper(ctx context.Context, scheduleID uuid.UUID, lang model.Language) (*model.ExamPaper, error) {
	key := config.CacheKey.ExamPaperKey(scheduleID.String(), string(lang))
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}

	var paper model.ExamPaper
	if err := json.Unmarshal(data, &paper); err != nil {
		return nil, fmt.Errorf("decode paper: %w", err)
	}
	return &paper, nil
}

// SetPaper caches a delivered paper.
func (c *RedisExamCache) SetPaper(ctx context.Context, paper *model.ExamPaper, ttl time.Duration) error {
	data, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("encode paper: %w", err)
	}
	key := config.CacheKey.ExamPaperKey(paper.Exam.ID.String(), string(paper.Language))
	return c.rdb.Set(ctx, key, data, ttl).Err()
}

// InvalidatePapers drops every cached paper so the next delivery re-reads
// question text. Question sets are stored on the schedule and survive.
func (c *RedisExamCache) InvalidatePapers(ctx context.Context) (int, error) {
	deleted := 0
	iter := c.rdb.Scan(ctx, 0, config.CacheKey.ExamPaperPattern(), 200).Iterator()

	batch := make([]string, 0, 200)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := c.rdb.Del(ctx, batch...).Result()
		deleted += int(n)
		batch = batch[:0]
		return err
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == cap(batch) {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	return deleted, flush()
}

// SaveTrial stores a trial session.
func (c *RedisExamCache) SaveTrial(ctx context.Context, t *model.TrialSession, ttl time.Duration) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode trial: %w", err)
	}
	return c.rdb.Set(ctx, config.CacheKey.TrialSessionKey(t.ID.String()), data, ttl).Err()
}

// TakeTrial atomically reads and removes a trial session, so a trial can
// be graded once. It returns nil when the session is absent or expired.
func (c *RedisExamCache) TakeTrial(ctx context.Context, trialID uuid.UUID) (*model.TrialSession, error) {
	data, err := c.rdb.GetDel(ctx, config.CacheKey.TrialSessionKey(trialID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("take trial: %w", err)
	}

	var t model.TrialSession
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("decode trial: %w", err)
	}
	return &t, nil
}

// SaveAnswer records an autosaved answer in the user's hash and queues it
// for persistence by the autosave worker.
func (c *RedisExamCache) SaveAnswer(ctx context.Context, scheduleID uuid.UUID, userID, position, answer int) error {
	key := config.CacheKey.UserAnswersKey(scheduleID.String(), userID)
	payload, err := json.Marshal(model.AnswerDraft{
		ScheduleID: scheduleID,
		UserID:     userID,
		Position:   position,
		Answer:     answer,
	})
	if err != nil {
		return err
	}

	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, strconv.Itoa(position), answer)
	pipe.RPush(ctx, config.WorkerKey.AutosaveQueue, payload)
	_, err = pipe.Exec(ctx)
	return err
}

// Answers returns the autosaved answers keyed by position.
func (c *RedisExamCache) Answers(ctx context.Context, scheduleID uuid.UUID, userID int) (map[int]int, error) {
	raw, err := c.rdb.HGetAll(ctx, config.CacheKey.UserAnswersKey(scheduleID.String(), userID)).Result()
	if err != nil {
		return nil, err
	}

	answers := make(map[int]int, len(raw))
	for field, val := range raw {
		pos, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		ans, err := strconv.Atoi(val)
		if err != nil {
			continue
		}
		answers[pos] = ans
	}
	return answers, nil
}

// ClearAnswers drops the autosave hash once a submission is persisted.
func (c *RedisExamCache) ClearAnswers(ctx context.Context, scheduleID uuid.UUID, userID int) error {
	return c.rdb.Del(ctx, config.CacheKey.UserAnswersKey(scheduleID.String(), userID)).Err()
}
