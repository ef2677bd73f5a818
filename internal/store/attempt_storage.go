package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/biletnik/biletnik-backend/internal/config"
	"github.com/biletnik/biletnik-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AttemptStorage holds the in-progress attempt of one session so a reload
// can restore it. Keys expire well past the exam budget; a finished attempt
// is removed explicitly as part of the terminal transition.
type AttemptStorage struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
}

// NewAttemptStorage creates an AttemptStorage. examDuration sizes the key
// TTL (twice the budget, so an abandoned attempt eventually disappears).
func NewAttemptStorage(rdb *redis.Client, examDuration time.Duration, log zerolog.Logger) *AttemptStorage {
	return &AttemptStorage{
		rdb: rdb,
		ttl: 2 * examDuration,
		log: log.With().Str("component", "attempt_storage").Logger(),
	}
}

// Get returns the stored attempt for a session, or nil if none exists.
func (s *AttemptStorage) Get(ctx context.Context, sessionID string) (*model.ExamAttempt, error) {
	data, err := s.rdb.Get(ctx, config.StoreKey.CurrentExamKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get current exam: %w", err)
	}

	var attempt model.ExamAttempt
	if err := json.Unmarshal(data, &attempt); err != nil {
		return nil, fmt.Errorf("unmarshal current exam: %w", err)
	}
	return &attempt, nil
}

// Set stores the attempt for a session.
func (s *AttemptStorage) Set(ctx context.Context, sessionID string, attempt model.ExamAttempt) error {
	data, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal current exam: %w", err)
	}
	if err := s.rdb.Set(ctx, config.StoreKey.CurrentExamKey(sessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("set current exam: %w", err)
	}
	return nil
}

// Remove deletes the stored attempt for a session.
func (s *AttemptStorage) Remove(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, config.StoreKey.CurrentExamKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("remove current exam: %w", err)
	}
	return nil
}
