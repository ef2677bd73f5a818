package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/biletnik/biletnik-backend/internal/config"
	"github.com/biletnik/biletnik-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DocumentStore is the realtime key-value document client. Two flat documents
// are used: "subjects" (the subject list) and "examWorks" (the exam attempt
// records). Each document is stored whole as a JSON string; every write
// publishes a change notification on the document's Pub/Sub channel so
// subscribed renderers can refresh, including after the caller's own writes.
//
// Read failures never propagate: they are logged and degrade to an empty
// list, so callers render "no data" instead of failing. Write failures are
// returned to the caller (and logged); unlike reads, the initiating action
// should know its data did not land.
type DocumentStore struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewDocumentStore creates a DocumentStore on the given Redis client.
func NewDocumentStore(rdb *redis.Client, log zerolog.Logger) *DocumentStore {
	return &DocumentStore{
		rdb: rdb,
		log: log.With().Str("component", "document_store").Logger(),
	}
}

// Subjects reads the full subjects document. Absent or unreadable documents
// yield an empty list.
func (s *DocumentStore) Subjects(ctx context.Context) []model.Subject {
	var subjects []model.Subject
	s.readDocument(ctx, config.StoreKey.SubjectsDocument(), &subjects)
	if subjects == nil {
		subjects = []model.Subject{}
	}
	return subjects
}

// SaveSubjects overwrites the subjects document wholesale and notifies
// subscribers. Concurrent admin edits are last-writer-wins.
func (s *DocumentStore) SaveSubjects(ctx context.Context, subjects []model.Subject) error {
	return s.writeDocument(ctx, config.StoreKey.SubjectsDocument(), subjects)
}

// Works reads the full examWorks document. Absent or unreadable documents
// yield an empty list.
func (s *DocumentStore) Works(ctx context.Context) []model.ExamAttempt {
	var works []model.ExamAttempt
	s.readDocument(ctx, config.StoreKey.WorksDocument(), &works)
	if works == nil {
		works = []model.ExamAttempt{}
	}
	return works
}

// SaveWorks overwrites the examWorks document wholesale and notifies
// subscribers.
func (s *DocumentStore) SaveWorks(ctx context.Context, works []model.ExamAttempt) error {
	return s.writeDocument(ctx, config.StoreKey.WorksDocument(), works)
}

// AppendWork appends one submitted attempt to the examWorks document and
// queues it for the durable archive. The append is a whole-document
// read-modify-write: two sessions submitting at the same instant can race
// and lose one append at the document level. The archive queue entry is
// pushed first, so the durable per-record copy survives either way.
func (s *DocumentStore) AppendWork(ctx context.Context, attempt model.ExamAttempt) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("marshal attempt: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.ArchiveWorksQueue, payload).Err(); err != nil {
		// Archive is best-effort: the store document remains the primary copy.
		s.log.Error().Err(err).Str("attempt_id", attempt.ID).Msg("Archive enqueue failed")
	}

	works := s.Works(ctx)
	works = append(works, attempt)
	if err := s.SaveWorks(ctx, works); err != nil {
		return fmt.Errorf("append work: %w", err)
	}
	return nil
}

// Subscribe opens a Pub/Sub subscription to the change channels of the named
// documents. The caller owns the returned subscription and must Close it.
func (s *DocumentStore) Subscribe(ctx context.Context, documents ...string) *redis.PubSub {
	channels := make([]string, len(documents))
	for i, d := range documents {
		channels[i] = config.StoreKey.DocumentChannel(d)
	}
	return s.rdb.Subscribe(ctx, channels...)
}

func (s *DocumentStore) readDocument(ctx context.Context, key string, dst any) {
	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.log.Error().Err(err).Str("document", key).Msg("Document read failed, falling back to empty")
		}
		return
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.log.Error().Err(err).Str("document", key).Msg("Document unmarshal failed, falling back to empty")
	}
}

func (s *DocumentStore) writeDocument(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", key, err)
	}
	if err := s.rdb.Set(ctx, key, data, 0).Err(); err != nil {
		s.log.Error().Err(err).Str("document", key).Msg("Document write failed")
		return fmt.Errorf("write document %s: %w", key, err)
	}
	// Notify after the write lands. Subscribers re-read the document, so a
	// lost notification only delays a refresh.
	if err := s.rdb.Publish(ctx, config.StoreKey.DocumentChannel(key), key).Err(); err != nil {
		s.log.Warn().Err(err).Str("document", key).Msg("Change notification failed")
	}
	return nil
}
