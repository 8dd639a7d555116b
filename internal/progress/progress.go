// Package progress keeps partially answered assessments in Redis so a
// respondent can resume later.
package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"assessment-workers/internal/models"
)

const (
	KeyPrefix  = "assessment:progress:"
	DefaultTTL = 24 * time.Hour
)

var ErrNotFound = errors.New("PROGRESS_NOT_FOUND")

type Entry struct {
	Sector    string             `json:"sector"`
	Responses models.ResponseSet `json:"responses"`
	UpdatedAt time.Time          `json:"updated_at"`
}

type Store struct {
	rdb redis.Cmdable
	ttl time.Duration
	now func() time.Time
}

// NewStore returns a store whose entries expire ttl after the last save.
// A non-positive ttl selects DefaultTTL.
func NewStore(rdb redis.Cmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl, now: time.Now}
}

func (s *Store) TTL() time.Duration { return s.ttl }

func Key(assessmentID string) string {
	return KeyPrefix + assessmentID
}

// Save merges responses into the stored entry and refreshes its TTL.
// Switching sector discards the earlier answers.
func (s *Store) Save(ctx context.Context, assessmentID, sector string, responses models.ResponseSet) (Entry, error) {
	merged := responses.Clone()

	existing, err := s.Load(ctx, assessmentID)
	switch {
	case err == nil:
		if existing.Sector == sector {
			merged = existing.Responses.Merge(responses)
		}
	case errors.Is(err, ErrNotFound):
	default:
		return Entry{}, err
	}

	entry := Entry{Sector: sector, Responses: merged, UpdatedAt: s.now().UTC()}
	payload, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("encode progress: %w", err)
	}
	if err := s.rdb.Set(ctx, Key(assessmentID), payload, s.ttl).Err(); err != nil {
		return Entry{}, fmt.Errorf("save progress: %w", err)
	}
	return entry, nil
}

func (s *Store) Load(ctx context.Context, assessmentID string) (Entry, error) {
	val, err := s.rdb.Get(ctx, Key(assessmentID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, assessmentID)
		}
		return Entry{}, fmt.Errorf("load progress: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal([]byte(val), &entry); err != nil {
		return Entry{}, fmt.Errorf("decode progress: %w", err)
	}
	if entry.Responses == nil {
		entry.Responses = models.ResponseSet{}
	}
	return entry, nil
}

func (s *Store) Clear(ctx context.Context, assessmentID string) error {
	if err := s.rdb.Del(ctx, Key(assessmentID)).Err(); err != nil {
		return fmt.Errorf("clear progress: %w", err)
	}
	return nil
}
