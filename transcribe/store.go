package transcribe

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/scribe/redis"
)

// Store is the Redis-backed RecordStore. Records are hashes with a fixed
// TTL from creation; they are written, never read back (write-only audit
// bookkeeping in the current design).
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStore creates a Store. A zero ttl means DefaultRecordTTL.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultRecordTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Create writes a new pending record and starts its TTL. Calling it again
// for the same message overwrites deterministically (last write wins).
func (s *Store) Create(ctx context.Context, messageID, channelID, guildID, url string) error {
	key := RecordKey(messageID)
	err := s.rdb.HSet(ctx, key,
		fieldMessageID, messageID,
		fieldChannelID, channelID,
		fieldGuildID, guildID,
		fieldURL, url,
		fieldState, string(StatePending),
		fieldStarted, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create job record %s: %w", messageID, err)
	}
	if err := s.rdb.Expire(ctx, key, s.ttl); err != nil {
		return fmt.Errorf("set job record ttl %s: %w", messageID, err)
	}
	return nil
}

// MarkDispatched advances the record to dispatched.
func (s *Store) MarkDispatched(ctx context.Context, messageID string) error {
	return s.setState(ctx, messageID, StateDispatched)
}

// MarkDone advances the record to done and stores the result.
func (s *Store) MarkDone(ctx context.Context, messageID, result string) error {
	err := s.rdb.HSet(ctx, RecordKey(messageID),
		fieldState, string(StateDone),
		fieldResult, result,
	)
	if err != nil {
		return fmt.Errorf("mark job %s done: %w", messageID, err)
	}
	return nil
}

// MarkError advances the record to the given failure state.
func (s *Store) MarkError(ctx context.Context, messageID string, state State) error {
	return s.setState(ctx, messageID, state)
}

// setState performs a partial field update; other fields and the TTL are
// left untouched.
func (s *Store) setState(ctx context.Context, messageID string, state State) error {
	if err := s.rdb.HSet(ctx, RecordKey(messageID), fieldState, string(state)); err != nil {
		return fmt.Errorf("mark job %s %s: %w", messageID, state, err)
	}
	return nil
}

var _ RecordStore = (*Store)(nil)
