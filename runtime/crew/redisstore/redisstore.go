// Package redisstore implements crew.OutputStore on top of Redis, writing
// under "crew:<id>:output" with a configurable TTL.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crewforge/orchestrator/runtime/crew"
)

// Store is a crew.OutputStore backed by a Redis client.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New builds a Store. ttl of zero means the key never expires.
func New(client *redis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

func outputKey(crewID string) string { return fmt.Sprintf("crew:%s:output", crewID) }

// SaveOutput marshals output (minus its chat transcripts, see
// crew.StoredCrewOutput) and writes it to "crew:<id>:output".
func (s *Store) SaveOutput(ctx context.Context, crewID string, output *crew.CrewOutput) error {
	data, err := json.Marshal(output.ToStored())
	if err != nil {
		return fmt.Errorf("redisstore: marshal crew output: %w", err)
	}
	if err := s.client.Set(ctx, outputKey(crewID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redisstore: save crew output: %w", err)
	}
	return nil
}

// LoadOutput reads and unmarshals "crew:<id>:output".
func (s *Store) LoadOutput(ctx context.Context, crewID string) (*crew.CrewOutput, error) {
	data, err := s.client.Get(ctx, outputKey(crewID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("redisstore: no stored output for crew %s", crewID)
		}
		return nil, fmt.Errorf("redisstore: load crew output: %w", err)
	}
	var stored crew.StoredCrewOutput
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("redisstore: unmarshal crew output: %w", err)
	}
	return crew.FromStored(stored), nil
}

// DeleteOutput removes "crew:<id>:output".
func (s *Store) DeleteOutput(ctx context.Context, crewID string) error {
	if err := s.client.Del(ctx, outputKey(crewID)).Err(); err != nil {
		return fmt.Errorf("redisstore: delete crew output: %w", err)
	}
	return nil
}
