package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	historyTTL    = 24 * time.Hour
	historyPrefix = "session:"
	maxTurns      = 20
)

// Turn is one persisted conversation turn.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// HistoryStore persists per-session conversation history in Redis. Each
// session's history lives under one key with a sliding 24h TTL and is trimmed
// to the most recent turns on every save.
type HistoryStore struct {
	rdb *redis.Client
}

func NewHistoryStore(rdb *redis.Client) *HistoryStore {
	return &HistoryStore{rdb: rdb}
}

// Load returns the stored history for a session, or an empty slice when the
// session has no history or it expired.
func (s *HistoryStore) Load(ctx context.Context, sessionID string) ([]Turn, error) {
	data, err := s.rdb.Get(ctx, historyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return []Turn{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session history: %w", err)
	}

	var history []Turn
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, fmt.Errorf("decode session history: %w", err)
	}
	return history, nil
}

// Save stores the history, keeping only the most recent maxTurns turns.
func (s *HistoryStore) Save(ctx context.Context, sessionID string, history []Turn) error {
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}

	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encode session history: %w", err)
	}
	if err := s.rdb.Set(ctx, historyPrefix+sessionID, data, historyTTL).Err(); err != nil {
		return fmt.Errorf("save session history: %w", err)
	}
	return nil
}

// Append records one user/assistant exchange.
func (s *HistoryStore) Append(ctx context.Context, sessionID, userMsg, assistantMsg string) error {
	history, err := s.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	history = append(history,
		Turn{Role: "user", Content: userMsg},
		Turn{Role: "assistant", Content: assistantMsg},
	)
	return s.Save(ctx, sessionID, history)
}

// Clear drops a session's stored history.
func (s *HistoryStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, historyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("clear session history: %w", err)
	}
	return nil
}
