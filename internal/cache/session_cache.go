package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"raterocket/internal/model"
)

// SessionCache is the fast, session-scoped store for conversation
// history, in-progress extracted fields ("previous info") and the
// linked document id. Keys are last-write-wins and TTL bounded.
type SessionCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewSessionCache(client *redisv9.Client, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionCache{client: client, ttl: ttl}
}

func (c *SessionCache) GetConversation(ctx context.Context, sessionID string) ([]model.ChatTurn, error) {
	raw, err := c.client.Get(ctx, c.conversationKey(sessionID)).Result()
	if err == redisv9.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get conversation failed: %w", err)
	}

	var turns []model.ChatTurn
	if err := json.Unmarshal([]byte(raw), &turns); err != nil {
		return nil, fmt.Errorf("unmarshal cached conversation failed: %w", err)
	}
	return turns, nil
}

func (c *SessionCache) SaveConversation(ctx context.Context, sessionID string, turns []model.ChatTurn) error {
	payload, err := json.Marshal(turns)
	if err != nil {
		return fmt.Errorf("marshal conversation failed: %w", err)
	}
	if err := c.client.Set(ctx, c.conversationKey(sessionID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set conversation failed: %w", err)
	}
	return nil
}

func (c *SessionCache) GetPreviousInfo(ctx context.Context, sessionID string) (*model.LoanFields, error) {
	raw, err := c.client.Get(ctx, c.previousInfoKey(sessionID)).Result()
	if err == redisv9.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get previous info failed: %w", err)
	}

	var fields model.LoanFields
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("unmarshal cached previous info failed: %w", err)
	}
	return &fields, nil
}

func (c *SessionCache) SavePreviousInfo(ctx context.Context, sessionID string, fields *model.LoanFields) error {
	payload, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("marshal previous info failed: %w", err)
	}
	if err := c.client.Set(ctx, c.previousInfoKey(sessionID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set previous info failed: %w", err)
	}
	return nil
}

func (c *SessionCache) GetDocumentID(ctx context.Context, sessionID string) (string, error) {
	raw, err := c.client.Get(ctx, c.documentIDKey(sessionID)).Result()
	if err == redisv9.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get document id failed: %w", err)
	}
	return raw, nil
}

func (c *SessionCache) SaveDocumentID(ctx context.Context, sessionID, documentID string) error {
	if err := c.client.Set(ctx, c.documentIDKey(sessionID), documentID, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set document id failed: %w", err)
	}
	return nil
}

func (c *SessionCache) conversationKey(sessionID string) string {
	return fmt.Sprintf("chat:conversation:%s", sessionID)
}

func (c *SessionCache) previousInfoKey(sessionID string) string {
	return fmt.Sprintf("chat:previous_info:%s", sessionID)
}

func (c *SessionCache) documentIDKey(sessionID string) string {
	return fmt.Sprintf("chat:document_id:%s", sessionID)
}
