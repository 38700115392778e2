package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/roadready/internal/model"
)

// ErrNotFound is returned for unknown conversations.
var ErrNotFound = errors.New("conversation not found")

// Store persists conversation transcripts.
type Store interface {
	Create(ctx context.Context, conv *model.Conversation) error
	Get(ctx context.Context, id string) (*model.Conversation, error)
	Append(ctx context.Context, id string, m model.Message) error
}

// MemoryStore keeps transcripts in process memory.  Used when Redis is not configured.
type MemoryStore struct {
	mu    sync.RWMutex
	convs map[string]*model.Conversation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{convs: make(map[string]*model.Conversation)}
}

func (s *MemoryStore) Create(_ context.Context, conv *model.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *conv
	cp.Messages = append([]model.Message(nil), conv.Messages...)
	s.convs[conv.ID] = &cp
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*model.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.convs[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	cp.Messages = append([]model.Message(nil), c.Messages...)
	return &cp, nil
}

func (s *MemoryStore) Append(_ context.Context, id string, m model.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return ErrNotFound
	}
	c.Messages = append(c.Messages, m)
	return nil
}

// RedisStore keeps the conversation header as a JSON string and the
// messages as a Redis list, both expiring after TTL of inactivity.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(rdb *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = "rr:chat"
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) metaKey(id string) string { return fmt.Sprintf("%s:%s:meta", s.prefix, id) }
func (s *RedisStore) msgsKey(id string) string { return fmt.Sprintf("%s:%s:messages", s.prefix, id) }

func (s *RedisStore) Create(ctx context.Context, conv *model.Conversation) error {
	head := *conv
	head.Messages = nil
	meta, err := json.Marshal(head)
	if err != nil {
		return err
	}
	msgs := make([]any, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		raw, err := json.Marshal(m)
		if err != nil {
			return err
		}
		msgs = append(msgs, raw)
	}

	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.metaKey(conv.ID), meta, s.ttl)
		if len(msgs) > 0 {
			p.RPush(ctx, s.msgsKey(conv.ID), msgs...)
			p.Expire(ctx, s.msgsKey(conv.ID), s.ttl)
		}
		return nil
	})
	return err
}

func (s *RedisStore) Get(ctx context.Context, id string) (*model.Conversation, error) {
	meta, err := s.rdb.Get(ctx, s.metaKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var conv model.Conversation
	if err := json.Unmarshal(meta, &conv); err != nil {
		return nil, err
	}
	raw, err := s.rdb.LRange(ctx, s.msgsKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	conv.Messages = make([]model.Message, 0, len(raw))
	for _, r := range raw {
		var m model.Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, err
		}
		conv.Messages = append(conv.Messages, m)
	}
	return &conv, nil
}

func (s *RedisStore) Append(ctx context.Context, id string, m model.Message) error {
	n, err := s.rdb.Exists(ctx, s.metaKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return err
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, s.msgsKey(id), raw)
		p.Expire(ctx, s.msgsKey(id), s.ttl)
		p.Expire(ctx, s.metaKey(id), s.ttl)
		return nil
	})
	return err
}
