package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/midlandoil/storefront/pkg/errors"
)

// Store persists session snapshots. Get returns a NOT_FOUND error for unknown
// or expired sessions and always hands back an independent copy.
type Store interface {
	Get(ctx context.Context, id uuid.UUID) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id uuid.UUID) error
}

func errSessionNotFound(id uuid.UUID) error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "checkout session not found").
		WithDetails(map[string]any{"id": id.String()})
}

func encodeSession(s *Session) ([]byte, error) {
	payload, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode checkout session: %w", err)
	}
	return payload, nil
}

func decodeSession(payload []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	s.ensureBasket()
	return &s, nil
}

type memoryEntry struct {
	payload []byte
	expires time.Time
}

// MemoryStore keeps sessions in process. Sessions are stored encoded so
// callers never share a Basket with the store.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[uuid.UUID]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[uuid.UUID]memoryEntry),
	}
}

func (m *MemoryStore) Get(_ context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[id]
	if !ok {
		return nil, errSessionNotFound(id)
	}
	if m.ttl > 0 && !m.now().Before(entry.expires) {
		delete(m.entries, id)
		return nil, errSessionNotFound(id)
	}
	return decodeSession(entry.payload)
}

func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	payload, err := encodeSession(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweep()
	m.entries[s.ID] = memoryEntry{payload: payload, expires: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, id)
	return nil
}

// sweep drops expired entries. Caller holds mu.
func (m *MemoryStore) sweep() {
	if m.ttl <= 0 {
		return
	}
	now := m.now()
	for id, entry := range m.entries {
		if !now.Before(entry.expires) {
			delete(m.entries, id)
		}
	}
}

// sessionKV is the subset of the redis wrapper the store needs.
type sessionKV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CheckoutSessionKey(sessionID string) string
}

// RedisStore keeps JSON session snapshots in Redis with a sliding TTL.
type RedisStore struct {
	kv  sessionKV
	ttl time.Duration
}

func NewRedisStore(kv sessionKV, ttl time.Duration) *RedisStore {
	return &RedisStore{kv: kv, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	raw, err := r.kv.Get(ctx, r.kv.CheckoutSessionKey(id.String()))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errSessionNotFound(id)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load checkout session")
	}
	s, err := decodeSession([]byte(raw))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load checkout session")
	}
	return s, nil
}

func (r *RedisStore) Put(ctx context.Context, s *Session) error {
	payload, err := encodeSession(s)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save checkout session")
	}
	if err := r.kv.Set(ctx, r.kv.CheckoutSessionKey(s.ID.String()), string(payload), r.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save checkout session")
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.kv.Del(ctx, r.kv.CheckoutSessionKey(id.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete checkout session")
	}
	return nil
}
