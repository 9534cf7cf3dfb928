package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const SessionKeyPrefix = "storefront:auth:session:"

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository is the refresh token allow-list: one live refresh token
// per user.
type SessionRepository interface {
	Save(ctx context.Context, userID, refreshToken string, ttl time.Duration) error
	Get(ctx context.Context, userID string) (string, error)
	Delete(ctx context.Context, userID string) error
}

type RedisSessionRepository struct {
	rdb redis.Cmdable
}

func NewRedisSessionRepository(rdb redis.Cmdable) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb}
}

func (r *RedisSessionRepository) Save(ctx context.Context, userID, refreshToken string, ttl time.Duration) error {
	return r.rdb.Set(ctx, SessionKeyPrefix+userID, refreshToken, ttl).Err()
}

func (r *RedisSessionRepository) Get(ctx context.Context, userID string) (string, error) {
	token, err := r.rdb.Get(ctx, SessionKeyPrefix+userID).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrSessionNotFound
	}
	return token, err
}

func (r *RedisSessionRepository) Delete(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, SessionKeyPrefix+userID).Err()
}

type memorySession struct {
	token     string
	expiresAt time.Time
}

// MemorySessionRepository is used when the dev backend runs without Redis.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string]memorySession
	now      func() time.Time
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[string]memorySession),
		now:      time.Now,
	}
}

func (r *MemorySessionRepository) Save(_ context.Context, userID, refreshToken string, ttl time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[userID] = memorySession{token: refreshToken, expiresAt: r.now().Add(ttl)}
	return nil
}

func (r *MemorySessionRepository) Get(_ context.Context, userID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[userID]
	if !ok {
		return "", ErrSessionNotFound
	}
	if r.now().After(s.expiresAt) {
		delete(r.sessions, userID)
		return "", ErrSessionNotFound
	}
	return s.token, nil
}

func (r *MemorySessionRepository) Delete(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	return nil
}
