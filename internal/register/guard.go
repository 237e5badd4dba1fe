package register

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/venuepos/pkg/errors"
)

const defaultGuardTTL = 30 * time.Second

// ErrCheckoutInProgress rejects a second commit while one is processing.
var ErrCheckoutInProgress = pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already in progress for this register")

// ReleaseFunc frees a held guard.
type ReleaseFunc func(ctx context.Context) error

// Guard admits one checkout per register at a time.
type Guard interface {
	Acquire(ctx context.Context, registerID string) (ReleaseFunc, error)
}

type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	DelIfValue(ctx context.Context, key, value string) (bool, error)
	LockKey(parts ...string) string
}

// RedisGuard holds the per-register guard in redis (SETNX + TTL) so every API
// instance sees the same processing register.
type RedisGuard struct {
	client redisStore
	ttl    time.Duration
}

// NewRedisGuard constructs a Redis-backed guard.
func NewRedisGuard(client redisStore, ttl time.Duration) (*RedisGuard, error) {
	if client == nil {
		return nil, errors.New("redis client required for checkout guard")
	}
	if ttl <= 0 {
		ttl = defaultGuardTTL
	}
	return &RedisGuard{client: client, ttl: ttl}, nil
}

// Acquire owns the register's guard for the configured TTL.
func (g *RedisGuard) Acquire(ctx context.Context, registerID string) (ReleaseFunc, error) {
	key := g.client.LockKey("checkout", registerID)
	owner := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key, owner, g.ttl)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("setnx: %w", err), "acquire checkout guard")
	}
	if !ok {
		return nil, ErrCheckoutInProgress
	}
	return func(ctx context.Context) error {
		return g.release(ctx, key, owner)
	}, nil
}

// release frees the guard only if owner still holds it. The owner check and
// delete run as one script so an expired guard taken over by another
// checkout is left alone.
func (g *RedisGuard) release(ctx context.Context, key, owner string) error {
	if _, err := g.client.DelIfValue(ctx, key, owner); err != nil {
		return fmt.Errorf("release guard: %w", err)
	}
	return nil
}

// LocalGuard is an in-process guard for single-instance deployments.
type LocalGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalGuard returns an empty in-process guard.
func NewLocalGuard() *LocalGuard {
	return &LocalGuard{held: map[string]struct{}{}}
}

func (g *LocalGuard) Acquire(ctx context.Context, registerID string) (ReleaseFunc, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.held[registerID]; busy {
		return nil, ErrCheckoutInProgress
	}
	g.held[registerID] = struct{}{}
	var once sync.Once
	return func(context.Context) error {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, registerID)
			g.mu.Unlock()
		})
		return nil
	}, nil
}
