package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ritmohq/ritmo-engine/internal/core/domain"
)

const (
	habitListTTL = 30 * time.Minute
	habitTTL     = 10 * time.Minute
)

var _ domain.HabitRepository = (*CachedHabitRepository)(nil)

// CachedHabitRepository is a read-through Redis decorator over a habit
// repository. Habit lists and single habits are cached per key; every
// write drops the owner's entries so readers never see a stale schedule
// history. Redis failures degrade to the underlying repository.
type CachedHabitRepository struct {
	next  domain.HabitRepository
	cache *redis.Client
}

func NewCachedHabitRepository(next domain.HabitRepository, cache *redis.Client) *CachedHabitRepository {
	return &CachedHabitRepository{
		next:  next,
		cache: cache,
	}
}

func listKey(userID string) string {
	return fmt.Sprintf("ritmo:habits:%s", userID)
}

func habitKey(id string) string {
	return fmt.Sprintf("ritmo:habit:%s", id)
}

// invalidate drops both the user's list entry and, when known, the
// single-habit entry touched by a write.
func (r *CachedHabitRepository) invalidate(ctx context.Context, userID string, habitIDs ...string) {
	keys := []string{listKey(userID)}
	for _, id := range habitIDs {
		keys = append(keys, habitKey(id))
	}
	if err := r.cache.Del(ctx, keys...).Err(); err != nil {
		log.Printf("[CACHE] Invalidate for user %s failed: %v", userID, err)
	}
}

// readInto loads a cached JSON value into dst. It returns false on a
// miss, a read error, or corrupted data; corrupted keys are dropped.
func (r *CachedHabitRepository) readInto(ctx context.Context, key string, dst any) bool {
	val, err := r.cache.Get(ctx, key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("[CACHE] Read error on %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), dst); err != nil {
		log.Printf("[CACHE] Corrupted entry %s, dropping", key)
		r.cache.Del(ctx, key)
		return false
	}
	return true
}

func (r *CachedHabitRepository) store(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("[CACHE] Write error on %s: %v", key, err)
	}
}

func (r *CachedHabitRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Habit, error) {
	key := listKey(userID)

	var cached []*domain.Habit
	if r.readInto(ctx, key, &cached) {
		return cached, nil
	}

	habits, err := r.next.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, habits, habitListTTL)
	return habits, nil
}

func (r *CachedHabitRepository) GetByID(ctx context.Context, id string) (*domain.Habit, error) {
	key := habitKey(id)

	var cached domain.Habit
	if r.readInto(ctx, key, &cached) {
		return &cached, nil
	}

	habit, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, habit, habitTTL)
	return habit, nil
}

// GetChanges is a sync query with a caller-supplied watermark; caching
// it would only serve repeats of the exact same instant.
func (r *CachedHabitRepository) GetChanges(ctx context.Context, userID string, since time.Time) ([]*domain.Habit, error) {
	return r.next.GetChanges(ctx, userID, since)
}

func (r *CachedHabitRepository) Create(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Create(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx, habit.UserID, habit.ID)
	return nil
}

func (r *CachedHabitRepository) Update(ctx context.Context, habit *domain.Habit) error {
	if err := r.next.Update(ctx, habit); err != nil {
		return err
	}
	r.invalidate(ctx, habit.UserID, habit.ID)
	return nil
}

func (r *CachedHabitRepository) Delete(ctx context.Context, id string) error {
	habit, err := r.next.GetByID(ctx, id)
	if err == nil && habit != nil {
		defer r.invalidate(ctx, habit.UserID, id)
	}
	return r.next.Delete(ctx, id)
}

func (r *CachedHabitRepository) UpdateStreaks(ctx context.Context, id string, current, longest int) error {
	habit, err := r.next.GetByID(ctx, id)
	if err == nil && habit != nil {
		defer r.invalidate(ctx, habit.UserID, id)
	}
	return r.next.UpdateStreaks(ctx, id, current, longest)
}
