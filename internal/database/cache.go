package database

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	studentCachePrefix = "eitlc:student:parents:"
	studentCacheTTL    = 5 * time.Minute
)

// CachedParent holds the parent fields the dispatcher needs to resolve
// recipients without touching PostgreSQL.
type CachedParent struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	ChatID string `json:"chat_id"` // empty when the parent has no linked chat
}

// CachedStudent is the cached result of a student + parents lookup.
type CachedStudent struct {
	ID        uint           `json:"id"`
	Name      string         `json:"name"`
	GroupName string         `json:"group_name"`
	Parents   []CachedParent `json:"parents"`
}

// Cache wraps Redis for recipient resolution. All methods tolerate a nil
// client so the service degrades to database-only lookups.
type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// GetStudent returns the cached student or nil on a miss.
func (c *Cache) GetStudent(studentID uint) *CachedStudent {
	if c == nil || c.client == nil {
		return nil
	}

	ctx := context.Background()
	data, err := c.client.Get(ctx, studentCacheKey(studentID)).Bytes()
	if err != nil {
		return nil // cache miss
	}

	var student CachedStudent
	if err := json.Unmarshal(data, &student); err != nil {
		return nil
	}
	return &student
}

// SetStudent caches a resolved student. Failures are ignored; the cache is
// an optimization, not a source of truth.
func (c *Cache) SetStudent(student *CachedStudent) {
	if c == nil || c.client == nil || student == nil {
		return
	}

	data, err := json.Marshal(student)
	if err != nil {
		return
	}

	ctx := context.Background()
	c.client.Set(ctx, studentCacheKey(student.ID), data, studentCacheTTL)
}

// InvalidateStudent drops the cached entry. Called whenever a parent's chat
// linkage changes so the dispatcher never sends to a stale chat id.
func (c *Cache) InvalidateStudent(studentID uint) {
	if c == nil || c.client == nil {
		return
	}

	ctx := context.Background()
	c.client.Del(ctx, studentCacheKey(studentID))
}

func studentCacheKey(studentID uint) string {
	return studentCachePrefix + strconv.FormatUint(uint64(studentID), 10)
}
