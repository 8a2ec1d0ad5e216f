package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ehabalabdo/med-loop-sub000/pkg/common/logger"
	"github.com/ehabalabdo/med-loop-sub000/pkg/common/models"
	"github.com/redis/go-redis/v9"
)

// Cache keeps recently projected queues in Redis so repeated polls from the
// same observer class do not rescan the patient table.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(role string, clinicIDs []string) string {
	ids := append([]string(nil), clinicIDs...)
	sort.Strings(ids)
	return fmt.Sprintf("queue:%s:%s", role, strings.Join(ids, ","))
}

func (c *Cache) Get(ctx context.Context, role string, clinicIDs []string) ([]models.QueueEntry, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, cacheKey(role, clinicIDs)).Bytes()
	if err != nil {
		return nil, false
	}
	var entries []models.QueueEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

func (c *Cache) Set(ctx context.Context, role string, clinicIDs []string, entries []models.QueueEntry) {
	if c == nil || c.client == nil {
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, cacheKey(role, clinicIDs), data, c.ttl).Err(); err != nil {
		logger.Log.WithError(err).Debug("queue cache write failed")
	}
}

// Invalidate drops every cached queue. Called after any visit mutation so the
// next poll reads fresh state.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, "queue:*", 100).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
}
