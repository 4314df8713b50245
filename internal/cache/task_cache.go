package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const TaskCacheTTL = 1 * time.Hour

type TaskCache struct {
	client *redis.Client
}

func NewTaskCache(client *redis.Client) *TaskCache {
	return &TaskCache{client: client}
}

// Get task from cache
func (c *TaskCache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, nil // Cache miss
	}
	if err != nil {
		return nil, err
	}
	return []byte(val), nil
}

// Set task to cache with TTL
func (c *TaskCache) Set(ctx context.Context, key string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, jsonData, TaskCacheTTL).Err()
}

// InvalidateTask drops both the task entry and the owner's list entry.
// Called after every write so reads never see a deleted or stale task.
func (c *TaskCache) InvalidateTask(ctx context.Context, taskID, userID int) error {
	return c.client.Del(ctx, TaskKey(taskID, userID), UserTasksKey(userID)).Err()
}

// Build cache key for single task. The key carries the owner so a cached
// entry can never be served to another user's request.
func TaskKey(taskID, userID int) string {
	return fmt.Sprintf("task:%d:user:%d", taskID, userID)
}

// Build cache key for user task list
func UserTasksKey(userID int) string {
	return fmt.Sprintf("tasks:user:%d", userID)
}
