package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gamedev-tw/npc-engine/pkg/npc"
)

const memoryKeyPrefix = "npc:memory:"

// RedisStorage implements the Storage interface using Redis. Records are
// stored as JSON blobs with no TTL; NPC memory only goes away when deleted.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisStorage implements Storage interface
var _ Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. redisURL accepts
// either a full redis:// URL or a bare host:port address.
func NewRedisStorage(redisURL string, logger *slog.Logger) (*RedisStorage, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		if strings.Contains(redisURL, "://") {
			return nil, fmt.Errorf("invalid redis url %q: %w", redisURL, err)
		}
		opts = &redis.Options{Addr: redisURL}
	}
	return &RedisStorage{
		client: redis.NewClient(opts),
		logger: logger,
	}, nil
}

func memoryKey(npcID string) string {
	return memoryKeyPrefix + npcID
}

func (r *RedisStorage) LoadMemory(ctx context.Context, npcID string) (*npc.MemoryRecord, error) {
	data, err := r.client.Get(ctx, memoryKey(npcID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load memory for %s: %w", npcID, err)
	}

	var record npc.MemoryRecord
	if err := json.Unmarshal(data, &record); err != nil {
		r.logger.Warn("Discarding corrupt memory record", "npc_id", npcID, "error", err)
		return nil, nil
	}
	if err := record.Validate(); err != nil {
		r.logger.Warn("Discarding invalid memory record", "npc_id", npcID, "error", err)
		return nil, nil
	}
	return &record, nil
}

func (r *RedisStorage) SaveMemory(ctx context.Context, record *npc.MemoryRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}
	record.LastSavedAt = time.Now().UTC()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal memory for %s: %w", record.NPCID, err)
	}
	if err := r.client.Set(ctx, memoryKey(record.NPCID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save memory for %s: %w", record.NPCID, err)
	}
	return nil
}

func (r *RedisStorage) DeleteMemory(ctx context.Context, npcID string) error {
	if err := r.client.Del(ctx, memoryKey(npcID)).Err(); err != nil {
		return fmt.Errorf("failed to delete memory for %s: %w", npcID, err)
	}
	return nil
}

func (r *RedisStorage) ListNPCs(ctx context.Context) ([]string, error) {
	var ids []string
	iter := r.client.Scan(ctx, 0, memoryKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), memoryKeyPrefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list npc memory keys: %w", err)
	}
	return ids, nil
}

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}
