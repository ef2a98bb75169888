// Package redisstate 提供 StateRepository 接口的 Redis 实现。
package redisstate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/kunal0586/LangoLink/internal/domain"
)

// 每个房间在缓存中保留的近期消息条数上限。
const historyCacheSize = 100

// RedisStateRepository 是 StateRepository 接口的 Redis 实现
type RedisStateRepository struct {
	client    *redis.Client
	keyPrefix string // Redis key 前缀，方便多实例共用一个 Redis
}

// NewRedisStateRepository 创建 RedisStateRepository 实例
func NewRedisStateRepository(client *redis.Client, keyPrefix string) *RedisStateRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisStateRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "ll:" // 默认前缀 "ll:" (LangoLink)
	}
	return &RedisStateRepository{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// --- Key Generation Helpers ---

func (r *RedisStateRepository) roomHistoryKey(roomID uint) string {
	return fmt.Sprintf("%sroom:%d:messages", r.keyPrefix, roomID)
}

func (r *RedisStateRepository) roomActivityKey() string {
	return r.keyPrefix + "rooms:activity"
}

// --- StateRepository Interface Implementation ---

// PushMessageToHistory 将消息追加到房间近期消息缓存，并裁剪长度。
func (r *RedisStateRepository) PushMessageToHistory(ctx context.Context, roomID uint, message domain.Message) error {
	key := r.roomHistoryKey(roomID)
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal message for history (message id %d): %w", message.ID, err)
	}
	pipe := r.client.Pipeline()
	pipe.RPush(ctx, key, string(messageBytes))
	pipe.LTrim(ctx, key, -historyCacheSize, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: failed to push message to history for room %d on key %s: %w", roomID, key, err)
	}
	return nil
}

// GetRecentMessages 从缓存获取房间最近的消息 (旧 -> 新)。
func (r *RedisStateRepository) GetRecentMessages(ctx context.Context, roomID uint, limit int) ([]domain.Message, error) {
	if limit <= 0 || limit > historyCacheSize {
		limit = historyCacheSize
	}
	key := r.roomHistoryKey(roomID)
	messageStrs, err := r.client.LRange(ctx, key, int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to get recent messages for room %d from %s: %w", roomID, key, err)
	}
	messages := make([]domain.Message, 0, len(messageStrs))
	for _, messageStr := range messageStrs {
		var message domain.Message
		if err := json.Unmarshal([]byte(messageStr), &message); err == nil {
			messages = append(messages, message)
		} else {
			logrus.Warnf("redis: failed to unmarshal cached message for room %d: %v", roomID, err)
		}
	}
	return messages, nil
}

// MarkRoomActive 用 ZADD 记录房间最后活跃时间戳 (score 为 Unix 秒)。
func (r *RedisStateRepository) MarkRoomActive(ctx context.Context, roomID uint, at time.Time) error {
	err := r.client.ZAdd(ctx, r.roomActivityKey(), &redis.Z{
		Score:  float64(at.Unix()),
		Member: strconv.FormatUint(uint64(roomID), 10),
	}).Err()
	if err != nil {
		return fmt.Errorf("redis: failed to mark room %d active: %w", roomID, err)
	}
	return nil
}

// StaleRooms 返回最后活跃时间早于 cutoff 的房间 ID 列表。
func (r *RedisStateRepository) StaleRooms(ctx context.Context, cutoff time.Time) ([]uint, error) {
	members, err := r.client.ZRangeByScore(ctx, r.roomActivityKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: failed to query stale rooms: %w", err)
	}
	roomIDs := make([]uint, 0, len(members))
	for _, member := range members {
		id, parseErr := strconv.ParseUint(member, 10, 64)
		if parseErr != nil {
			logrus.Warnf("redis: malformed room id '%s' in activity set", member)
			continue
		}
		roomIDs = append(roomIDs, uint(id))
	}
	return roomIDs, nil
}

// ForgetRooms 从活跃集合中移除指定房间。
func (r *RedisStateRepository) ForgetRooms(ctx context.Context, roomIDs []uint) error {
	if len(roomIDs) == 0 {
		return nil
	}
	members := make([]interface{}, 0, len(roomIDs))
	for _, id := range roomIDs {
		members = append(members, strconv.FormatUint(uint64(id), 10))
	}
	if err := r.client.ZRem(ctx, r.roomActivityKey(), members...).Err(); err != nil {
		return fmt.Errorf("redis: failed to forget rooms from activity set: %w", err)
	}
	return nil
}
