package repository

import (
	"context"
	"time"

	"github.com/kunal0586/LangoLink/internal/domain"
)

// StateRepository 定义了与房间实时状态相关的操作，通常由 Redis 实现。
// 在线状态不在这里：presence 是进程内内存状态 (见 internal/presence)。
type StateRepository interface {
	// === Message History Cache ===

	// PushMessageToHistory 将一条消息追加到房间的近期消息缓存，
	// 并保持缓存长度上限。
	PushMessageToHistory(ctx context.Context, roomID uint, message domain.Message) error

	// GetRecentMessages 从缓存获取房间最近的消息 (旧 -> 新)。
	// 缓存未命中时返回空切片，由调用方回源数据库。
	GetRecentMessages(ctx context.Context, roomID uint, limit int) ([]domain.Message, error)

	// === Room Activity (for sweep worker) ===

	// MarkRoomActive 记录房间的最后活跃时间戳 (ZADD)。
	MarkRoomActive(ctx context.Context, roomID uint, at time.Time) error

	// StaleRooms 返回最后活跃时间早于 cutoff 的房间 ID 列表。
	StaleRooms(ctx context.Context, cutoff time.Time) ([]uint, error)

	// ForgetRooms 从活跃集合中移除指定房间 (停用后清理)。
	ForgetRooms(ctx context.Context, roomIDs []uint) error
}
