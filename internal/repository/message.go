package repository

import (
	"context"

	"github.com/kunal0586/LangoLink/internal/domain"
)

// MessageRepository 定义了聊天消息的持久化操作。消息是只追加的。
type MessageRepository interface {
	// Save 持久化一条消息。广播必须发生在 Save 成功之后。
	Save(ctx context.Context, message *domain.Message) error

	// FindRecentByRoom 按时间倒序获取房间最近的 limit 条消息，
	// 返回时按时间正序排列 (旧 -> 新)。
	FindRecentByRoom(ctx context.Context, roomID uint, limit int) ([]domain.Message, error)
}
