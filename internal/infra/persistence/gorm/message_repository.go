package gormpersistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kunal0586/LangoLink/internal/domain"
)

// GormMessageRepository 是 MessageRepository 接口的 GORM 实现
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository 创建 GormMessageRepository 实例
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	if db == nil {
		panic("database connection cannot be nil for GormMessageRepository")
	}
	return &GormMessageRepository{db: db}
}

// Save 实现持久化一条消息
func (r *GormMessageRepository) Save(ctx context.Context, message *domain.Message) error {
	err := r.db.WithContext(ctx).Create(message).Error
	if err != nil {
		return fmt.Errorf("gorm: save message (room %d, sender %d): %w",
			message.RoomID, message.SenderID, err)
	}
	return nil
}

// FindRecentByRoom 实现按时间倒序取最近 limit 条，再反转为正序返回
func (r *GormMessageRepository) FindRecentByRoom(ctx context.Context, roomID uint, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	var messages []domain.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find recent messages of room %d: %w", roomID, err)
	}
	// 反转为 旧 -> 新
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
