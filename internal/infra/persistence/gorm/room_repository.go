package gormpersistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kunal0586/LangoLink/internal/domain"
	"github.com/kunal0586/LangoLink/internal/repository"
)

// GormRoomRepository 是 RoomRepository 接口的 GORM 实现
type GormRoomRepository struct {
	db *gorm.DB
}

// NewGormRoomRepository 创建 GormRoomRepository 实例
func NewGormRoomRepository(db *gorm.DB) *GormRoomRepository {
	if db == nil {
		panic("database connection cannot be nil for GormRoomRepository")
	}
	return &GormRoomRepository{db: db}
}

// FindByID 实现根据房间 ID 查找房间
func (r *GormRoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).First(&room, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by id %d: %w", id, err)
	}
	return &room, nil
}

// FindByJoinCode 实现根据邀请码查找房间。邀请码大小写不敏感，统一按大写存储。
func (r *GormRoomRepository) FindByJoinCode(ctx context.Context, code string) (*domain.Room, error) {
	var room domain.Room
	err := r.db.WithContext(ctx).Where("join_code = ?", code).First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrRoomNotFound
		}
		return nil, fmt.Errorf("gorm: find room by join code '%s': %w", code, err)
	}
	return &room, nil
}

// Save 实现保存房间信息（创建或更新）
func (r *GormRoomRepository) Save(ctx context.Context, room *domain.Room) error {
	err := r.db.WithContext(ctx).Save(room).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save room (id: %d, join_code: %s): %w", room.ID, room.JoinCode, err)
	}
	return nil
}

// IsJoinCodeExists 实现检查邀请码是否存在
func (r *GormRoomRepository) IsJoinCodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Room{}).Where("join_code = ?", code).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count rooms by join code '%s': %w", code, err)
	}
	return count > 0, nil
}

// TouchLastActive 实现刷新房间最后活跃时间
func (r *GormRoomRepository) TouchLastActive(ctx context.Context, roomID uint, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&domain.Room{}).
		Where("id = ?", roomID).
		Update("last_active", at).Error
	if err != nil {
		return fmt.Errorf("gorm: touch last_active for room %d: %w", roomID, err)
	}
	return nil
}

// DisableRooms 实现批量停用房间
func (r *GormRoomRepository) DisableRooms(ctx context.Context, roomIDs []uint) (int64, error) {
	if len(roomIDs) == 0 {
		return 0, nil // 避免空的 IN 查询
	}
	result := r.db.WithContext(ctx).Model(&domain.Room{}).
		Where("id IN ? AND is_active = ?", roomIDs, true).
		Update("is_active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("gorm: disable rooms: %w", result.Error)
	}
	return result.RowsAffected, nil
}
