package gormpersistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/kunal0586/LangoLink/internal/domain"
	"github.com/kunal0586/LangoLink/internal/repository"
)

// GormParticipantRepository 是 ParticipantRepository 接口的 GORM 实现
type GormParticipantRepository struct {
	db *gorm.DB
}

// NewGormParticipantRepository 创建 GormParticipantRepository 实例
func NewGormParticipantRepository(db *gorm.DB) *GormParticipantRepository {
	if db == nil {
		panic("database connection cannot be nil for GormParticipantRepository")
	}
	return &GormParticipantRepository{db: db}
}

// FindByRoomAndUser 实现查找单个成员资格记录
func (r *GormParticipantRepository) FindByRoomAndUser(ctx context.Context, roomID, userID uint) (*domain.Participant, error) {
	var participant domain.Participant
	err := r.db.WithContext(ctx).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrParticipantNotFound
		}
		return nil, fmt.Errorf("gorm: find participant (room %d, user %d): %w", roomID, userID, err)
	}
	return &participant, nil
}

// FindByRoom 实现获取房间全部成员，预加载关联的 User
func (r *GormParticipantRepository) FindByRoom(ctx context.Context, roomID uint) ([]domain.Participant, error) {
	var participants []domain.Participant
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("room_id = ?", roomID).
		Find(&participants).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find participants of room %d: %w", roomID, err)
	}
	return participants, nil
}

// IsMember 实现成员资格检查
func (r *GormParticipantRepository) IsMember(ctx context.Context, roomID, userID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Participant{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("gorm: count participant (room %d, user %d): %w", roomID, userID, err)
	}
	return count > 0, nil
}

// Save 实现保存成员资格记录（创建或更新）
func (r *GormParticipantRepository) Save(ctx context.Context, participant *domain.Participant) error {
	err := r.db.WithContext(ctx).Save(participant).Error
	if err != nil {
		if isDuplicateEntryError(err) {
			return repository.ErrDuplicateEntry
		}
		return fmt.Errorf("gorm: save participant (room %d, user %d): %w",
			participant.RoomID, participant.UserID, err)
	}
	return nil
}
