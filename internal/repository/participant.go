package repository

import (
	"context"

	"github.com/kunal0586/LangoLink/internal/domain"
)

// ParticipantRepository 定义了房间成员资格记录的存储和检索操作。
type ParticipantRepository interface {
	// FindByRoomAndUser 查找某用户在某房间的成员资格记录。
	// 不存在时应返回 repository.ErrParticipantNotFound。
	FindByRoomAndUser(ctx context.Context, roomID, userID uint) (*domain.Participant, error)

	// FindByRoom 返回房间的全部成员资格记录，预加载关联的 User。
	FindByRoom(ctx context.Context, roomID uint) ([]domain.Participant, error)

	// IsMember 检查用户是否是房间成员。
	// 发送和加入路径上每次都重新查询，不做缓存。
	IsMember(ctx context.Context, roomID, userID uint) (bool, error)

	// Save 保存成员资格记录 (创建或更新)。
	// 违反 (room, user) 唯一约束时应返回 repository.ErrDuplicateEntry。
	Save(ctx context.Context, participant *domain.Participant) error
}
