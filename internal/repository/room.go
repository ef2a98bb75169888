package repository

import (
	"context"
	"time"

	"github.com/kunal0586/LangoLink/internal/domain"
)

// RoomRepository 定义了房间数据的存储和检索操作。
type RoomRepository interface {
	// FindByID 根据房间 ID 查找房间。
	// 如果房间不存在，应返回 repository.ErrRoomNotFound。
	FindByID(ctx context.Context, id uint) (*domain.Room, error)

	// FindByJoinCode 根据邀请码查找房间。
	// 如果房间不存在，应返回 repository.ErrRoomNotFound。
	FindByJoinCode(ctx context.Context, code string) (*domain.Room, error)

	// Save 保存房间信息。
	// 如果房间已存在 (基于 ID)，则更新；否则创建新房间。
	Save(ctx context.Context, room *domain.Room) error

	// IsJoinCodeExists 检查邀请码是否已存在。
	IsJoinCodeExists(ctx context.Context, code string) (bool, error)

	// TouchLastActive 刷新房间的最后活跃时间。
	// 由后台任务在消息持久化之后调用，不在发送路径上。
	TouchLastActive(ctx context.Context, roomID uint, at time.Time) error

	// DisableRooms 批量将房间置为停用状态。返回受影响的行数。
	DisableRooms(ctx context.Context, roomIDs []uint) (int64, error)
}
