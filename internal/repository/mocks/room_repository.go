package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kunal0586/LangoLink/internal/domain"
)

// RoomRepository 是 repository.RoomRepository 的 mock 实现。
type RoomRepository struct {
	mock.Mock
}

func (m *RoomRepository) FindByID(ctx context.Context, id uint) (*domain.Room, error) {
	args := m.Called(ctx, id)
	var room *domain.Room
	if args.Get(0) != nil {
		room = args.Get(0).(*domain.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepository) FindByJoinCode(ctx context.Context, code string) (*domain.Room, error) {
	args := m.Called(ctx, code)
	var room *domain.Room
	if args.Get(0) != nil {
		room = args.Get(0).(*domain.Room)
	}
	return room, args.Error(1)
}

func (m *RoomRepository) Save(ctx context.Context, room *domain.Room) error {
	args := m.Called(ctx, room)
	return args.Error(0)
}

func (m *RoomRepository) IsJoinCodeExists(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *RoomRepository) TouchLastActive(ctx context.Context, roomID uint, at time.Time) error {
	args := m.Called(ctx, roomID, at)
	return args.Error(0)
}

func (m *RoomRepository) DisableRooms(ctx context.Context, roomIDs []uint) (int64, error) {
	args := m.Called(ctx, roomIDs)
	return args.Get(0).(int64), args.Error(1)
}
