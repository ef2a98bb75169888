package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/kunal0586/LangoLink/internal/domain"
)

// StateRepository 是 repository.StateRepository 的 mock 实现。
type StateRepository struct {
	mock.Mock
}

func (m *StateRepository) PushMessageToHistory(ctx context.Context, roomID uint, message domain.Message) error {
	args := m.Called(ctx, roomID, message)
	return args.Error(0)
}

func (m *StateRepository) GetRecentMessages(ctx context.Context, roomID uint, limit int) ([]domain.Message, error) {
	args := m.Called(ctx, roomID, limit)
	var messages []domain.Message
	if args.Get(0) != nil {
		messages = args.Get(0).([]domain.Message)
	}
	return messages, args.Error(1)
}

func (m *StateRepository) MarkRoomActive(ctx context.Context, roomID uint, at time.Time) error {
	args := m.Called(ctx, roomID, at)
	return args.Error(0)
}

func (m *StateRepository) StaleRooms(ctx context.Context, cutoff time.Time) ([]uint, error) {
	args := m.Called(ctx, cutoff)
	var roomIDs []uint
	if args.Get(0) != nil {
		roomIDs = args.Get(0).([]uint)
	}
	return roomIDs, args.Error(1)
}

func (m *StateRepository) ForgetRooms(ctx context.Context, roomIDs []uint) error {
	args := m.Called(ctx, roomIDs)
	return args.Error(0)
}
