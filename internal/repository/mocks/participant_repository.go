package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/kunal0586/LangoLink/internal/domain"
)

// ParticipantRepository 是 repository.ParticipantRepository 的 mock 实现。
type ParticipantRepository struct {
	mock.Mock
}

func (m *ParticipantRepository) FindByRoomAndUser(ctx context.Context, roomID, userID uint) (*domain.Participant, error) {
	args := m.Called(ctx, roomID, userID)
	var participant *domain.Participant
	if args.Get(0) != nil {
		participant = args.Get(0).(*domain.Participant)
	}
	return participant, args.Error(1)
}

func (m *ParticipantRepository) FindByRoom(ctx context.Context, roomID uint) ([]domain.Participant, error) {
	args := m.Called(ctx, roomID)
	var participants []domain.Participant
	if args.Get(0) != nil {
		participants = args.Get(0).([]domain.Participant)
	}
	return participants, args.Error(1)
}

func (m *ParticipantRepository) IsMember(ctx context.Context, roomID, userID uint) (bool, error) {
	args := m.Called(ctx, roomID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ParticipantRepository) Save(ctx context.Context, participant *domain.Participant) error {
	args := m.Called(ctx, participant)
	return args.Error(0)
}
