package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kunal0586/LangoLink/internal/domain"
	"github.com/kunal0586/LangoLink/internal/repository"
	"github.com/kunal0586/LangoLink/internal/repository/mocks"
	"github.com/kunal0586/LangoLink/internal/service"
)

func newRoomServiceWithMocks() (*service.RoomService, *mocks.RoomRepository, *mocks.ParticipantRepository, *mocks.UserRepository) {
	mockRoomRepo := new(mocks.RoomRepository)
	mockParticipantRepo := new(mocks.ParticipantRepository)
	mockUserRepo := new(mocks.UserRepository)
	svc := service.NewRoomService(mockRoomRepo, mockParticipantRepo, mockUserRepo)
	return svc, mockRoomRepo, mockParticipantRepo, mockUserRepo
}

// --- 测试 CreateRoom 方法 ---

func TestRoomService_CreateRoom_Success(t *testing.T) {
	// Arrange
	svc, mockRoomRepo, mockParticipantRepo, mockUserRepo := newRoomServiceWithMocks()
	ctx := context.Background()
	creator := &domain.User{ID: 7, Username: "alice", PreferredLanguage: "fr"}

	mockUserRepo.On("FindByID", ctx, uint(7)).Return(creator, nil).Once()
	// 加入码唯一性检查通过
	mockRoomRepo.On("IsJoinCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	mockRoomRepo.On("Save", ctx, mock.MatchedBy(func(room *domain.Room) bool {
		// 加入码必须是 6 位，且不含易混淆字符 0 1 I O
		assert.Len(t, room.JoinCode, 6)
		assert.NotContains(t, room.JoinCode, "0")
		assert.NotContains(t, room.JoinCode, "1")
		assert.NotContains(t, room.JoinCode, "I")
		assert.NotContains(t, room.JoinCode, "O")
		assert.Equal(t, strings.ToUpper(room.JoinCode), room.JoinCode, "加入码应为大写")
		assert.True(t, room.IsActive)
		return room.CreatorID == 7 && room.Name == "General"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Room).ID = 42
	}).Return(nil).Once()
	// 创建者自动成为参与者，默认语言为其首选语言
	mockParticipantRepo.On("Save", ctx, mock.MatchedBy(func(p *domain.Participant) bool {
		return p.RoomID == 42 && p.UserID == 7 && p.Language == "fr"
	})).Return(nil).Once()

	// Act
	room, err := svc.CreateRoom(ctx, 7, "General", []string{"fr", "en"})

	// Assert
	require.NoError(t, err)
	require.NotNil(t, room)
	assert.Equal(t, uint(42), room.ID)
	langs, err := room.ParseLanguages()
	require.NoError(t, err)
	assert.Equal(t, []string{"fr", "en"}, langs)

	mockRoomRepo.AssertExpectations(t)
	mockParticipantRepo.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
}

func TestRoomService_CreateRoom_JoinCodeCollisionRetries(t *testing.T) {
	// 前两次生成的加入码已存在，第三次成功
	svc, mockRoomRepo, mockParticipantRepo, mockUserRepo := newRoomServiceWithMocks()
	ctx := context.Background()

	mockUserRepo.On("FindByID", ctx, uint(1)).Return(&domain.User{ID: 1, PreferredLanguage: "en"}, nil).Once()
	mockRoomRepo.On("IsJoinCodeExists", ctx, mock.AnythingOfType("string")).Return(true, nil).Twice()
	mockRoomRepo.On("IsJoinCodeExists", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()
	mockRoomRepo.On("Save", ctx, mock.AnythingOfType("*domain.Room")).Return(nil).Once()
	mockParticipantRepo.On("Save", ctx, mock.AnythingOfType("*domain.Participant")).Return(nil).Once()

	_, err := svc.CreateRoom(ctx, 1, "Retry Room", nil)

	require.NoError(t, err)
	mockRoomRepo.AssertNumberOfCalls(t, "IsJoinCodeExists", 3)
}

func TestRoomService_CreateRoom_JoinCodeExhaustion(t *testing.T) {
	// 重试次数耗尽时应返回错误，而不是带着可能冲突的码继续
	svc, mockRoomRepo, _, mockUserRepo := newRoomServiceWithMocks()
	ctx := context.Background()

	mockUserRepo.On("FindByID", ctx, uint(1)).Return(&domain.User{ID: 1, PreferredLanguage: "en"}, nil).Once()
	mockRoomRepo.On("IsJoinCodeExists", ctx, mock.AnythingOfType("string")).Return(true, nil).Times(10)

	_, err := svc.CreateRoom(ctx, 1, "Unlucky Room", nil)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInternalServer))
	mockRoomRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// --- 测试 JoinByCode 方法 ---

func TestRoomService_JoinByCode_Success(t *testing.T) {
	// Arrange
	svc, mockRoomRepo, mockParticipantRepo, _ := newRoomServiceWithMocks()
	ctx := context.Background()
	room := &domain.Room{ID: 3, JoinCode: "ABC234", IsActive: true}

	// 小写输入应被规范化为大写再查询
	mockRoomRepo.On("FindByJoinCode", ctx, "ABC234").Return(room, nil).Once()
	mockParticipantRepo.On("FindByRoomAndUser", ctx, uint(3), uint(9)).Return(nil, repository.ErrParticipantNotFound).Once()
	mockParticipantRepo.On("Save", ctx, mock.MatchedBy(func(p *domain.Participant) bool {
		return p.RoomID == 3 && p.UserID == 9 && p.Language == "es"
	})).Return(nil).Once()

	// Act
	joinedRoom, participant, err := svc.JoinByCode(ctx, 9, "abc234", "es")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(3), joinedRoom.ID)
	assert.Equal(t, "es", participant.Language)

	mockRoomRepo.AssertExpectations(t)
	mockParticipantRepo.AssertExpectations(t)
}

func TestRoomService_JoinByCode_DefaultsToPreferredLanguage(t *testing.T) {
	// language 为空时使用用户的首选语言
	svc, mockRoomRepo, mockParticipantRepo, mockUserRepo := newRoomServiceWithMocks()
	ctx := context.Background()
	room := &domain.Room{ID: 3, JoinCode: "XYZ789", IsActive: true}

	mockRoomRepo.On("FindByJoinCode", ctx, "XYZ789").Return(room, nil).Once()
	mockParticipantRepo.On("FindByRoomAndUser", ctx, uint(3), uint(9)).Return(nil, repository.ErrParticipantNotFound).Once()
	mockUserRepo.On("FindByID", ctx, uint(9)).Return(&domain.User{ID: 9, PreferredLanguage: "de"}, nil).Once()
	mockParticipantRepo.On("Save", ctx, mock.MatchedBy(func(p *domain.Participant) bool {
		return p.Language == "de"
	})).Return(nil).Once()

	_, participant, err := svc.JoinByCode(ctx, 9, "XYZ789", "")

	require.NoError(t, err)
	assert.Equal(t, "de", participant.Language)
}

func TestRoomService_JoinByCode_Idempotent(t *testing.T) {
	// 已是成员时直接返回已有记录，不再写库
	svc, mockRoomRepo, mockParticipantRepo, _ := newRoomServiceWithMocks()
	ctx := context.Background()
	room := &domain.Room{ID: 3, JoinCode: "ABC234", IsActive: true}
	existing := &domain.Participant{ID: 11, RoomID: 3, UserID: 9, Language: "ja"}

	mockRoomRepo.On("FindByJoinCode", ctx, "ABC234").Return(room, nil).Once()
	mockParticipantRepo.On("FindByRoomAndUser", ctx, uint(3), uint(9)).Return(existing, nil).Once()

	_, participant, err := svc.JoinByCode(ctx, 9, "ABC234", "es")

	require.NoError(t, err)
	assert.Equal(t, existing, participant, "重复加入应返回已有的参与记录")
	mockParticipantRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRoomService_JoinByCode_InvalidCode(t *testing.T) {
	svc, mockRoomRepo, _, _ := newRoomServiceWithMocks()
	ctx := context.Background()

	mockRoomRepo.On("FindByJoinCode", ctx, "NOPE22").Return(nil, repository.ErrRoomNotFound).Once()

	_, _, err := svc.JoinByCode(ctx, 9, "NOPE22", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidJoinCode))
}

func TestRoomService_JoinByCode_WrongLength(t *testing.T) {
	// 长度不对的加入码直接拒绝，不查库
	svc, mockRoomRepo, _, _ := newRoomServiceWithMocks()

	_, _, err := svc.JoinByCode(context.Background(), 9, "AB", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidJoinCode))
	mockRoomRepo.AssertNotCalled(t, "FindByJoinCode", mock.Anything, mock.Anything)
}

func TestRoomService_JoinByCode_DisabledRoom(t *testing.T) {
	svc, mockRoomRepo, mockParticipantRepo, _ := newRoomServiceWithMocks()
	ctx := context.Background()
	room := &domain.Room{ID: 3, JoinCode: "ABC234", IsActive: false}

	mockRoomRepo.On("FindByJoinCode", ctx, "ABC234").Return(room, nil).Once()

	_, _, err := svc.JoinByCode(ctx, 9, "ABC234", "")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrRoomDisabled))
	mockParticipantRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// --- 测试 DisableRoom 方法 ---

func TestRoomService_DisableRoom_CreatorOnly(t *testing.T) {
	svc, mockRoomRepo, _, _ := newRoomServiceWithMocks()
	ctx := context.Background()
	room := &domain.Room{ID: 3, CreatorID: 7, IsActive: true}

	mockRoomRepo.On("FindByID", ctx, uint(3)).Return(room, nil).Once()

	err := svc.DisableRoom(ctx, 3, 99)

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrNotRoomCreator))
	mockRoomRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestRoomService_DisableRoom_Success(t *testing.T) {
	svc, mockRoomRepo, _, _ := newRoomServiceWithMocks()
	ctx := context.Background()
	room := &domain.Room{ID: 3, CreatorID: 7, IsActive: true}

	mockRoomRepo.On("FindByID", ctx, uint(3)).Return(room, nil).Once()
	mockRoomRepo.On("Save", ctx, mock.MatchedBy(func(r *domain.Room) bool {
		return r.ID == 3 && !r.IsActive
	})).Return(nil).Once()

	err := svc.DisableRoom(ctx, 3, 7)

	require.NoError(t, err)
	mockRoomRepo.AssertExpectations(t)
}
