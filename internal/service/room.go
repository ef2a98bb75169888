package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/kunal0586/LangoLink/internal/domain"
	"github.com/kunal0586/LangoLink/internal/repository"
)

// 加入码字符集，去掉了容易混淆的 0 1 I O
const joinCodeCharset = "23456789ABCDEFGHJKLMNPQRSTUVWXYZ"

const (
	joinCodeLength      = 6
	joinCodeMaxAttempts = 10 // 生成唯一加入码的最大尝试次数
)

// RoomService 负责房间管理相关的业务逻辑。
type RoomService struct {
	roomRepo        repository.RoomRepository
	participantRepo repository.ParticipantRepository
	userRepo        repository.UserRepository
}

// NewRoomService 创建 RoomService 实例。
func NewRoomService(roomRepo repository.RoomRepository, participantRepo repository.ParticipantRepository, userRepo repository.UserRepository) *RoomService {
	if roomRepo == nil || participantRepo == nil || userRepo == nil {
		panic("RoomService dependencies cannot be nil")
	}
	return &RoomService{
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
		userRepo:        userRepo,
	}
}

// CreateRoom 创建新房间并把创建者加入为参与者。
// languages 定义房间支持的语言列表，为空时默认只有创建者的首选语言。
func (s *RoomService) CreateRoom(ctx context.Context, creatorID uint, name string, languages []string) (*domain.Room, error) {
	logCtx := logrus.WithFields(logrus.Fields{"creator_id": creatorID, "room_name": name})

	creator, err := s.userRepo.FindByID(ctx, creatorID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			logCtx.Warn("Create room failed: Creator not found")
			return nil, ErrUserNotFound
		}
		logCtx.WithError(err).Error("Database error finding creator")
		return nil, ErrInternalServer
	}

	if len(languages) == 0 {
		languages = []string{creator.PreferredLanguage}
	}

	joinCode, err := s.generateUniqueJoinCode(ctx)
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate unique join code")
		return nil, ErrInternalServer
	}

	room := &domain.Room{
		CreatorID: creatorID,
		Name:      name,
		JoinCode:  joinCode,
		IsActive:  true,
	}
	if err := room.SetLanguages(languages); err != nil {
		logCtx.WithError(err).Error("Failed to encode room languages")
		return nil, ErrInternalServer
	}

	if err := s.roomRepo.Save(ctx, room); err != nil {
		logCtx.WithError(err).Error("Database error creating room")
		return nil, ErrInternalServer
	}

	// 创建者自动成为参与者
	participant := &domain.Participant{
		RoomID:   room.ID,
		UserID:   creatorID,
		Language: creator.PreferredLanguage,
	}
	if err := s.participantRepo.Save(ctx, participant); err != nil && !errors.Is(err, repository.ErrDuplicateEntry) {
		logCtx.WithError(err).Error("Database error adding creator as participant")
		return nil, ErrInternalServer
	}

	logCtx.WithFields(logrus.Fields{"room_id": room.ID, "join_code": room.JoinCode}).Info("Room created successfully")
	return room, nil
}

// JoinByCode 通过加入码加入房间。重复加入是幂等的，返回已有的参与记录。
// language 为空时默认使用用户的首选语言。
func (s *RoomService) JoinByCode(ctx context.Context, userID uint, code, language string) (*domain.Room, *domain.Participant, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	logCtx := logrus.WithFields(logrus.Fields{"user_id": userID, "join_code": code})

	if len(code) != joinCodeLength {
		return nil, nil, ErrInvalidJoinCode
	}

	room, err := s.roomRepo.FindByJoinCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			logCtx.Warn("Join room failed: Invalid join code")
			return nil, nil, ErrInvalidJoinCode
		}
		logCtx.WithError(err).Error("Database error finding room by join code")
		return nil, nil, ErrInternalServer
	}
	if !room.IsActive {
		logCtx.WithField("room_id", room.ID).Warn("Join room failed: Room is disabled")
		return nil, nil, ErrRoomDisabled
	}

	// 已是成员则直接返回，保证幂等
	existing, err := s.participantRepo.FindByRoomAndUser(ctx, room.ID, userID)
	if err == nil {
		return room, existing, nil
	}
	if !errors.Is(err, repository.ErrParticipantNotFound) {
		logCtx.WithError(err).Error("Database error checking existing participant")
		return nil, nil, ErrInternalServer
	}

	if language == "" {
		user, err := s.userRepo.FindByID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return nil, nil, ErrUserNotFound
			}
			logCtx.WithError(err).Error("Database error finding joining user")
			return nil, nil, ErrInternalServer
		}
		language = user.PreferredLanguage
	}

	participant := &domain.Participant{
		RoomID:   room.ID,
		UserID:   userID,
		Language: language,
	}
	if err := s.participantRepo.Save(ctx, participant); err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			// 并发加入，读取已有记录兜底
			if existing, ferr := s.participantRepo.FindByRoomAndUser(ctx, room.ID, userID); ferr == nil {
				return room, existing, nil
			}
		}
		logCtx.WithError(err).Error("Database error saving participant")
		return nil, nil, ErrInternalServer
	}

	logCtx.WithField("room_id", room.ID).Info("User joined room successfully")
	return room, participant, nil
}

// FindRoomByID 查找房间，不存在时返回 ErrRoomNotFound。
func (s *RoomService) FindRoomByID(ctx context.Context, roomID uint) (*domain.Room, error) {
	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return nil, ErrRoomNotFound
		}
		logrus.WithError(err).WithField("room_id", roomID).Error("Database error finding room")
		return nil, ErrInternalServer
	}
	return room, nil
}

// IsMember 判断用户是否为房间参与者。
func (s *RoomService) IsMember(ctx context.Context, roomID, userID uint) (bool, error) {
	isMember, err := s.participantRepo.IsMember(ctx, roomID, userID)
	if err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).Error("Database error checking room membership")
		return false, ErrInternalServer
	}
	return isMember, nil
}

// Participants 返回房间的全部参与记录，已预加载 User。
func (s *RoomService) Participants(ctx context.Context, roomID uint) ([]domain.Participant, error) {
	participants, err := s.participantRepo.FindByRoom(ctx, roomID)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Database error listing participants")
		return nil, ErrInternalServer
	}
	return participants, nil
}

// DisableRoom 停用房间，仅创建者可操作。
func (s *RoomService) DisableRoom(ctx context.Context, roomID, requesterID uint) error {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "requester_id": requesterID})

	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return ErrRoomNotFound
		}
		logCtx.WithError(err).Error("Database error finding room to disable")
		return ErrInternalServer
	}
	if room.CreatorID != requesterID {
		logCtx.Warn("Disable room denied: Requester is not the creator")
		return ErrNotRoomCreator
	}

	room.IsActive = false
	if err := s.roomRepo.Save(ctx, room); err != nil {
		logCtx.WithError(err).Error("Database error disabling room")
		return ErrInternalServer
	}

	logCtx.Info("Room disabled successfully")
	return nil
}

// generateUniqueJoinCode 生成唯一的 6 位加入码，带冲突重试。
// 重试次数耗尽时返回错误而不是带着可能冲突的码继续。
func (s *RoomService) generateUniqueJoinCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < joinCodeMaxAttempts; attempt++ {
		code, err := randomJoinCode()
		if err != nil {
			return "", err
		}
		exists, err := s.roomRepo.IsJoinCodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check join code uniqueness: %w", err)
		}
		if !exists {
			return code, nil
		}
		logrus.WithField("attempt", attempt+1).Warn("Join code collision, retrying")
	}
	return "", fmt.Errorf("failed to generate unique join code after %d attempts", joinCodeMaxAttempts)
}

// randomJoinCode 从字符集中均匀采样生成加入码。
// 字符集长度 32 正好整除 256，直接取模不会引入偏差。
func randomJoinCode() (string, error) {
	buf := make([]byte, joinCodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	code := make([]byte, joinCodeLength)
	for i, b := range buf {
		code[i] = joinCodeCharset[int(b)%len(joinCodeCharset)]
	}
	return string(code), nil
}
