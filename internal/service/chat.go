package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"github.com/kunal0586/LangoLink/internal/domain"
	"github.com/kunal0586/LangoLink/internal/repository"
	"github.com/kunal0586/LangoLink/internal/tasks"
	"github.com/kunal0586/LangoLink/internal/translate"
)

// ChatService 负责消息的翻译、持久化与历史查询。
// 翻译失败时降级为原文回显，绝不因为翻译服务不可用而丢消息。
type ChatService struct {
	participantRepo repository.ParticipantRepository
	messageRepo     repository.MessageRepository
	stateRepo       repository.StateRepository
	translator      translate.Translator
	asynqClient     *asynq.Client // 可为 nil（测试环境）
}

// NewChatService 创建 ChatService 实例。asynqClient 允许为 nil，此时跳过后台任务入队。
func NewChatService(
	participantRepo repository.ParticipantRepository,
	messageRepo repository.MessageRepository,
	stateRepo repository.StateRepository,
	translator translate.Translator,
	asynqClient *asynq.Client,
) *ChatService {
	if participantRepo == nil || messageRepo == nil || translator == nil {
		panic("ChatService dependencies cannot be nil")
	}
	return &ChatService{
		participantRepo: participantRepo,
		messageRepo:     messageRepo,
		stateRepo:       stateRepo,
		translator:      translator,
		asynqClient:     asynqClient,
	}
}

// SendMessage 处理一条房间消息：确定目标语言、翻译、持久化。
// 持久化成功后才返回，广播由调用方在拿到返回值之后进行。
// 返回值依次为持久化后的消息、发送者摘要和翻译结果。
func (s *ChatService) SendMessage(ctx context.Context, roomID, senderID uint, content, messageType string) (*domain.Message, domain.UserSummary, translate.Result, error) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "sender_id": senderID})

	if content == "" {
		return nil, domain.UserSummary{}, translate.Result{}, ErrInvalidMessage
	}
	if messageType == "" {
		messageType = domain.MessageTypeText
	}
	if !domain.IsValidMessageType(messageType) {
		return nil, domain.UserSummary{}, translate.Result{}, ErrInvalidMessage
	}

	// 1. 获取参与者列表，确定发送者语言和目标语言集合
	participants, err := s.participantRepo.FindByRoom(ctx, roomID)
	if err != nil {
		logCtx.WithError(err).Error("Database error listing participants for message")
		return nil, domain.UserSummary{}, translate.Result{}, ErrInternalServer
	}

	var sender *domain.Participant
	targetSet := make(map[string]struct{})
	for i := range participants {
		p := &participants[i]
		if p.UserID == senderID {
			sender = p
			continue
		}
		if p.Language != "" {
			targetSet[p.Language] = struct{}{}
		}
	}
	if sender == nil {
		logCtx.Warn("Send message denied: Sender is not a room participant")
		return nil, domain.UserSummary{}, translate.Result{}, ErrNotRoomMember
	}

	senderLang := sender.Language
	delete(targetSet, senderLang)
	targets := make([]string, 0, len(targetSet))
	for lang := range targetSet {
		targets = append(targets, lang)
	}

	// 2. 翻译。没有目标语言或纯空白文本时跳过；失败时降级回显原文
	var result translate.Result
	if len(targets) == 0 || strings.TrimSpace(content) == "" || messageType != domain.MessageTypeText {
		result = translate.Skipped(senderLang)
	} else {
		result, err = s.translator.Translate(ctx, content, targets)
		if err != nil {
			logCtx.WithError(err).Warn("Translation failed, degrading to echo")
			result = translate.Degraded(senderLang, content, targets)
		}
	}

	// 3. 先持久化，再返回给调用方广播
	message := &domain.Message{
		RoomID:           roomID,
		SenderID:         senderID,
		Content:          content,
		MessageType:      messageType,
		DetectedLanguage: result.DetectedLanguage,
		Confidence:       result.Confidence,
	}
	if err := message.SetTranslations(result.Translations); err != nil {
		logCtx.WithError(err).Error("Failed to encode message translations")
		return nil, domain.UserSummary{}, translate.Result{}, ErrInternalServer
	}
	if err := s.messageRepo.Save(ctx, message); err != nil {
		logCtx.WithError(err).Error("Database error saving message")
		return nil, domain.UserSummary{}, translate.Result{}, ErrInternalServer
	}

	// 4. 尽力而为的副作用：历史缓存、活跃度标记、后台任务
	s.cacheAndTouch(ctx, message)

	return message, sender.User.Summary(), result, nil
}

// History 返回房间最近的消息，优先读缓存，缓存未命中时回源数据库。
func (s *ChatService) History(ctx context.Context, roomID uint, limit int) ([]domain.Message, error) {
	if limit <= 0 {
		limit = 50
	}

	if s.stateRepo != nil {
		cached, err := s.stateRepo.GetRecentMessages(ctx, roomID, limit)
		if err != nil {
			logrus.WithError(err).WithField("room_id", roomID).Warn("Failed to read message history cache, falling back to database")
		} else if len(cached) > 0 {
			return cached, nil
		}
	}

	messages, err := s.messageRepo.FindRecentByRoom(ctx, roomID, limit)
	if err != nil {
		logrus.WithError(err).WithField("room_id", roomID).Error("Database error loading message history")
		return nil, ErrInternalServer
	}
	return messages, nil
}

// cacheAndTouch 把消息写入历史缓存并标记房间活跃。
// 这些都是尽力而为的操作，失败只记日志不影响消息投递。
func (s *ChatService) cacheAndTouch(ctx context.Context, message *domain.Message) {
	logCtx := logrus.WithFields(logrus.Fields{"room_id": message.RoomID, "message_id": message.ID})

	if s.stateRepo != nil {
		if err := s.stateRepo.PushMessageToHistory(ctx, message.RoomID, *message); err != nil {
			logCtx.WithError(err).Warn("Failed to push message to history cache")
		}
		if err := s.stateRepo.MarkRoomActive(ctx, message.RoomID, time.Now()); err != nil {
			logCtx.WithError(err).Warn("Failed to mark room active")
		}
	}

	if s.asynqClient != nil {
		task, err := tasks.NewRoomTouchTask(message.RoomID, time.Now())
		if err != nil {
			logCtx.WithError(err).Warn("Failed to build room touch task")
			return
		}
		if _, err := s.asynqClient.Enqueue(task, asynq.Queue(tasks.QueueDefault)); err != nil {
			logCtx.WithError(err).Warn("Failed to enqueue room touch task")
		}
	}
}

// IsMember 判断用户是否为房间参与者，供接入层在广播前做权限检查。
func (s *ChatService) IsMember(ctx context.Context, roomID, userID uint) (bool, error) {
	isMember, err := s.participantRepo.IsMember(ctx, roomID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrParticipantNotFound) {
			return false, nil
		}
		logrus.WithError(err).WithFields(logrus.Fields{"room_id": roomID, "user_id": userID}).Error("Database error checking membership")
		return false, ErrInternalServer
	}
	return isMember, nil
}
