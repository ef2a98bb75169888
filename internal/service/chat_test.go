package service_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kunal0586/LangoLink/internal/domain"
	"github.com/kunal0586/LangoLink/internal/repository/mocks"
	"github.com/kunal0586/LangoLink/internal/service"
	"github.com/kunal0586/LangoLink/internal/translate"
)

// mockTranslator 是 translate.Translator 的 testify mock
type mockTranslator struct {
	mock.Mock
}

func (m *mockTranslator) Translate(ctx context.Context, text string, targetLanguages []string) (translate.Result, error) {
	args := m.Called(ctx, text, targetLanguages)
	return args.Get(0).(translate.Result), args.Error(1)
}

func newChatServiceWithMocks() (*service.ChatService, *mocks.ParticipantRepository, *mocks.MessageRepository, *mocks.StateRepository, *mockTranslator) {
	mockParticipantRepo := new(mocks.ParticipantRepository)
	mockMessageRepo := new(mocks.MessageRepository)
	mockStateRepo := new(mocks.StateRepository)
	translator := new(mockTranslator)
	svc := service.NewChatService(mockParticipantRepo, mockMessageRepo, mockStateRepo, translator, nil)
	return svc, mockParticipantRepo, mockMessageRepo, mockStateRepo, translator
}

// 三个参与者：发送者 (en) 和两个不同语言的接收者
func multilingualParticipants() []domain.Participant {
	return []domain.Participant{
		{RoomID: 1, UserID: 1, Language: "en", User: domain.User{ID: 1, DisplayName: "Alice"}},
		{RoomID: 1, UserID: 2, Language: "fr", User: domain.User{ID: 2, DisplayName: "Bruno"}},
		{RoomID: 1, UserID: 3, Language: "es", User: domain.User{ID: 3, DisplayName: "Carla"}},
	}
}

func TestChatService_SendMessage_TranslatesForOtherLanguages(t *testing.T) {
	// Arrange
	svc, mockParticipantRepo, mockMessageRepo, mockStateRepo, translator := newChatServiceWithMocks()
	ctx := context.Background()

	mockParticipantRepo.On("FindByRoom", ctx, uint(1)).Return(multilingualParticipants(), nil).Once()
	// 目标语言是去重后的其他参与者语言，不含发送者自己的语言
	translator.On("Translate", ctx, "hello", mock.MatchedBy(func(targets []string) bool {
		sorted := append([]string(nil), targets...)
		sort.Strings(sorted)
		return assert.ObjectsAreEqual([]string{"es", "fr"}, sorted)
	})).Return(translate.Result{
		DetectedLanguage: "en",
		Translations:     map[string]string{"fr": "bonjour", "es": "hola"},
		Confidence:       0.97,
	}, nil).Once()
	mockMessageRepo.On("Save", ctx, mock.MatchedBy(func(msg *domain.Message) bool {
		translations, err := msg.ParseTranslations()
		return err == nil && msg.RoomID == 1 && msg.SenderID == 1 &&
			msg.DetectedLanguage == "en" && msg.Confidence == 0.97 &&
			translations["fr"] == "bonjour" && translations["es"] == "hola"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Message).ID = 100
	}).Return(nil).Once()
	mockStateRepo.On("PushMessageToHistory", ctx, uint(1), mock.AnythingOfType("domain.Message")).Return(nil).Once()
	mockStateRepo.On("MarkRoomActive", ctx, uint(1), mock.AnythingOfType("time.Time")).Return(nil).Once()

	// Act
	message, sender, result, err := svc.SendMessage(ctx, 1, 1, "hello", "text")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, uint(100), message.ID)
	assert.Equal(t, "Alice", sender.DisplayName)
	assert.Equal(t, "en", result.DetectedLanguage)
	assert.Equal(t, "bonjour", result.Translations["fr"])
	assert.Equal(t, 0.97, result.Confidence)

	mockParticipantRepo.AssertExpectations(t)
	mockMessageRepo.AssertExpectations(t)
	translator.AssertExpectations(t)
}

func TestChatService_SendMessage_SkipsWhenAllSameLanguage(t *testing.T) {
	// 所有参与者同语言时跳过翻译：翻译器不被调用，置信度 1.0
	svc, mockParticipantRepo, mockMessageRepo, mockStateRepo, translator := newChatServiceWithMocks()
	ctx := context.Background()

	sameLang := []domain.Participant{
		{RoomID: 1, UserID: 1, Language: "en", User: domain.User{ID: 1, DisplayName: "Alice"}},
		{RoomID: 1, UserID: 2, Language: "en", User: domain.User{ID: 2, DisplayName: "Bob"}},
	}
	mockParticipantRepo.On("FindByRoom", ctx, uint(1)).Return(sameLang, nil).Once()
	mockMessageRepo.On("Save", ctx, mock.AnythingOfType("*domain.Message")).Return(nil).Once()
	mockStateRepo.On("PushMessageToHistory", ctx, uint(1), mock.AnythingOfType("domain.Message")).Return(nil).Once()
	mockStateRepo.On("MarkRoomActive", ctx, uint(1), mock.AnythingOfType("time.Time")).Return(nil).Once()

	_, _, result, err := svc.SendMessage(ctx, 1, 1, "hello", "text")

	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Empty(t, result.Translations)
	translator.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatService_SendMessage_SkipsBlankContent(t *testing.T) {
	// 纯空白文本不翻译，但仍然持久化
	svc, mockParticipantRepo, mockMessageRepo, mockStateRepo, translator := newChatServiceWithMocks()
	ctx := context.Background()

	mockParticipantRepo.On("FindByRoom", ctx, uint(1)).Return(multilingualParticipants(), nil).Once()
	mockMessageRepo.On("Save", ctx, mock.AnythingOfType("*domain.Message")).Return(nil).Once()
	mockStateRepo.On("PushMessageToHistory", ctx, uint(1), mock.AnythingOfType("domain.Message")).Return(nil).Once()
	mockStateRepo.On("MarkRoomActive", ctx, uint(1), mock.AnythingOfType("time.Time")).Return(nil).Once()

	_, _, result, err := svc.SendMessage(ctx, 1, 1, "   ", "text")

	require.NoError(t, err)
	assert.Equal(t, 1.0, result.Confidence)
	translator.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything)
	mockMessageRepo.AssertExpectations(t)
}

func TestChatService_SendMessage_DegradesOnTranslationFailure(t *testing.T) {
	// 翻译失败时降级：所有目标语言回显原文，置信度 0，消息照常持久化
	svc, mockParticipantRepo, mockMessageRepo, mockStateRepo, translator := newChatServiceWithMocks()
	ctx := context.Background()

	mockParticipantRepo.On("FindByRoom", ctx, uint(1)).Return(multilingualParticipants(), nil).Once()
	translator.On("Translate", ctx, "hello", mock.Anything).
		Return(translate.Result{}, errors.New("translate service unreachable")).Once()
	mockMessageRepo.On("Save", ctx, mock.MatchedBy(func(msg *domain.Message) bool {
		translations, _ := msg.ParseTranslations()
		return msg.Confidence == 0 &&
			translations["fr"] == "hello" && translations["es"] == "hello"
	})).Return(nil).Once()
	mockStateRepo.On("PushMessageToHistory", ctx, uint(1), mock.AnythingOfType("domain.Message")).Return(nil).Once()
	mockStateRepo.On("MarkRoomActive", ctx, uint(1), mock.AnythingOfType("time.Time")).Return(nil).Once()

	_, _, result, err := svc.SendMessage(ctx, 1, 1, "hello", "text")

	require.NoError(t, err, "翻译失败不应导致消息发送失败")
	assert.Equal(t, 0.0, result.Confidence)
	assert.Equal(t, "hello", result.Translations["fr"])
	assert.Equal(t, "hello", result.Translations["es"])
	mockMessageRepo.AssertExpectations(t)
}

func TestChatService_SendMessage_PersistFailure(t *testing.T) {
	// 持久化失败时返回错误，调用方不得广播
	svc, mockParticipantRepo, mockMessageRepo, mockStateRepo, translator := newChatServiceWithMocks()
	ctx := context.Background()

	mockParticipantRepo.On("FindByRoom", ctx, uint(1)).Return(multilingualParticipants(), nil).Once()
	translator.On("Translate", ctx, "hello", mock.Anything).
		Return(translate.Result{DetectedLanguage: "en", Translations: map[string]string{"fr": "bonjour", "es": "hola"}, Confidence: 0.9}, nil).Once()
	mockMessageRepo.On("Save", ctx, mock.AnythingOfType("*domain.Message")).Return(errors.New("db down")).Once()

	message, _, _, err := svc.SendMessage(ctx, 1, 1, "hello", "text")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInternalServer))
	assert.Nil(t, message)
	// 持久化失败后不应再写缓存
	mockStateRepo.AssertNotCalled(t, "PushMessageToHistory", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatService_SendMessage_SenderNotMember(t *testing.T) {
	svc, mockParticipantRepo, mockMessageRepo, _, translator := newChatServiceWithMocks()
	ctx := context.Background()

	// 参与者列表里没有 user 99
	mockParticipantRepo.On("FindByRoom", ctx, uint(1)).Return(multilingualParticipants(), nil).Once()

	_, _, _, err := svc.SendMessage(ctx, 1, 99, "hello", "text")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrNotRoomMember))
	translator.AssertNotCalled(t, "Translate", mock.Anything, mock.Anything, mock.Anything)
	mockMessageRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestChatService_SendMessage_InvalidType(t *testing.T) {
	svc, mockParticipantRepo, _, _, _ := newChatServiceWithMocks()

	_, _, _, err := svc.SendMessage(context.Background(), 1, 1, "hello", "sticker")

	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrInvalidMessage))
	mockParticipantRepo.AssertNotCalled(t, "FindByRoom", mock.Anything, mock.Anything)
}

// --- 测试 History 方法 ---

func TestChatService_History_CacheHit(t *testing.T) {
	svc, _, mockMessageRepo, mockStateRepo, _ := newChatServiceWithMocks()
	ctx := context.Background()
	cached := []domain.Message{{ID: 1, RoomID: 5, Content: "hi"}}

	mockStateRepo.On("GetRecentMessages", ctx, uint(5), 50).Return(cached, nil).Once()

	messages, err := svc.History(ctx, 5, 0)

	require.NoError(t, err)
	assert.Equal(t, cached, messages)
	mockMessageRepo.AssertNotCalled(t, "FindRecentByRoom", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatService_History_CacheMissFallsBackToDB(t *testing.T) {
	svc, _, mockMessageRepo, mockStateRepo, _ := newChatServiceWithMocks()
	ctx := context.Background()
	stored := []domain.Message{{ID: 1, RoomID: 5, Content: "old"}, {ID: 2, RoomID: 5, Content: "new"}}

	mockStateRepo.On("GetRecentMessages", ctx, uint(5), 20).Return([]domain.Message{}, nil).Once()
	mockMessageRepo.On("FindRecentByRoom", ctx, uint(5), 20).Return(stored, nil).Once()

	messages, err := svc.History(ctx, 5, 20)

	require.NoError(t, err)
	assert.Equal(t, stored, messages)
	mockStateRepo.AssertExpectations(t)
	mockMessageRepo.AssertExpectations(t)
}
