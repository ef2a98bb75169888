package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kunal0586/LangoLink/internal/domain"
	"github.com/kunal0586/LangoLink/internal/repository"
	"github.com/kunal0586/LangoLink/internal/repository/mocks"
	"github.com/kunal0586/LangoLink/internal/service"
)

// --- 测试 Register 方法 ---

func TestAuthService_Register_Success(t *testing.T) {
	// Arrange: 准备 Mock 对象, Service 实例, 和测试数据
	mockUserRepo := new(mocks.UserRepository)
	authService, err := service.NewAuthService(mockUserRepo, "very-secret-key", 1)
	require.NoError(t, err, "创建 AuthService 不应失败")

	ctx := context.Background()
	username := "newbie"
	password := "StrongPass123"
	email := "newbie@example.com"

	// 设置 Mock 预期:
	// 1. 当 FindByUsername 被调用时，模拟用户不存在
	mockUserRepo.On("FindByUsername", ctx, username).
		Return(nil, repository.ErrUserNotFound).
		Once()

	// 2. 当 Save 被调用时，模拟保存成功，并填充 ID/时间戳
	mockUserRepo.On("Save", ctx, mock.MatchedBy(func(user *domain.User) bool {
		assert.Equal(t, username, user.Username)
		assert.Equal(t, email, user.Email)
		// 验证密码是否已哈希
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)), "密码应被正确哈希")
		return true
	})).
		Run(func(args mock.Arguments) { // 模拟数据库填充字段
			userArg := args.Get(1).(*domain.User)
			userArg.ID = 5
			userArg.CreatedAt = time.Now().Add(-time.Second)
			userArg.UpdatedAt = time.Now().Add(-time.Second)
		}).
		Return(nil).
		Once()

	// Act
	registeredUser, err := authService.Register(ctx, username, password, email, "Newbie", "fr")

	// Assert
	assert.NoError(t, err, "成功注册时不应有错误")
	require.NotNil(t, registeredUser, "成功注册时应返回用户对象")
	assert.Equal(t, uint(5), registeredUser.ID)
	assert.Equal(t, username, registeredUser.Username)
	assert.Equal(t, "Newbie", registeredUser.DisplayName)
	assert.Equal(t, "fr", registeredUser.PreferredLanguage)
	assert.Empty(t, registeredUser.Password, "返回的用户密码应为空")
	assert.False(t, registeredUser.CreatedAt.IsZero(), "创建时间应被设置")

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_Defaults(t *testing.T) {
	// display_name 和 preferred_language 为空时应使用默认值
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "secret", 1)
	ctx := context.Background()

	mockUserRepo.On("FindByUsername", ctx, "plainuser").Return(nil, repository.ErrUserNotFound).Once()
	mockUserRepo.On("Save", ctx, mock.MatchedBy(func(user *domain.User) bool {
		return user.DisplayName == "plainuser" && user.PreferredLanguage == "en"
	})).Return(nil).Once()

	registeredUser, err := authService.Register(ctx, "plainuser", "password", "", "", "")

	require.NoError(t, err)
	assert.Equal(t, "plainuser", registeredUser.DisplayName)
	assert.Equal(t, "en", registeredUser.PreferredLanguage)
	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Register_UsernameTaken(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "secret", 1)
	ctx := context.Background()
	username := "existingUser"

	// 设置 Mock 预期: FindByUsername 找到一个已存在的用户
	existingUser := &domain.User{ID: 10, Username: username}
	mockUserRepo.On("FindByUsername", ctx, username).Return(existingUser, nil).Once()

	// Act
	_, err := authService.Register(ctx, username, "password", "email@test.com", "", "")

	// Assert
	require.Error(t, err, "用户名已存在时应返回错误")
	assert.True(t, errors.Is(err, service.ErrRegistrationFailed), "错误类型应为 ErrRegistrationFailed")

	mockUserRepo.AssertExpectations(t)
	// 明确断言 Save 没有被调用
	mockUserRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestAuthService_Register_SaveFails_DuplicateEntry(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "secret", 1)
	ctx := context.Background()
	username := "anotherNewUser"

	// 检查时不存在，保存时被并发注册抢先
	mockUserRepo.On("FindByUsername", ctx, username).Return(nil, repository.ErrUserNotFound).Once()
	mockUserRepo.On("Save", ctx, mock.AnythingOfType("*domain.User")).Return(repository.ErrDuplicateEntry).Once()

	// Act
	_, err := authService.Register(ctx, username, "password", "email2@test.com", "", "")

	// Assert
	require.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrRegistrationFailed), "保存冲突时应返回 ErrRegistrationFailed")

	mockUserRepo.AssertExpectations(t)
}

// --- 测试 Login 方法 ---

func TestAuthService_Login_Success(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "test-secret", 24)
	ctx := context.Background()
	username := "testuser"
	password := "password123"
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	userInDb := &domain.User{ID: 1, Username: username, Password: string(hashedPassword)}

	mockUserRepo.On("FindByUsername", ctx, username).Return(userInDb, nil).Once()

	// Act
	token, err := authService.Login(ctx, username, password)

	// Assert
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_UserNotFound(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "test-secret", 24)
	ctx := context.Background()
	username := "nonexistent"

	mockUserRepo.On("FindByUsername", ctx, username).Return(nil, repository.ErrUserNotFound).Once()

	// Act
	token, err := authService.Login(ctx, username, "password")

	// Assert
	require.Error(t, err)
	assert.Empty(t, token)
	assert.True(t, errors.Is(err, service.ErrAuthenticationFailed))

	mockUserRepo.AssertExpectations(t)
}

func TestAuthService_Login_IncorrectPassword(t *testing.T) {
	// Arrange
	mockUserRepo := new(mocks.UserRepository)
	authService, _ := service.NewAuthService(mockUserRepo, "test-secret", 24)
	ctx := context.Background()
	username := "testuser"
	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	userInDb := &domain.User{ID: 1, Username: username, Password: string(hashedPassword)}

	mockUserRepo.On("FindByUsername", ctx, username).Return(userInDb, nil).Once()

	// Act
	token, err := authService.Login(ctx, username, "wrongpassword")

	// Assert
	require.Error(t, err)
	assert.Empty(t, token)
	assert.True(t, errors.Is(err, service.ErrAuthenticationFailed))

	mockUserRepo.AssertExpectations(t)
}
