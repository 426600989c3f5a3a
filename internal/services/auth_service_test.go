package services_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"

	"canteen/internal/database"
	"canteen/internal/models"
	"canteen/internal/repositories"
	"canteen/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = 1
	}
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

func TestAuthService_RegisterUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo)

	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "test@example.com" &&
			u.Role == models.RoleUser &&
			bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("password123")) == nil
	})).Return(nil).Once()

	user, err := authService.RegisterUser(ctx, "Test User", " test@example.com ", "password123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "password123", user.Password)
	mockRepo.AssertExpectations(t)

	// Test email already registered
	dupErr := fmt.Errorf("%w: test@example.com", repositories.ErrDuplicateEmail)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(dupErr).Once()
	_, err = authService.RegisterUser(ctx, "Other", "test@example.com", "password456")
	assert.ErrorIs(t, err, repositories.ErrDuplicateEmail)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_CreateAdmin(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo)

	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Role == models.RoleAdmin
	})).Return(nil).Once()

	admin, err := authService.CreateAdmin(ctx, "Cook", "cook@example.com", "secret-pass")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{
		ID:       7,
		Name:     "Test User",
		Email:    "test@example.com",
		Password: string(hashedPassword),
		Role:     models.RoleUser,
	}

	// Test successful login
	mockRepo.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()
	got, err := authService.LoginUser(ctx, "test@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, uint(7), got.ID)
	assert.Equal(t, models.RoleUser, got.Role)
	mockRepo.AssertExpectations(t)

	// Test wrong password
	mockRepo.On("GetByEmail", ctx, "test@example.com").Return(user, nil).Once()
	got, err = authService.LoginUser(ctx, "test@example.com", "wrongpassword")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	assert.Nil(t, got)
	mockRepo.AssertExpectations(t)

	// Test unknown email
	mockRepo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, repositories.ErrNotFound).Once()
	got, err = authService.LoginUser(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	assert.Nil(t, got)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginUser_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo)

	connErr := fmt.Errorf("%w: users.get_by_email: sql: database is closed", database.ErrConnection)
	mockRepo.On("GetByEmail", ctx, "test@example.com").Return(nil, connErr).Once()

	_, err := authService.LoginUser(ctx, "test@example.com", "password123")
	assert.ErrorIs(t, err, database.ErrConnection)
	assert.NotErrorIs(t, err, services.ErrInvalidCredentials)
	mockRepo.AssertExpectations(t)
}
