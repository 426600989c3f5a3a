package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"canteen/internal/logging"
	"canteen/internal/metrics"
	"canteen/internal/models"
	"canteen/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
// The two cases are deliberately indistinguishable to the caller.
var ErrInvalidCredentials = errors.New("invalid credentials")

// dummyHash is compared against when the email is unknown so that both
// failure paths cost one bcrypt comparison.
var dummyHash = sync.OnceValue(func() []byte {
	h, err := bcrypt.GenerateFromPassword([]byte("canteen-unknown-user"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy hash: %v", err))
	}
	return h
})

// AuthService handles registration and credential checks.
type AuthService struct {
	userRepo repositories.UserRepository
	hashCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		hashCost: bcrypt.DefaultCost,
	}
}

// RegisterUser creates a user with the default role. A duplicate email is
// reported as repositories.ErrDuplicateEmail.
func (s *AuthService) RegisterUser(ctx context.Context, name, email, password string) (*models.User, error) {
	user, err := s.create(ctx, name, email, password, models.RoleUser)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("register", outcome(err, repositories.ErrDuplicateEmail)).Inc()
		return nil, err
	}
	metrics.AuthAttempts.WithLabelValues("register", "ok").Inc()
	logging.FromContext(ctx).Info("user registered", "user_id", user.ID)
	return user, nil
}

// CreateAdmin creates a user holding the admin role. It is not reachable
// over HTTP.
func (s *AuthService) CreateAdmin(ctx context.Context, name, email, password string) (*models.User, error) {
	user, err := s.create(ctx, name, email, password, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	logging.FromContext(ctx).Info("admin created", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) create(ctx context.Context, name, email, password, role string) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &models.User{
		Name:     strings.TrimSpace(name),
		Email:    strings.TrimSpace(email),
		Password: string(hashed),
		Role:     role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	return user, nil
}

// LoginUser returns the stored user when email and password match.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
			metrics.AuthAttempts.WithLabelValues("login", "rejected").Inc()
			return nil, ErrInvalidCredentials
		}
		metrics.AuthAttempts.WithLabelValues("login", "error").Inc()
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		metrics.AuthAttempts.WithLabelValues("login", "rejected").Inc()
		return nil, ErrInvalidCredentials
	}

	metrics.AuthAttempts.WithLabelValues("login", "ok").Inc()
	return user, nil
}

// outcome labels a failed attempt as rejected when it is the expected
// client-side failure and as error otherwise.
func outcome(err, expected error) string {
	if errors.Is(err, expected) {
		return "rejected"
	}
	return "error"
}
