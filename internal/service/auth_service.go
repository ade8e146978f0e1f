package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"newsfeed/internal/domain"
	"newsfeed/internal/logger"
	"newsfeed/internal/repository"
	"newsfeed/pkg/email"
	"newsfeed/pkg/security"
)

type AuthService struct {
	userRepo     repository.UserRepository
	emailService email.Service
	hasher       *security.PasswordHasher
	appURL       string
}

func NewAuthService(
	userRepo repository.UserRepository,
	emailService email.Service,
	hasher *security.PasswordHasher,
	appURL string,
) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		emailService: emailService,
		hasher:       hasher,
		appURL:       strings.TrimRight(appURL, "/"),
	}
}

// Register creates an account and sends a welcome email when an address was
// given. Delivery failures are logged and do not fail registration.
func (s *AuthService) Register(ctx context.Context, username, emailAddr, password string) (*domain.User, error) {
	user := &domain.User{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(emailAddr),
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	logger.Infof("Registered user %s (id %d)", user.Username, user.ID)

	if user.Email != "" {
		subject, body := email.WelcomeMessage(user.Username, s.appURL)
		if err := s.emailService.SendEmail(user.Email, subject, body); err != nil {
			logger.Warnf("Error sending welcome email to %s: %v", user.Email, err)
		}
	}

	return user, nil
}

func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		if errors.Is(err, security.ErrPasswordMismatch) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	logger.Debugf("User %s authenticated", user.Username)
	return user, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID int) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}
