package services

import (
	"context"
	"strings"

	"github.com/Arman334/CrewLink/internal/apperrors"
	"github.com/Arman334/CrewLink/internal/models"
	"github.com/Arman334/CrewLink/internal/repository"
	"github.com/Arman334/CrewLink/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UserService handles account registration, authentication and profiles.
type UserService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

// RegisterUser hashes the password and stores the new account.
func (s *UserService) RegisterUser(ctx context.Context, user *models.User, password string) (*models.User, error) {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Email == "" {
		return nil, apperrors.Validation("email is required")
	}
	if strings.TrimSpace(user.DisplayName) == "" {
		return nil, apperrors.Validation("display name is required")
	}
	if len(password) < 8 {
		return nil, apperrors.Validation("password must be at least 8 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Transient(err, "failed to hash password")
	}
	user.HashedPassword = string(hashed)

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to register user")
		return nil, err
	}

	logger.Log.WithField("userID", created.ID.Hex()).Info("User registered")
	return created, nil
}

// AuthenticateUser verifies credentials and returns the account.
func (s *UserService) AuthenticateUser(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, apperrors.Permission("invalid email or password")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return nil, apperrors.Permission("invalid email or password")
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) UpdateProfile(ctx context.Context, id primitive.ObjectID, displayName, airline, base string) (*models.User, error) {
	if strings.TrimSpace(displayName) == "" {
		return nil, apperrors.Validation("display name is required")
	}
	return s.userRepo.UpdateProfile(ctx, id, displayName, airline, base)
}
