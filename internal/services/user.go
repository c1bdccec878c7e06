package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"daylog-backend/internal/models"
	"daylog-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	jwtExpDays     = 365
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 8
	avatarDim      = 512
	avatarQuality  = 85
)

// UserRepo is the slice of the user repository the user service uses.
type UserRepo interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateUsername(ctx context.Context, userID, username string) error
	UpdateProfileImageURL(ctx context.Context, userID, url string) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	Delete(ctx context.Context, userID string) error
}

// UserService handles registration, authentication and profile management
type UserService struct {
	userRepo  UserRepo
	blobs     BlobStore
	jwtSecret string
}

// NewUserService creates a new user service
func NewUserService(userRepo UserRepo, blobs BlobStore, jwtSecret string) *UserService {
	return &UserService{
		userRepo:  userRepo,
		blobs:     blobs,
		jwtSecret: jwtSecret,
	}
}

// Register creates a new user with a username and password
func (s *UserService) Register(ctx context.Context, username, password string) (*models.User, string, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return nil, "", fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if len(password) < minPasswordLen {
		return nil, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	exists, err := s.userRepo.UsernameExists(ctx, username)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if exists {
		return nil, "", ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent registration can slip past the existence check and
		// lose at the unique constraint instead.
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return nil, "", ErrUsernameTaken
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// Login authenticates a user and returns a fresh token
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

// GetProfile retrieves a user's profile
func (s *UserService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidUser
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidUser
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return user, nil
}

// UpdateUsername changes the user's display name
func (s *UserService) UpdateUsername(ctx context.Context, userID, username string) error {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen || len(username) > maxUsernameLen {
		return fmt.Errorf("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}

	exists, err := s.userRepo.UsernameExists(ctx, username)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if exists {
		return ErrUsernameTaken
	}

	if err := s.userRepo.UpdateUsername(ctx, userID, username); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return ErrUsernameTaken
		}
		return err
	}
	return nil
}

// UpdatePushToken registers or clears the user's APNs device token
func (s *UserService) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	return s.userRepo.UpdatePushToken(ctx, userID, pushToken)
}

// SetProfileImage re-encodes and stores a profile image, then records its URL
func (s *UserService) SetProfileImage(ctx context.Context, userID string, imageBytes []byte) (string, error) {
	encoded, err := encodeJPEG(imageBytes, avatarDim, avatarQuality)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	key := fmt.Sprintf("%s/profile/%s.jpg", userID, uuid.New().String())
	url, err := s.blobs.Put(ctx, key, encoded, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	if err := s.userRepo.UpdateProfileImageURL(ctx, userID, url); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMetadataWriteFailed, err)
	}
	return url, nil
}

// DeleteAccount removes the user; entry rows cascade with the user row.
// Uploaded blobs are not collected.
func (s *UserService) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidUser
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
