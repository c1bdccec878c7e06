package services

import (
	"context"
	"fmt"
	"testing"

	"daylog-backend/internal/models"
	"daylog-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUserRepo struct {
	users map[string]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*models.User)}
}

func (m *memUserRepo) Create(_ context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, fmt.Errorf("user %s: %w", id, repository.ErrNotFound)
}

func (m *memUserRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, fmt.Errorf("user %q: %w", username, repository.ErrNotFound)
}

func (m *memUserRepo) UsernameExists(_ context.Context, username string) (bool, error) {
	for _, u := range m.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserRepo) UpdateUsername(_ context.Context, userID, username string) error {
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Username = username
	return nil
}

func (m *memUserRepo) UpdateProfileImageURL(_ context.Context, userID, url string) error {
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.ProfileImageURL = &url
	return nil
}

func (m *memUserRepo) UpdatePushToken(_ context.Context, userID string, pushToken *string) error {
	u, ok := m.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.PushToken = pushToken
	return nil
}

func (m *memUserRepo) Delete(_ context.Context, userID string) error {
	if _, ok := m.users[userID]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, userID)
	return nil
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewUserService(repo, &fakeBlobStore{}, "test-secret")

	user, token, err := svc.Register(context.Background(), "daily-poster", "hunter2hunter2")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)

	userID, err := svc.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	loggedIn, loginToken, err := svc.Login(context.Background(), "daily-poster", "hunter2hunter2")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, loginToken)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewUserService(repo, &fakeBlobStore{}, "test-secret")

	_, _, err := svc.Register(context.Background(), "daily-poster", "hunter2hunter2")
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), "daily-poster", "otherpassword")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

// staleCheckUserRepo reports the username as free while the insert still
// collides, as happens when two registrations race past UsernameExists.
type staleCheckUserRepo struct {
	*memUserRepo
}

func (s *staleCheckUserRepo) UsernameExists(context.Context, string) (bool, error) {
	return false, nil
}

func (s *staleCheckUserRepo) Create(context.Context, *models.User) error {
	return fmt.Errorf("username %q: %w", "daily-poster", repository.ErrDuplicateUsername)
}

func TestRegisterConcurrentDuplicateUsername(t *testing.T) {
	repo := &staleCheckUserRepo{memUserRepo: newMemUserRepo()}
	svc := NewUserService(repo, &fakeBlobStore{}, "test-secret")

	_, _, err := svc.Register(context.Background(), "daily-poster", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRegisterRejectsWeakInput(t *testing.T) {
	svc := NewUserService(newMemUserRepo(), &fakeBlobStore{}, "test-secret")

	_, _, err := svc.Register(context.Background(), "ab", "hunter2hunter2")
	assert.Error(t, err)

	_, _, err = svc.Register(context.Background(), "daily-poster", "short")
	assert.Error(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewUserService(repo, &fakeBlobStore{}, "test-secret")

	_, _, err := svc.Register(context.Background(), "daily-poster", "hunter2hunter2")
	require.NoError(t, err)

	_, _, err = svc.Login(context.Background(), "daily-poster", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(context.Background(), "nobody", "hunter2hunter2")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateJWTRejectsForeignToken(t *testing.T) {
	svcA := NewUserService(newMemUserRepo(), &fakeBlobStore{}, "secret-a")
	svcB := NewUserService(newMemUserRepo(), &fakeBlobStore{}, "secret-b")

	token, err := svcA.GenerateJWT("u1")
	require.NoError(t, err)

	_, err = svcB.ValidateJWT(token)
	assert.Error(t, err)
}

func TestSetProfileImage(t *testing.T) {
	repo := newMemUserRepo()
	blobs := &fakeBlobStore{}
	svc := NewUserService(repo, blobs, "test-secret")

	user, _, err := svc.Register(context.Background(), "daily-poster", "hunter2hunter2")
	require.NoError(t, err)

	url, err := svc.SetProfileImage(context.Background(), user.ID, testJPEG(t))
	require.NoError(t, err)
	assert.Contains(t, url, user.ID+"/profile/")

	stored, err := svc.GetProfile(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ProfileImageURL)
	assert.Equal(t, url, *stored.ProfileImageURL)
}

func TestDeleteAccount(t *testing.T) {
	repo := newMemUserRepo()
	svc := NewUserService(repo, &fakeBlobStore{}, "test-secret")

	user, _, err := svc.Register(context.Background(), "daily-poster", "hunter2hunter2")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteAccount(context.Background(), user.ID))

	_, err = svc.GetProfile(context.Background(), user.ID)
	assert.ErrorIs(t, err, ErrInvalidUser)

	assert.ErrorIs(t, svc.DeleteAccount(context.Background(), user.ID), ErrInvalidUser)
}
