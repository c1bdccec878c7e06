package repository

import (
	"context"
	"testing"
	"time"

	"daylog-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserRepo(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewUserRepository(mock), mock
}

func userColumns() []string {
	return []string{"id", "username", "password_hash", "profile_image_url", "push_token", "created_at"}
}

func TestUserCreate(t *testing.T) {
	repo, mock := newUserRepo(t)

	now := time.Now()
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u1", "daily-poster", "hash", pgxmock.AnyArg(), pgxmock.AnyArg(), now).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), &models.User{
		ID:           "u1",
		Username:     "daily-poster",
		PasswordHash: "hash",
		CreatedAt:    now,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateDuplicateUsername(t *testing.T) {
	// A concurrent registration that committed first surfaces as a unique
	// violation, not a generic failure.
	repo, mock := newUserRepo(t)
	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u2", "daily-poster", "hash", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

	err := repo.Create(context.Background(), &models.User{
		ID:           "u2",
		Username:     "daily-poster",
		PasswordHash: "hash",
		CreatedAt:    time.Now(),
	})
	assert.ErrorIs(t, err, ErrDuplicateUsername)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserGetByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		rows := pgxmock.NewRows(userColumns()).
			AddRow("u1", "daily-poster", "hash", nil, nil, time.Now())
		mock.ExpectQuery(`SELECT id, username`).
			WithArgs("u1").
			WillReturnRows(rows)

		user, err := repo.GetByID(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, "daily-poster", user.Username)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectQuery(`SELECT id, username`).
			WithArgs("missing").
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserUsernameExists(t *testing.T) {
	repo, mock := newUserRepo(t)
	rows := pgxmock.NewRows([]string{"exists"}).AddRow(true)
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("daily-poster").
		WillReturnRows(rows)

	exists, err := repo.UsernameExists(context.Background(), "daily-poster")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserDelete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectExec(`DELETE FROM users`).
			WithArgs("u1").
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		require.NoError(t, repo.Delete(context.Background(), "u1"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectExec(`DELETE FROM users`).
			WithArgs("missing").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := repo.Delete(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserUpdateUsername(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectExec(`UPDATE users SET username`).
			WithArgs("new-name", "u1").
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.UpdateUsername(context.Background(), "u1", "new-name"))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("name taken", func(t *testing.T) {
		repo, mock := newUserRepo(t)
		mock.ExpectExec(`UPDATE users SET username`).
			WithArgs("taken-name", "u1").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"})

		err := repo.UpdateUsername(context.Background(), "u1", "taken-name")
		assert.ErrorIs(t, err, ErrDuplicateUsername)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
