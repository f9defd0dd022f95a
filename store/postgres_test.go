package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPgMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock pool")
	t.Cleanup(mock.Close)
	return mock
}

func identityRow(id ulid.ULID, email string, sessionHash, resetHash *string) *pgxmock.Rows {
	now := time.Now().UTC()
	return pgxmock.NewRows([]string{
		"id", "email", "password_hash", "session_hash", "reset_hash", "created_at", "updated_at",
	}).AddRow(id.String(), email, "hash-1", sessionHash, resetHash, now, now)
}

func TestPostgresAdd(t *testing.T) {
	mock := newPgMock(t)
	mock.ExpectExec(`INSERT INTO identities`).
		WithArgs(pgxmock.AnyArg(), "a@x.com", "hash-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s := NewPostgres(mock)
	ident, err := s.Add(context.Background(), "a@x.com", "hash-1")
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", ident.Email)
	assert.False(t, ident.HasSession())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresAddDuplicateEmail(t *testing.T) {
	mock := newPgMock(t)
	mock.ExpectExec(`INSERT INTO identities`).
		WithArgs(pgxmock.AnyArg(), "a@x.com", "hash-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "identities_email_key"})

	s := NewPostgres(mock)
	_, err := s.Add(context.Background(), "a@x.com", "hash-1")
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindByEmail(t *testing.T) {
	id := ulid.Make()
	sess := "sess-1"

	mock := newPgMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM identities\s+WHERE email = \$1`).
		WithArgs("a@x.com").
		WillReturnRows(identityRow(id, "a@x.com", &sess, nil))

	s := NewPostgres(mock)
	ident, err := s.FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, id, ident.ID)
	assert.Equal(t, "sess-1", ident.SessionHash)
	assert.Empty(t, ident.ResetHash)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresFindNotFound(t *testing.T) {
	mock := newPgMock(t)
	mock.ExpectQuery(`SELECT (.+) FROM identities\s+WHERE session_hash = \$1`).
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "email", "password_hash", "session_hash", "reset_hash", "created_at", "updated_at",
		}))

	s := NewPostgres(mock)
	_, err := s.FindBySessionHash(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresUpdatePartial(t *testing.T) {
	id := ulid.Make()

	mock := newPgMock(t)
	mock.ExpectExec(`UPDATE identities SET session_hash = \$1, updated_at = \$2 WHERE id = \$3`).
		WithArgs("sess-1", pgxmock.AnyArg(), id.String()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	s := NewPostgres(mock)
	err := s.Update(context.Background(), id, Fields{SessionHash: Set("sess-1")})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateClearsWithNull(t *testing.T) {
	id := ulid.Make()

	mock := newPgMock(t)
	mock.ExpectExec(`UPDATE identities SET password_hash = \$1, reset_hash = \$2, updated_at = \$3 WHERE id = \$4`).
		WithArgs("hash-2", nil, pgxmock.AnyArg(), id.String()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	s := NewPostgres(mock)
	err := s.Update(context.Background(), id, Fields{
		PasswordHash: Set("hash-2"),
		ResetHash:    Clear(),
	})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateUnknownIdentity(t *testing.T) {
	id := ulid.Make()

	mock := newPgMock(t)
	mock.ExpectExec(`UPDATE identities SET`).
		WithArgs("sess-1", pgxmock.AnyArg(), id.String()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	s := NewPostgres(mock)
	err := s.Update(context.Background(), id, Fields{SessionHash: Set("sess-1")})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStorageFailureSurfaced(t *testing.T) {
	mock := newPgMock(t)
	mock.ExpectExec(`INSERT INTO identities`).
		WithArgs(pgxmock.AnyArg(), "a@x.com", "hash-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	s := NewPostgres(mock)
	_, err := s.Add(context.Background(), "a@x.com", "hash-1")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
}
