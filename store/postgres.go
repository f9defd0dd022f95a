package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DB is the subset of pgxpool.Pool the Postgres store uses. pgxmock
// pools satisfy it, which keeps the store testable without a database.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres is a Store backed by PostgreSQL. Email uniqueness is enforced
// by the identities_email_key constraint; per-row update atomicity comes
// from single-statement UPDATEs.
type Postgres struct {
	db DB
}

// NewPostgres creates a Postgres store over an existing connection pool
// (or anything satisfying DB).
func NewPostgres(db DB) *Postgres {
	return &Postgres{db: db}
}

// Connect opens a pgx pool for dsn and returns a store over it.
func Connect(ctx context.Context, dsn string) (*Postgres, *pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, nil, oops.Code("STORE_CONNECT_FAILED").Wrap(err)
	}
	return NewPostgres(pool), pool, nil
}

const identityColumns = "id, email, password_hash, session_hash, reset_hash, created_at, updated_at"

// Add inserts a new identity. A unique-violation on the email column maps
// to ErrDuplicateEmail; the check-then-insert race is closed by the
// constraint itself.
func (p *Postgres) Add(ctx context.Context, email, passwordHash string) (*Identity, error) {
	id := ulid.Make()
	now := time.Now().UTC()

	_, err := p.db.Exec(ctx, `
		INSERT INTO identities (id, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, id.String(), email, passwordHash, now, now)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, ErrDuplicateEmail
		}
		return nil, oops.Code("IDENTITY_ADD_FAILED").
			With("operation", "insert identity").
			Wrap(fmt.Errorf("%w: %v", ErrUnavailable, err))
	}

	return &Identity{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// FindByID retrieves an identity by primary key.
func (p *Postgres) FindByID(ctx context.Context, id ulid.ULID) (*Identity, error) {
	row := p.db.QueryRow(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE id = $1
	`, id.String())
	return p.scan(row, "find by id")
}

// FindByEmail retrieves an identity by exact email match.
func (p *Postgres) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	row := p.db.QueryRow(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE email = $1
	`, email)
	return p.scan(row, "find by email")
}

// FindBySessionHash retrieves the identity with the given active session.
func (p *Postgres) FindBySessionHash(ctx context.Context, hash string) (*Identity, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	row := p.db.QueryRow(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE session_hash = $1
	`, hash)
	return p.scan(row, "find by session hash")
}

// FindByResetHash retrieves the identity with the given pending reset.
func (p *Postgres) FindByResetHash(ctx context.Context, hash string) (*Identity, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	row := p.db.QueryRow(ctx, `
		SELECT `+identityColumns+`
		FROM identities
		WHERE reset_hash = $1
	`, hash)
	return p.scan(row, "find by reset hash")
}

// Update applies the given fields in one UPDATE statement. Postgres row
// semantics make the write all-or-nothing; NULL stores an absent token.
func (p *Postgres) Update(ctx context.Context, id ulid.ULID, fields Fields) error {
	sets := make([]string, 0, 4)
	args := make([]any, 0, 5)

	add := func(column string, v *string) {
		if v == nil {
			return
		}
		args = append(args, nullable(*v))
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if fields.PasswordHash != nil {
		args = append(args, *fields.PasswordHash)
		sets = append(sets, fmt.Sprintf("password_hash = $%d", len(args)))
	}
	add("session_hash", fields.SessionHash)
	add("reset_hash", fields.ResetHash)

	args = append(args, time.Now().UTC())
	sets = append(sets, fmt.Sprintf("updated_at = $%d", len(args)))
	args = append(args, id.String())

	tag, err := p.db.Exec(ctx, fmt.Sprintf(
		"UPDATE identities SET %s WHERE id = $%d",
		strings.Join(sets, ", "), len(args),
	), args...)
	if err != nil {
		return oops.Code("IDENTITY_UPDATE_FAILED").
			With("operation", "update identity").
			With("id", id.String()).
			Wrap(fmt.Errorf("%w: %v", ErrUnavailable, err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) scan(row pgx.Row, operation string) (*Identity, error) {
	var (
		idStr       string
		sessionHash *string
		resetHash   *string
		ident       Identity
	)
	err := row.Scan(
		&idStr,
		&ident.Email,
		&ident.PasswordHash,
		&sessionHash,
		&resetHash,
		&ident.CreatedAt,
		&ident.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("IDENTITY_LOOKUP_FAILED").
			With("operation", operation).
			Wrap(fmt.Errorf("%w: %v", ErrUnavailable, err))
	}

	if ident.ID, err = ulid.Parse(idStr); err != nil {
		return nil, oops.Code("IDENTITY_CORRUPT_ID").
			With("id", idStr).
			Wrap(fmt.Errorf("%w: %v", ErrUnavailable, err))
	}
	if sessionHash != nil {
		ident.SessionHash = *sessionHash
	}
	if resetHash != nil {
		ident.ResetHash = *resetHash
	}
	return &ident, nil
}

// nullable maps the explicit-clear convention (empty string) to SQL NULL.
func nullable(v string) any {
	if v == "" {
		return nil
	}
	return v
}
