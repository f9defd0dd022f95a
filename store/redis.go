package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
)

// Redis key layout, under a configurable prefix:
//
//	<p>:id:<ulid>     hash  email, password_hash, session_hash, reset_hash, created_at, updated_at
//	<p>:email:<email> string -> ulid
//	<p>:sess:<hash>   string -> ulid
//	<p>:reset:<hash>  string -> ulid
//
// Multi-key transitions (create, token moves) run inside Lua scripts so
// each Add/Update is atomic against concurrent readers and writers.

const addIdentityScript = `
if redis.call("SETNX", KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call("HSET", KEYS[2],
  "email", ARGV[2],
  "password_hash", ARGV[3],
  "session_hash", "",
  "reset_hash", "",
  "created_at", ARGV[4],
  "updated_at", ARGV[4])
return 1
`

var addIdentityLua = redis.NewScript(addIdentityScript)

const updateIdentityScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
if ARGV[2] == "1" then
  redis.call("HSET", KEYS[1], "password_hash", ARGV[3])
end
if ARGV[4] == "1" then
  local old = redis.call("HGET", KEYS[1], "session_hash")
  if old and old ~= "" then
    redis.call("DEL", ARGV[8] .. old)
  end
  if ARGV[5] ~= "" then
    redis.call("SET", ARGV[8] .. ARGV[5], ARGV[1])
  end
  redis.call("HSET", KEYS[1], "session_hash", ARGV[5])
end
if ARGV[6] == "1" then
  local old = redis.call("HGET", KEYS[1], "reset_hash")
  if old and old ~= "" then
    redis.call("DEL", ARGV[9] .. old)
  end
  if ARGV[7] ~= "" then
    redis.call("SET", ARGV[9] .. ARGV[7], ARGV[1])
  end
  redis.call("HSET", KEYS[1], "reset_hash", ARGV[7])
end
redis.call("HSET", KEYS[1], "updated_at", ARGV[10])
return 1
`

var updateIdentityLua = redis.NewScript(updateIdentityScript)

// Redis is a Store backed by a Redis instance.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis creates a Redis store. prefix namespaces all keys; empty
// defaults to "w".
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = "w"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) recordKey(id string) string   { return r.prefix + ":id:" + id }
func (r *Redis) emailKey(email string) string { return r.prefix + ":email:" + email }
func (r *Redis) sessionPrefix() string        { return r.prefix + ":sess:" }
func (r *Redis) resetPrefix() string          { return r.prefix + ":reset:" }

// Add creates a new identity. Email uniqueness rides on SETNX of the email
// index key inside the script, so two concurrent Adds for one email cannot
// both succeed.
func (r *Redis) Add(ctx context.Context, email, passwordHash string) (*Identity, error) {
	id := ulid.Make()
	now := time.Now().UTC()

	created, err := addIdentityLua.Run(ctx, r.client,
		[]string{r.emailKey(email), r.recordKey(id.String())},
		id.String(), email, passwordHash, now.Format(time.RFC3339Nano),
	).Int64()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if created == 0 {
		return nil, ErrDuplicateEmail
	}

	return &Identity{
		ID:           id,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// FindByID looks up an identity record directly.
func (r *Redis) FindByID(ctx context.Context, id ulid.ULID) (*Identity, error) {
	return r.load(ctx, id.String())
}

// FindByEmail resolves the email index, then loads the record.
func (r *Redis) FindByEmail(ctx context.Context, email string) (*Identity, error) {
	return r.findViaIndex(ctx, r.emailKey(email))
}

// FindBySessionHash resolves the session index, then loads the record.
func (r *Redis) FindBySessionHash(ctx context.Context, hash string) (*Identity, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	return r.findViaIndex(ctx, r.sessionPrefix()+hash)
}

// FindByResetHash resolves the reset index, then loads the record.
func (r *Redis) FindByResetHash(ctx context.Context, hash string) (*Identity, error) {
	if hash == "" {
		return nil, ErrNotFound
	}
	return r.findViaIndex(ctx, r.resetPrefix()+hash)
}

// Update applies fields inside a single Lua script: the record fields and
// the token index keys move together or not at all.
func (r *Redis) Update(ctx context.Context, id ulid.ULID, fields Fields) error {
	if fields.IsZero() {
		// Still report unknown identities.
		_, err := r.FindByID(ctx, id)
		return err
	}

	var (
		setPassword, password = flagged(fields.PasswordHash)
		setSession, session   = flagged(fields.SessionHash)
		setReset, reset       = flagged(fields.ResetHash)
	)

	updated, err := updateIdentityLua.Run(ctx, r.client,
		[]string{r.recordKey(id.String())},
		id.String(),
		setPassword, password,
		setSession, session,
		setReset, reset,
		r.sessionPrefix(), r.resetPrefix(),
		time.Now().UTC().Format(time.RFC3339Nano),
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if updated == 0 {
		return ErrNotFound
	}
	return nil
}

func flagged(v *string) (string, string) {
	if v == nil {
		return "0", ""
	}
	return "1", *v
}

func (r *Redis) findViaIndex(ctx context.Context, indexKey string) (*Identity, error) {
	id, err := r.client.Get(ctx, indexKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return r.load(ctx, id)
}

func (r *Redis) load(ctx context.Context, id string) (*Identity, error) {
	raw, err := r.client.HGetAll(ctx, r.recordKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(raw) == 0 {
		return nil, ErrNotFound
	}

	parsedID, err := ulid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: corrupt identity id %q", ErrUnavailable, id)
	}

	ident := &Identity{
		ID:           parsedID,
		Email:        raw["email"],
		PasswordHash: raw["password_hash"],
		SessionHash:  raw["session_hash"],
		ResetHash:    raw["reset_hash"],
	}
	if ident.CreatedAt, err = time.Parse(time.RFC3339Nano, raw["created_at"]); err != nil {
		return nil, fmt.Errorf("%w: corrupt created_at for %s", ErrUnavailable, id)
	}
	if ident.UpdatedAt, err = time.Parse(time.RFC3339Nano, raw["updated_at"]); err != nil {
		return nil, fmt.Errorf("%w: corrupt updated_at for %s", ErrUnavailable, id)
	}
	return ident, nil
}
