package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/solatis/flowkeeper/internal/types"
)

// ErrAPIKeyNotFound indicates a key lookup or revocation matched no row.
var ErrAPIKeyNotFound = errors.New("api key not found")

// APIKey is a stored modification token. Only the HMAC of the token is kept.
type APIKey struct {
	ID         types.APIKeyID `db:"api_key_id"`
	Name       string         `db:"name"`
	CreatedAt  time.Time      `db:"created_at"`
	LastUsedAt sql.NullTime   `db:"last_used_at"`
	RevokedAt  sql.NullTime   `db:"revoked_at"`
}

// APIKeyMatch is the result of a hash lookup.
type APIKeyMatch struct {
	ID         types.APIKeyID `db:"api_key_id"`
	Name       string         `db:"name"`
	RevokedAt  sql.NullTime   `db:"revoked_at"`
	LastUsedAt sql.NullTime   `db:"last_used_at"`
}

// InsertAPIKey stores a new key hash under name and returns its ID.
func (q *Queries) InsertAPIKey(ctx context.Context, name string, keyHash []byte) (types.APIKeyID, error) {
	id := types.NewAPIKeyID()
	if _, err := q.Exec(ctx, "insert-api-key", string(id), name, keyHash, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("insert api key: %w", err)
	}
	return id, nil
}

// APIKeyByHash looks up a key by its HMAC. Returns ErrAPIKeyNotFound when absent.
func (q *Queries) APIKeyByHash(ctx context.Context, keyHash []byte) (*APIKeyMatch, error) {
	var match APIKeyMatch
	err := q.Get(ctx, "get-api-key-by-hash", &match, keyHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAPIKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get api key: %w", err)
	}
	return &match, nil
}

// TouchAPIKey sets last_used_at of id to at.
func (q *Queries) TouchAPIKey(ctx context.Context, id types.APIKeyID, at time.Time) error {
	_, err := q.Exec(ctx, "update-last-used", at.UTC(), string(id))
	return err
}

// RevokeAPIKey marks id revoked. Already revoked or unknown keys return ErrAPIKeyNotFound.
func (q *Queries) RevokeAPIKey(ctx context.Context, id types.APIKeyID) error {
	res, err := q.Exec(ctx, "revoke-api-key", time.Now().UTC(), string(id))
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if n == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

// ListAPIKeys returns all keys ordered by creation time.
func (q *Queries) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	var keys []APIKey
	if err := q.Select(ctx, "list-api-keys", &keys); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}
