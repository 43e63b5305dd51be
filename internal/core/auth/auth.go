// Package auth verifies confModAuthToken values against HMAC-hashed API keys.
package auth

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/solatis/flowkeeper/internal/core/db"
	"github.com/solatis/flowkeeper/internal/types"
)

// lastUsedThrottle bounds how often last_used_at is written per key.
const lastUsedThrottle = time.Minute

// KeyStore defines the API key operations needed for authorization.
// Implemented by *db.Queries.
type KeyStore interface {
	APIKeyByHash(ctx context.Context, keyHash []byte) (*db.APIKeyMatch, error)
	TouchAPIKey(ctx context.Context, id types.APIKeyID, at time.Time) error
}

// Authorizer validates modification tokens using HMAC-SHA256.
// Verified token hashes are cached for the configured TTL, so a revocation
// takes effect after at most one TTL.
type Authorizer struct {
	secrets map[string][]byte
	keys    KeyStore
	cache   *ttlcache.Cache[string, types.APIKeyID]
	logger  *zap.Logger
	now     func() time.Time
}

// NewAuthorizer creates an authorizer. cacheTTL <= 0 disables the cache.
func NewAuthorizer(secrets map[string][]byte, keys KeyStore, cacheTTL time.Duration, logger *zap.Logger) (*Authorizer, error) {
	if keys == nil {
		return nil, fmt.Errorf("keys cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Authorizer{
		secrets: secrets,
		keys:    keys,
		logger:  logger.Named("auth"),
		now:     time.Now,
	}
	if cacheTTL > 0 {
		a.cache = ttlcache.New(
			ttlcache.WithTTL[string, types.APIKeyID](cacheTTL),
			ttlcache.WithDisableTouchOnHit[string, types.APIKeyID](),
		)
		go a.cache.Start()
	}
	return a, nil
}

// Close stops the cache expiry loop.
func (a *Authorizer) Close() {
	if a.cache != nil {
		a.cache.Stop()
	}
}

// Authorize checks token and returns a types.KindUnauthorized error on failure.
func (a *Authorizer) Authorize(ctx context.Context, token string) error {
	_, err := a.authorize(ctx, strings.TrimSpace(token))
	if err != nil {
		return types.Unauthorized(err)
	}
	return nil
}

func (a *Authorizer) authorize(ctx context.Context, token string) (types.APIKeyID, error) {
	if token == "" {
		return "", ErrMissingToken
	}

	secretID, _, err := ParseAPIKey(token)
	if err != nil {
		return "", err
	}

	secret, ok := a.secrets[secretID]
	if !ok {
		return "", ErrUnknownKey
	}

	keyHash := ComputeHMAC(secret, token)
	cacheKey := hex.EncodeToString(keyHash)
	if a.cache != nil {
		if item := a.cache.Get(cacheKey); item != nil {
			return item.Value(), nil
		}
	}

	match, err := a.keys.APIKeyByHash(ctx, keyHash)
	if errors.Is(err, db.ErrAPIKeyNotFound) {
		return "", ErrInvalidKey
	}
	if err != nil {
		a.logger.Error("api key lookup failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if match.RevokedAt.Valid {
		return "", ErrKeyRevoked
	}

	if a.shouldTouch(match.LastUsedAt) {
		if err := a.keys.TouchAPIKey(ctx, match.ID, a.now()); err != nil {
			a.logger.Warn("failed to update last_used_at", zap.String("api_key_id", string(match.ID)), zap.Error(err))
		}
	}

	if a.cache != nil {
		a.cache.Set(cacheKey, match.ID, ttlcache.DefaultTTL)
	}
	return match.ID, nil
}

func (a *Authorizer) shouldTouch(lastUsed sql.NullTime) bool {
	if !lastUsed.Valid {
		return true
	}
	return a.now().Sub(lastUsed.Time) > lastUsedThrottle
}

// KeyIssuer stores newly issued keys. Implemented by *db.Queries.
type KeyIssuer interface {
	InsertAPIKey(ctx context.Context, name string, keyHash []byte) (types.APIKeyID, error)
}

// IssueAPIKey generates a token under the newest secret and stores its HMAC.
// The plaintext token is returned once and never stored.
func IssueAPIKey(ctx context.Context, issuer KeyIssuer, secrets map[string][]byte, name string) (string, types.APIKeyID, error) {
	if len(secrets) == 0 {
		return "", "", ErrNoSecrets
	}

	// secret IDs are UUIDv7 hex, so the largest is the newest
	ids := make([]string, 0, len(secrets))
	for id := range secrets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	secretID := ids[len(ids)-1]

	token, err := GenerateAPIKey(secretID)
	if err != nil {
		return "", "", err
	}

	id, err := issuer.InsertAPIKey(ctx, name, ComputeHMAC(secrets[secretID], token))
	if err != nil {
		return "", "", err
	}
	return token, id, nil
}
