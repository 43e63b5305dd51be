package auth

import "errors"

// Authorization failures. All surface as types.KindUnauthorized; the message
// distinguishes a revoked key (known but blocked) from unknown ones.
var (
	ErrMissingToken     = errors.New("confModAuthToken is required")
	ErrInvalidKeyFormat = errors.New("invalid confModAuthToken format")
	ErrUnknownKey       = errors.New("unknown confModAuthToken secret")
	ErrInvalidKey       = errors.New("invalid confModAuthToken")
	ErrKeyRevoked       = errors.New("confModAuthToken has been revoked")
	ErrUnavailable      = errors.New("authorization store unavailable")
	ErrNoSecrets        = errors.New("no HMAC secrets configured (set FK_HMAC_SECRET)")
)
