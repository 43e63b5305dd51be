package types

import "github.com/google/uuid"

// APIKeyID identifies a stored modification token.
type APIKeyID string

// RequestID identifies one administrative HTTP request in logs.
type RequestID string

// NewAPIKeyID generates a UUIDv7 API key identifier.
// Panics on clock regression (uuid.Must).
func NewAPIKeyID() APIKeyID {
	return APIKeyID(uuid.Must(uuid.NewV7()).String())
}

// NewRequestID generates a UUIDv7 request identifier.
func NewRequestID() RequestID {
	return RequestID(uuid.Must(uuid.NewV7()).String())
}

// ParseAPIKeyID validates and converts a string to APIKeyID.
func ParseAPIKeyID(s string) (APIKeyID, error) {
	if _, err := uuid.Parse(s); err != nil {
		return "", err
	}
	return APIKeyID(s), nil
}

