package auth

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseAPIKey(t *testing.T) {
	valid := FormatAPIKey(testSecretID, strings.Repeat("ab", 32))

	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "valid", key: valid},
		{name: "too few parts", key: "fk-v1-" + testSecretID, wantErr: true},
		{name: "wrong version", key: strings.Replace(valid, "-v1-", "-v2-", 1), wantErr: true},
		{name: "short secret id", key: FormatAPIKey("abc", strings.Repeat("ab", 32)), wantErr: true},
		{name: "short random", key: FormatAPIKey(testSecretID, "abcd"), wantErr: true},
		{name: "uppercase hex", key: FormatAPIKey(strings.ToUpper(testSecretID), strings.Repeat("ab", 32)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			secretID, random, err := ParseAPIKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAPIKey() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && (secretID != testSecretID || len(random) != randomDataLen) {
				t.Errorf("ParseAPIKey() = %q, %q", secretID, random)
			}
		})
	}
}

func TestGenerateAPIKey(t *testing.T) {
	a, err := GenerateAPIKey(testSecretID)
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}
	b, err := GenerateAPIKey(testSecretID)
	if err != nil {
		t.Fatalf("GenerateAPIKey() error = %v", err)
	}
	if a == b {
		t.Error("two generated keys are identical")
	}
	if _, _, err := ParseAPIKey(a); err != nil {
		t.Errorf("generated key does not parse: %v", err)
	}
	if _, err := GenerateAPIKey("bad"); err == nil {
		t.Error("GenerateAPIKey(bad) error = nil")
	}
}

func TestComputeHMAC(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	h1 := ComputeHMAC(secret, "token")
	h2 := ComputeHMAC(secret, "token")
	h3 := ComputeHMAC(secret, "other")
	if !bytes.Equal(h1, h2) {
		t.Error("HMAC is not deterministic")
	}
	if bytes.Equal(h1, h3) {
		t.Error("different tokens share an HMAC")
	}
	if len(h1) != 32 {
		t.Errorf("HMAC length = %d, want 32", len(h1))
	}
}
