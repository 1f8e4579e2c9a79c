package mocks

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
)

// Ensure MockCodeIssuer implements CodeIssuer
var _ driven.CodeIssuer = (*MockCodeIssuer)(nil)

// MockCodeIssuer is a mock implementation of CodeIssuer for testing.
// It uses plain text secret comparison and base64-encoded JSON for codes.
// NOT secure - only for testing.
type MockCodeIssuer struct{}

// NewMockCodeIssuer creates a new MockCodeIssuer
func NewMockCodeIssuer() *MockCodeIssuer {
	return &MockCodeIssuer{}
}

// IssueCode creates a base64-encoded JSON code from claims
func (m *MockCodeIssuer) IssueCode(claims *domain.CodeClaims) (string, error) {
	data, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

// ParseCode decodes a base64-encoded JSON code and returns claims
func (m *MockCodeIssuer) ParseCode(code string) (*domain.CodeClaims, error) {
	data, err := base64.RawURLEncoding.DecodeString(code)
	if err != nil {
		return nil, domain.ErrCodeInvalid
	}

	var claims domain.CodeClaims
	if err := json.Unmarshal(data, &claims); err != nil {
		return nil, domain.ErrCodeInvalid
	}

	return &claims, nil
}

// HashSecret returns the secret as-is (for testing only)
func (m *MockCodeIssuer) HashSecret(secret string) (string, error) {
	return secret, nil
}

// VerifySecret compares secret with hash directly (for testing only)
func (m *MockCodeIssuer) VerifySecret(secret, hash string) bool {
	return secret == hash
}
