package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/imagefeed/imagefeed-core/internal/core/domain"
	"github.com/imagefeed/imagefeed-core/internal/core/ports/driven"
)

// Ensure Adapter implements CodeIssuer
var _ driven.CodeIssuer = (*Adapter)(nil)

// codeClaims wraps domain.CodeClaims for JWT compatibility
type codeClaims struct {
	ClientID    string `json:"client_id"`
	RedirectURI string `json:"redirect_uri"`
	Scope       string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// Adapter issues authorization codes as signed JWTs and hashes client
// secrets with bcrypt.
type Adapter struct {
	signingKey []byte
	bcryptCost int
}

// NewAdapter creates a new auth adapter with the given signing key
func NewAdapter(signingKey string) *Adapter {
	return &Adapter{
		signingKey: []byte(signingKey),
		bcryptCost: bcrypt.DefaultCost,
	}
}

// NewAdapterWithCost creates a new auth adapter with custom bcrypt cost
func NewAdapterWithCost(signingKey string, bcryptCost int) *Adapter {
	return &Adapter{
		signingKey: []byte(signingKey),
		bcryptCost: bcryptCost,
	}
}

// HashSecret generates a bcrypt hash from a plaintext client secret
func (a *Adapter) HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), a.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifySecret checks if a client secret matches a bcrypt hash
func (a *Adapter) VerifySecret(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// IssueCode signs claims into an opaque, URL safe code.
func (a *Adapter) IssueCode(claims *domain.CodeClaims) (string, error) {
	cc := codeClaims{
		ClientID:    claims.ClientID,
		RedirectURI: claims.RedirectURI,
		Scope:       claims.Scope,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        claims.ID,
			IssuedAt:  jwt.NewNumericDate(time.Unix(claims.IssuedAt, 0)),
			ExpiresAt: jwt.NewNumericDate(time.Unix(claims.ExpiresAt, 0)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cc)
	return token.SignedString(a.signingKey)
}

// ParseCode verifies the signature and expiry of a code.
// Returns domain.ErrCodeExpired or domain.ErrCodeInvalid on failure.
func (a *Adapter) ParseCode(code string) (*domain.CodeClaims, error) {
	token, err := jwt.ParseWithClaims(code, &codeClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrCodeExpired
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCodeInvalid, err)
	}

	claims, ok := token.Claims.(*codeClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrCodeInvalid
	}

	out := &domain.CodeClaims{
		ID:          claims.ID,
		ClientID:    claims.ClientID,
		RedirectURI: claims.RedirectURI,
		Scope:       claims.Scope,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Unix()
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Unix()
	}
	return out, nil
}
