// Package auth contains the credential verifier and the token codec.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/readease/readease/internal/common"
	"github.com/readease/readease/internal/server/models"
)

// ExpirationPolicy holds one lifetime per token kind.
type ExpirationPolicy struct {
	Access        time.Duration
	Refresh       time.Duration
	ResetPassword time.Duration
}

// Claims carries the subject (user email) and the token kind on top of the
// registered claims.
type Claims struct {
	jwt.RegisteredClaims
	Kind string `json:"kind"`
}

// Codec issues and decodes HS256-signed tokens.
type Codec struct {
	secret []byte
	policy ExpirationPolicy
	now    func() time.Time
}

func NewCodec(secretKey []byte, policy ExpirationPolicy) *Codec {
	return &Codec{secret: secretKey, policy: policy, now: time.Now}
}

// SetClock replaces the time source used for issuing and expiry checks.
func (c *Codec) SetClock(now func() time.Time) {
	c.now = now
}

// Expiration returns the lifetime configured for kind.
func (c *Codec) Expiration(kind models.TokenKind) (time.Duration, error) {
	switch kind {
	case models.TokenKindAccess:
		return c.policy.Access, nil
	case models.TokenKindRefresh:
		return c.policy.Refresh, nil
	case models.TokenKindResetPassword:
		return c.policy.ResetPassword, nil
	default:
		return 0, fmt.Errorf("no expiration policy for %s", kind)
	}
}

// Issue mints a signed token for subject whose expiration follows the
// policy of kind. Each token gets a random ID, so two tokens issued in the
// same second for the same subject still differ.
func (c *Codec) Issue(subject string, kind models.TokenKind) (string, error) {
	validity, err := c.Expiration(kind)
	if err != nil {
		return "", err
	}

	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		Kind: kind.String(),
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// IsExpired reports whether the token is past its embedded expiration.
// A malformed, unsigned or tampered token is reported as expired.
func (c *Codec) IsExpired(tokenString string) bool {
	_, err := c.parse(tokenString,
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	return err != nil
}

// ExtractSubject returns the subject of a correctly signed token. Expiry is
// not checked here. Decoding failures wrap common.ErrDecode.
func (c *Codec) ExtractSubject(tokenString string) (string, error) {
	claims, err := c.parse(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: empty subject", common.ErrDecode)
	}
	return claims.Subject, nil
}

// ExtractKind returns the kind claim of a correctly signed token.
func (c *Codec) ExtractKind(tokenString string) (models.TokenKind, error) {
	claims, err := c.parse(tokenString, jwt.WithoutClaimsValidation())
	if err != nil {
		return 0, err
	}
	kind, err := models.ParseTokenKind(claims.Kind)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrDecode, err)
	}
	return kind, nil
}

func (c *Codec) parse(tokenString string, opts ...jwt.ParserOption) (*Claims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", common.ErrDecode)
	}

	opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDecode, err)
	}

	if !token.Valid {
		return nil, common.ErrDecode
	}

	return claims, nil
}
