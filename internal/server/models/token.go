package models

import (
	"fmt"
	"time"
)

// TokenKind is the closed set of token kinds issued by the server.
type TokenKind int

const (
	TokenKindAccess TokenKind = iota + 1
	TokenKindRefresh
	TokenKindResetPassword
)

func (k TokenKind) String() string {
	switch k {
	case TokenKindAccess:
		return "ACCESS"
	case TokenKindRefresh:
		return "REFRESH"
	case TokenKindResetPassword:
		return "RESET_PASSWORD"
	default:
		return fmt.Sprintf("TokenKind(%d)", int(k))
	}
}

// ParseTokenKind is the inverse of TokenKind.String.
func ParseTokenKind(s string) (TokenKind, error) {
	switch s {
	case "ACCESS":
		return TokenKindAccess, nil
	case "REFRESH":
		return TokenKindRefresh, nil
	case "RESET_PASSWORD":
		return TokenKindResetPassword, nil
	default:
		return 0, fmt.Errorf("unknown token kind %q", s)
	}
}

// Token is a persisted issued token. The encoded token string is the key.
type Token struct {
	Token     string
	UserID    string
	Kind      TokenKind
	ExpiresAt time.Time
}

// Expired reports whether the stored expiration is not after now.
func (t *Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}
