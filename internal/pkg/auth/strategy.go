package auth

import (
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// Claims is the identity carried by an auth token.
type Claims struct {
	UserID int64
	Role   model.Role
}

// IsAdmin reports whether claims grant privileged access.
func (c Claims) IsAdmin() bool {
	return c.Role == model.RoleAdmin
}

type Strategy interface {
	IssueToken(claims Claims) (string, error)
	ParseToken(token string) (Claims, error)
	Name() string
}

type Options struct {
	TTL time.Duration
}
