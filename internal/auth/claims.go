package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccountClaims are the JWT claims the service reads. Subject carries the
// account id; everything else is informational.
type AccountClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// AccountID parses the subject claim as the account id.
func (c *AccountClaims) AccountID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
