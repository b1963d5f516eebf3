package httputil

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Context key type to avoid collisions
type contextKey string

const (
	accountIDKey contextKey = "accountID"
)

// WithAccountID adds the authenticated account id to the request context
func WithAccountID(r *http.Request, accountID uuid.UUID) *http.Request {
	ctx := context.WithValue(r.Context(), accountIDKey, accountID)
	return r.WithContext(ctx)
}

// GetAccountID retrieves the account id from context; ok is false when the
// request was not authenticated
func GetAccountID(r *http.Request) (uuid.UUID, bool) {
	accountID, ok := r.Context().Value(accountIDKey).(uuid.UUID)
	return accountID, ok
}
