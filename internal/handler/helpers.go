package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/graasp/graasp-sub008/internal/httputil"
)

// pathID parses the {id} path value as a UUID.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%s is required", name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid id", name)
	}
	return id, nil
}

// actorID reads the authenticated account from the request context. The
// auth middleware guarantees it on every route it wraps.
func actorID(r *http.Request) (uuid.UUID, bool) {
	return httputil.GetAccountID(r)
}

// queryIDs parses a comma-separated or repeated ?id= query parameter.
func queryIDs(r *http.Request) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, raw := range r.URL.Query()["id"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := uuid.Parse(part)
			if err != nil {
				return nil, fmt.Errorf("%q is not a valid id", part)
			}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("at least one id is required")
	}
	return ids, nil
}

// optionalQueryID parses an optional single-UUID query parameter.
func optionalQueryID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s is not a valid id", name)
	}
	return &id, nil
}
