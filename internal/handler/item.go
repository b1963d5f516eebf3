package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	hierarchySvc "github.com/graasp/graasp-sub008/internal/domain/services/hierarchy"
	"github.com/graasp/graasp-sub008/internal/httputil"
)

// ItemHandler handles item hierarchy HTTP requests
type ItemHandler struct {
	items  hierarchySvc.Service
	logger *slog.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(items hierarchySvc.Service, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{items: items, logger: logger}
}

// RegisterRoutes attaches every item route to the mux.
func (h *ItemHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/items", h.CreateItem)
	mux.HandleFunc("POST /api/items/batch", h.CreateItems)
	mux.HandleFunc("GET /api/items", h.GetItems)
	mux.HandleFunc("DELETE /api/items", h.DeleteItems)

	// Fixed segments must be registered before the {id} wildcard routes.
	mux.HandleFunc("GET /api/items/own", h.GetOwnItems)
	mux.HandleFunc("GET /api/items/shared", h.GetSharedItems)
	mux.HandleFunc("GET /api/items/recycled", h.GetRecycledItems)
	mux.HandleFunc("POST /api/items/move", h.MoveItems)
	mux.HandleFunc("POST /api/items/copy", h.CopyItems)
	mux.HandleFunc("POST /api/items/recycle", h.RecycleItems)
	mux.HandleFunc("POST /api/items/restore", h.RestoreItems)

	mux.HandleFunc("GET /api/items/{id}", h.GetItem)
	mux.HandleFunc("PATCH /api/items/{id}", h.PatchItem)
	mux.HandleFunc("GET /api/items/{id}/children", h.GetChildren)
	mux.HandleFunc("GET /api/items/{id}/descendants", h.GetDescendants)
	mux.HandleFunc("GET /api/items/{id}/ancestors", h.GetAncestors)
	mux.HandleFunc("POST /api/items/{id}/reorder", h.ReorderItem)
	mux.HandleFunc("POST /api/items/{id}/fix-order", h.FixOrder)
}

// batchResponse is the wire shape of a best-effort multi-item outcome.
type batchResponse struct {
	Items  []models.Item     `json:"items"`
	Errors map[string]string `json:"errors,omitempty"`
}

func toBatchResponse(result *hierarchySvc.BatchResult) batchResponse {
	resp := batchResponse{Items: result.Items}
	if resp.Items == nil {
		resp.Items = []models.Item{}
	}
	if result.Failed() {
		resp.Errors = make(map[string]string, len(result.Errors))
		for id, err := range result.Errors {
			resp.Errors[id.String()] = err.Error()
		}
	}
	return resp
}

// CreateItem creates one item
// POST /api/items
func (h *ItemHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req hierarchySvc.CreateItemRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.items.Create(r.Context(), actor, &req)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, item)
}

// CreateItems creates several siblings under one parent
// POST /api/items/batch
func (h *ItemHandler) CreateItems(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req struct {
		ParentID *uuid.UUID         `json:"parent_id,omitempty"`
		Items    []models.ItemDraft `json:"items"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.items.CreateMany(r.Context(), actor, req.ParentID, req.Items)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusCreated, toBatchResponse(result))
}

// GetItem returns one packed item
// GET /api/items/{id}
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.items.Get(r.Context(), actor, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, item)
}

// GetItems returns packed items by id, in query order
// GET /api/items?id=a,b,c
func (h *ItemHandler) GetItems(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ids, err := queryIDs(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := h.items.GetMany(r.Context(), actor, ids)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, items)
}

// patchItemRequest is the wire shape of a partial update. Name decodes
// tri-state so an explicit null or blank name is rejected instead of
// silently meaning "no change".
type patchItemRequest struct {
	Name        httputil.OptionalString `json:"name"`
	Type        models.ItemType         `json:"type"`
	Extra       models.ItemExtra        `json:"extra"`
	Settings    *models.ItemSettings    `json:"settings"`
	Geolocation json.RawMessage         `json:"geolocation"`
}

// PatchItem applies a non-structural update
// PATCH /api/items/{id}
func (h *ItemHandler) PatchItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req patchItemRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch := models.ItemDraft{
		Type:        req.Type,
		Extra:       req.Extra,
		Geolocation: req.Geolocation,
	}
	if req.Settings != nil {
		patch.Settings = *req.Settings
	}
	if req.Name.Present {
		if req.Name.Value == nil || strings.TrimSpace(*req.Name.Value) == "" {
			httputil.RespondError(w, http.StatusBadRequest, "name cannot be null or empty")
			return
		}
		patch.Name = *req.Name.Value
	}

	item, err := h.items.Patch(r.Context(), actor, id, patch)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, item)
}

// GetChildren returns the ordered children of a folder
// GET /api/items/{id}/children
func (h *ItemHandler) GetChildren(w http.ResponseWriter, r *http.Request) {
	h.respondListing(w, r, h.items.GetChildren)
}

// GetDescendants returns the subtree below an item, parents first
// GET /api/items/{id}/descendants
func (h *ItemHandler) GetDescendants(w http.ResponseWriter, r *http.Request) {
	h.respondListing(w, r, h.items.GetDescendants)
}

// GetAncestors returns the chain above an item, root first
// GET /api/items/{id}/ancestors
func (h *ItemHandler) GetAncestors(w http.ResponseWriter, r *http.Request) {
	h.respondListing(w, r, h.items.GetAncestors)
}

func (h *ItemHandler) respondListing(
	w http.ResponseWriter,
	r *http.Request,
	list func(ctx context.Context, actor uuid.UUID, id uuid.UUID) ([]models.PackedItem, error),
) {
	actor, ok := actorID(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, err := list(r.Context(), actor, id)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, items)
}

// GetOwnItems returns the actor's root items
// GET /api/items/own
func (h *ItemHandler) GetOwnItems(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	items, err := h.items.GetOwn(r.Context(), actor)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, items)
}

// GetSharedItems returns items shared with the actor
// GET /api/items/shared
func (h *ItemHandler) GetSharedItems(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	items, err := h.items.GetShared(r.Context(), actor)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, items)
}

// GetRecycledItems lists the actor's recycle-bin entries
// GET /api/items/recycled
func (h *ItemHandler) GetRecycledItems(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	entries, err := h.items.GetRecycled(r.Context(), actor)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, entries)
}

// MoveItems relocates one or more subtrees
// POST /api/items/move?id=a,b  body: {"destination_id": "..."}
func (h *ItemHandler) MoveItems(w http.ResponseWriter, r *http.Request) {
	h.respondStructural(w, r, h.items.MoveMany)
}

// CopyItems duplicates one or more subtrees
// POST /api/items/copy?id=a,b  body: {"destination_id": "..."}
func (h *ItemHandler) CopyItems(w http.ResponseWriter, r *http.Request) {
	h.respondStructural(w, r, h.items.CopyMany)
}

func (h *ItemHandler) respondStructural(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, actor uuid.UUID, ids []uuid.UUID, destinationID *uuid.UUID) (*hierarchySvc.BatchResult, error),
) {
	actor, ok := actorID(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ids, err := queryIDs(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		DestinationID *uuid.UUID `json:"destination_id,omitempty"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := op(r.Context(), actor, ids, req.DestinationID)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusAccepted, toBatchResponse(result))
}

// RecycleItems soft-deletes subtrees into the recycle bin
// POST /api/items/recycle?id=a,b
func (h *ItemHandler) RecycleItems(w http.ResponseWriter, r *http.Request) {
	h.respondBatch(w, r, h.items.Recycle)
}

// RestoreItems brings recycled subtrees back
// POST /api/items/restore?id=a,b
func (h *ItemHandler) RestoreItems(w http.ResponseWriter, r *http.Request) {
	h.respondBatch(w, r, h.items.Restore)
}

// DeleteItems permanently removes subtrees
// DELETE /api/items?id=a,b
func (h *ItemHandler) DeleteItems(w http.ResponseWriter, r *http.Request) {
	h.respondBatch(w, r, h.items.Delete)
}

func (h *ItemHandler) respondBatch(
	w http.ResponseWriter,
	r *http.Request,
	op func(ctx context.Context, actor uuid.UUID, ids []uuid.UUID) (*hierarchySvc.BatchResult, error),
) {
	actor, ok := actorID(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ids, err := queryIDs(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := op(r.Context(), actor, ids)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusAccepted, toBatchResponse(result))
}

// ReorderItem repositions an item within its siblings
// POST /api/items/{id}/reorder  body: {"previous_sibling_id": "..."|null}
func (h *ItemHandler) ReorderItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		PreviousSiblingID *uuid.UUID `json:"previous_sibling_id,omitempty"`
	}
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	item, err := h.items.Reorder(r.Context(), actor, id, req.PreviousSiblingID)
	if err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, item)
}

// FixOrder rescales every sibling scope in a subtree
// POST /api/items/{id}/fix-order
func (h *ItemHandler) FixOrder(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorID(r)
	if !ok {
		httputil.RespondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.items.FixOrder(r.Context(), actor, id); err != nil {
		respondDomainError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
