package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/EntityEditor/internal/store"
)

type snapshotsData struct {
	Snapshots []store.Snapshot `json:"snapshots"`
}

type saveSnapshotRequest struct {
	Name string `json:"name"`
}

func (h *Handler) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.snapshots.List(r.Context())
	if err != nil {
		h.respondError(w, ErrSnapshotError, "Failed to list snapshots", http.StatusInternalServerError, err)
		return
	}
	h.respondJSON(w, snapshotsData{Snapshots: snapshots})
}

func (h *Handler) handleSaveSnapshot(w http.ResponseWriter, r *http.Request) {
	var req saveSnapshotRequest
	if !h.decodeJSONBody(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		h.respondError(w, ErrMissingField, "Snapshot name is required", http.StatusBadRequest, nil)
		return
	}

	snap, err := h.snapshots.Save(r.Context(), req.Name, h.registry.Entities())
	if err != nil {
		h.respondError(w, ErrSnapshotError, "Failed to save snapshot", http.StatusInternalServerError, err)
		return
	}
	h.respondJSON(w, snap)
}

// pathSnapshotID parses the {id} path parameter.
// Returns false if it is not a UUID (error response already sent).
func (h *Handler) pathSnapshotID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, ErrInvalidRequest, "Snapshot id must be a UUID", http.StatusBadRequest, err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleLoadSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathSnapshotID(w, r)
	if !ok {
		return
	}

	snap, err := h.snapshots.Load(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.respondError(w, ErrSnapshotNotFound, "Snapshot not found", http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.respondError(w, ErrSnapshotError, "Failed to load snapshot", http.StatusInternalServerError, err)
		return
	}

	h.registry.Replace(snap.Entities)
	h.respondJSON(w, entitiesData{Entities: h.registry.Summaries(), Editing: h.registry.Editing()})
}

func (h *Handler) handleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathSnapshotID(w, r)
	if !ok {
		return
	}

	err := h.snapshots.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		h.respondError(w, ErrSnapshotNotFound, "Snapshot not found", http.StatusNotFound, err)
		return
	}
	if err != nil {
		h.respondError(w, ErrSnapshotError, "Failed to delete snapshot", http.StatusInternalServerError, err)
		return
	}
	h.handleListSnapshots(w, r)
}
