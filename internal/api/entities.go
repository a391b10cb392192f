package api

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/EntityEditor/internal/schema"
)

type entitiesData struct {
	Entities []schema.EntitySummary `json:"entities"`
	Editing  int                    `json:"editing"`
}

func (h *Handler) handleListEntities(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, entitiesData{
		Entities: h.registry.Summaries(),
		Editing:  h.registry.Editing(),
	})
}

func (h *Handler) handleGetEntity(w http.ResponseWriter, r *http.Request) {
	index, ok := h.pathIndex(w, r)
	if !ok {
		return
	}

	entity, err := h.registry.Entity(index)
	if err != nil {
		h.respondSchemaError(w, err)
		return
	}
	h.respondJSON(w, entity)
}

type commitData struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

func (h *Handler) handleCreateEntity(w http.ResponseWriter, r *http.Request) {
	h.commit(w, r, schema.NewEntityIndex)
}

func (h *Handler) handleUpdateEntity(w http.ResponseWriter, r *http.Request) {
	index, ok := h.pathIndex(w, r)
	if !ok {
		return
	}
	if index < 0 {
		h.respondError(w, ErrEntityNotFound, "Entity not found", http.StatusNotFound, nil)
		return
	}
	h.commit(w, r, index)
}

func (h *Handler) commit(w http.ResponseWriter, r *http.Request, index int) {
	var req schema.EntityInput
	if !h.decodeJSONBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		h.respondError(w, ErrMissingField, "Entity name is required", http.StatusBadRequest, nil)
		return
	}

	draft := schema.Draft{Index: index, Entity: req.Entity()}
	committed, err := h.registry.Commit(draft)
	if err != nil {
		h.respondSchemaError(w, err)
		return
	}
	h.respondJSON(w, commitData{Index: committed, Name: draft.Name})
}

func (h *Handler) handleDeleteEntity(w http.ResponseWriter, r *http.Request) {
	index, ok := h.pathIndex(w, r)
	if !ok {
		return
	}
	if err := h.registry.DeleteEntity(index); err != nil {
		h.respondSchemaError(w, err)
		return
	}
	h.respondJSON(w, entitiesData{
		Entities: h.registry.Summaries(),
		Editing:  h.registry.Editing(),
	})
}

type editorData struct {
	Editing int `json:"editing"`
}

func (h *Handler) handleGetEditor(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, editorData{Editing: h.registry.Editing()})
}

type newDraftRequest struct {
	Base string `json:"base"`
}

func (h *Handler) handleNewDraft(w http.ResponseWriter, r *http.Request) {
	var req newDraftRequest
	if !h.decodeOptionalJSONBody(w, r, &req) {
		return
	}
	h.respondJSON(w, h.registry.BeginNew(req.Base))
}

func (h *Handler) handleEditDraft(w http.ResponseWriter, r *http.Request) {
	index, ok := h.pathIndex(w, r)
	if !ok {
		return
	}
	draft, err := h.registry.BeginEdit(index)
	if err != nil {
		h.respondSchemaError(w, err)
		return
	}
	h.respondJSON(w, draft)
}

func (h *Handler) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	h.registry.CancelEdit()
	h.respondJSON(w, editorData{Editing: h.registry.Editing()})
}

type suggestNameData struct {
	Name string `json:"name"`
}

func (h *Handler) handleSuggestName(w http.ResponseWriter, r *http.Request) {
	base := r.URL.Query().Get("base")
	h.respondJSON(w, suggestNameData{Name: h.registry.SuggestUniqueName(base)})
}

func (h *Handler) handleSuggestColumn(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entity := q.Get("entity")
	if entity == "" {
		h.respondError(w, ErrMissingField, "Entity name is required", http.StatusBadRequest, nil)
		return
	}

	count := 0
	if c := q.Get("count"); c != "" {
		n, err := strconv.Atoi(c)
		if err != nil || n < 0 {
			h.respondError(w, ErrInvalidRequest, "Column count must be a non-negative number", http.StatusBadRequest, err)
			return
		}
		count = n
	}
	h.respondJSON(w, schema.SuggestColumn(entity, count))
}

type selectionRequest struct {
	Name     string `json:"name"`
	Selected bool   `json:"selected"`
}

type selectAllRequest struct {
	Selected bool `json:"selected"`
}

func (h *Handler) handleSetSelected(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if !h.decodeJSONBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		h.respondError(w, ErrMissingField, "Entity name is required", http.StatusBadRequest, nil)
		return
	}
	h.registry.SetSelected(req.Name, req.Selected)
	h.respondJSON(w, entitiesData{Entities: h.registry.Summaries(), Editing: h.registry.Editing()})
}

func (h *Handler) handleSelectAll(w http.ResponseWriter, r *http.Request) {
	var req selectAllRequest
	if !h.decodeJSONBody(w, r, &req) {
		return
	}
	h.registry.SelectAll(req.Selected)
	h.respondJSON(w, entitiesData{Entities: h.registry.Summaries(), Editing: h.registry.Editing()})
}
