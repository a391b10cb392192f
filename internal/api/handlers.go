package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/JonMunkholm/EntityEditor/internal/export"
	"github.com/JonMunkholm/EntityEditor/internal/schema"
	"github.com/JonMunkholm/EntityEditor/internal/sqlfile"
	"github.com/JonMunkholm/EntityEditor/internal/store"
)

// Deps are the collaborators the handler serves.
type Deps struct {
	Registry  *schema.Registry
	Exporter  *export.Exporter
	Importer  *sqlfile.Importer
	Snapshots store.Store
	// WebFS holds the editor page under a "web" directory.
	WebFS fs.FS
	Log   zerolog.Logger
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	registry    *schema.Registry
	exporter    *export.Exporter
	importer    *sqlfile.Importer
	snapshots   store.Store
	webFS       fs.FS
	csrf        *CSRFMiddleware
	rateLimiter *RateLimiter
	log         zerolog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(deps Deps) (*Handler, error) {
	// Strip the "web" prefix from the embedded filesystem
	subFS, err := fs.Sub(deps.WebFS, "web")
	if err != nil {
		return nil, fmt.Errorf("failed to create sub filesystem: %w", err)
	}

	csrf, err := NewCSRFMiddleware(deps.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create CSRF middleware: %w", err)
	}

	return &Handler{
		registry:    deps.Registry,
		exporter:    deps.Exporter,
		importer:    deps.Importer,
		snapshots:   deps.Snapshots,
		webFS:       subFS,
		csrf:        csrf,
		rateLimiter: NewRateLimiter(300, time.Minute, deps.Log), // 300 requests per minute
		log:         deps.Log,
	}, nil
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// CSRF token endpoint (must be outside CSRF middleware)
	mux.HandleFunc("GET /api/csrf-token", h.handleGetCSRFToken)

	apiMux := http.NewServeMux()
	apiMux.HandleFunc("GET /api/types", h.handleGetTypes)

	apiMux.HandleFunc("GET /api/entities", h.handleListEntities)
	apiMux.HandleFunc("POST /api/entities", h.handleCreateEntity)
	apiMux.HandleFunc("GET /api/entities/{index}", h.handleGetEntity)
	apiMux.HandleFunc("PUT /api/entities/{index}", h.handleUpdateEntity)
	apiMux.HandleFunc("DELETE /api/entities/{index}", h.handleDeleteEntity)

	apiMux.HandleFunc("GET /api/editor", h.handleGetEditor)
	apiMux.HandleFunc("POST /api/editor/new", h.handleNewDraft)
	apiMux.HandleFunc("POST /api/editor/edit/{index}", h.handleEditDraft)
	apiMux.HandleFunc("POST /api/editor/cancel", h.handleCancelEdit)

	apiMux.HandleFunc("GET /api/names/suggest", h.handleSuggestName)
	apiMux.HandleFunc("GET /api/columns/suggest", h.handleSuggestColumn)

	apiMux.HandleFunc("PUT /api/selection", h.handleSetSelected)
	apiMux.HandleFunc("PUT /api/selection/all", h.handleSelectAll)

	apiMux.HandleFunc("GET /api/sql", h.handleGetSQL)
	apiMux.HandleFunc("GET /api/sql/download", h.handleDownloadSQL)
	apiMux.HandleFunc("POST /api/import", h.handleImport)

	apiMux.HandleFunc("GET /api/snapshots", h.handleListSnapshots)
	apiMux.HandleFunc("POST /api/snapshots", h.handleSaveSnapshot)
	apiMux.HandleFunc("POST /api/snapshots/{id}/load", h.handleLoadSnapshot)
	apiMux.HandleFunc("DELETE /api/snapshots/{id}", h.handleDeleteSnapshot)

	// Apply middleware chain: body limit -> rate limiting -> CSRF
	// 12MB leaves room for imported scripts
	protected := LimitBodySize(h.rateLimiter.Wrap(h.csrf.Wrap(apiMux)), sqlfile.DefaultMaxSize+2<<20)
	mux.Handle("/api/", protected)

	// Static files (no CSRF needed for GET)
	mux.Handle("/", http.FileServer(http.FS(h.webFS)))
}

// Stop stops background goroutines. Should be called on graceful shutdown.
func (h *Handler) Stop() {
	h.csrf.Stop()
	h.rateLimiter.Stop()
}

type csrfTokenData struct {
	Token string `json:"token"`
}

func (h *Handler) handleGetCSRFToken(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, csrfTokenData{Token: h.csrf.Token()})
}

// API Response types for consistent format
type apiResponse[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes for API responses
const (
	ErrInvalidRequest   = "INVALID_REQUEST"
	ErrMissingField     = "MISSING_FIELD"
	ErrInvalidIndex     = "INVALID_INDEX"
	ErrEntityNotFound   = "ENTITY_NOT_FOUND"
	ErrInvalidEntity    = "INVALID_ENTITY"
	ErrImportFailed     = "IMPORT_ERROR"
	ErrSnapshotNotFound = "SNAPSHOT_NOT_FOUND"
	ErrSnapshotError    = "SNAPSHOT_ERROR"
)

// respondJSON sends a successful JSON response with type-safe data
func respondJSON[T any](w http.ResponseWriter, log zerolog.Logger, data T) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	resp := apiResponse[T]{Success: true, Data: data}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func (h *Handler) respondJSON(w http.ResponseWriter, data any) {
	respondJSON(w, h.log, data)
}

// errorResponse is the response type for errors (no data field)
type errorResponse struct {
	Success bool      `json:"success"`
	Error   *apiError `json:"error,omitempty"`
}

// respondError sends an error JSON response (logs details server-side, sends safe message to client)
func (h *Handler) respondError(w http.ResponseWriter, code string, clientMessage string, status int, internalErr error) {
	ev := h.log.Warn()
	if status >= http.StatusInternalServerError {
		ev = h.log.Error()
	}
	ev.Err(internalErr).Str("code", code).Int("status", status).Msg(clientMessage)

	writeEnvelopeError(w, status, code, clientMessage)
}

// respondSchemaError maps registry errors onto responses.
func (h *Handler) respondSchemaError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schema.ErrOutOfRange):
		h.respondError(w, ErrEntityNotFound, "Entity not found", http.StatusNotFound, err)
	case errors.Is(err, schema.ErrInvalidInput):
		h.respondError(w, ErrInvalidEntity, err.Error(), http.StatusBadRequest, err)
	default:
		h.respondError(w, ErrInvalidRequest, "Request failed", http.StatusInternalServerError, err)
	}
}

// decodeJSONBody decodes JSON request body into the provided value, rejecting
// unknown fields. Returns false if decoding fails (error response already sent).
func (h *Handler) decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		h.respondError(w, ErrInvalidRequest, "Invalid request body", http.StatusBadRequest, err)
		return false
	}
	return true
}

// decodeOptionalJSONBody is decodeJSONBody for requests whose body may be empty.
func (h *Handler) decodeOptionalJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(w, ErrInvalidRequest, "Invalid request body", http.StatusBadRequest, err)
		return false
	}
	return true
}

// pathIndex parses the {index} path parameter.
// Returns false if it is not a number (error response already sent).
func (h *Handler) pathIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		h.respondError(w, ErrInvalidIndex, "Entity index must be a number", http.StatusBadRequest, err)
		return 0, false
	}
	return index, true
}

type typesData struct {
	Types []schema.TypeInfo `json:"types"`
}

func (h *Handler) handleGetTypes(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, typesData{Types: schema.Catalog})
}
