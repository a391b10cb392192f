package api

import (
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/zeebo/xxh3"

	"github.com/JonMunkholm/EntityEditor/internal/export"
)

const downloadName = "schema.sql"

type sqlData struct {
	Mode string `json:"mode"`
	SQL  string `json:"sql"`
}

// exportFor renders the script for the ?mode= query parameter. Without one
// the exporter's live copy is returned.
func (h *Handler) exportFor(w http.ResponseWriter, r *http.Request) (string, export.Mode, bool) {
	m := r.URL.Query().Get("mode")
	if m == "" {
		return h.exporter.Latest(), h.exporter.Mode(), true
	}

	mode, err := export.ParseMode(m)
	if err != nil {
		h.respondError(w, ErrInvalidRequest, "Mode must be selected or all", http.StatusBadRequest, err)
		return "", 0, false
	}
	return h.exporter.ExportMode(h.registry, mode), mode, true
}

// scriptETag identifies a script version so polling clients can skip
// unchanged previews.
func scriptETag(mode export.Mode, sql string) string {
	return fmt.Sprintf(`"%s-%016x"`, mode, xxh3.HashString(sql))
}

// notModified sets the ETag header and reports whether the client already
// holds this version (304 already sent).
func notModified(w http.ResponseWriter, r *http.Request, etag string) bool {
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return true
	}
	return false
}

func (h *Handler) handleGetSQL(w http.ResponseWriter, r *http.Request) {
	sql, mode, ok := h.exportFor(w, r)
	if !ok {
		return
	}
	if notModified(w, r, scriptETag(mode, sql)) {
		return
	}
	h.respondJSON(w, sqlData{Mode: mode.String(), SQL: sql})
}

func (h *Handler) handleDownloadSQL(w http.ResponseWriter, r *http.Request) {
	sql, mode, ok := h.exportFor(w, r)
	if !ok {
		return
	}
	if notModified(w, r, scriptETag(mode, sql)) {
		return
	}

	w.Header().Set("Content-Type", "application/sql; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+downloadName+`"`)
	if _, err := w.Write([]byte(sql)); err != nil {
		h.log.Error().Err(err).Msg("failed to write sql download")
	}
}

type importData struct {
	Name       string `json:"name"`
	Bytes      int    `json:"bytes"`
	Statements int    `json:"statements"`
}

// handleImport accepts a script as the "file" field of a multipart form or as
// the raw request body. The script is read and counted, never applied.
func (h *Handler) handleImport(w http.ResponseWriter, r *http.Request) {
	name := "upload.sql"
	body := r.Body

	// Only multipart bodies go through FormFile; it would consume a
	// urlencoded body as form values.
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
		file, header, err := r.FormFile("file")
		if err != nil {
			h.respondError(w, ErrImportFailed, "Missing file field", http.StatusBadRequest, err)
			return
		}
		defer file.Close()
		name = filepath.Base(header.Filename)
		body = file
	}

	res, err := h.importer.Read(name, body)
	if err != nil {
		h.respondError(w, ErrImportFailed, "Failed to read SQL script", http.StatusBadRequest, err)
		return
	}
	h.respondJSON(w, importData{Name: res.Name, Bytes: res.Bytes, Statements: len(res.Statements)})
}
