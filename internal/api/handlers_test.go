package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/EntityEditor/internal/export"
	"github.com/JonMunkholm/EntityEditor/internal/schema"
	"github.com/JonMunkholm/EntityEditor/internal/sqlfile"
	"github.com/JonMunkholm/EntityEditor/internal/store"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
}

type testServer struct {
	t        *testing.T
	mux      *http.ServeMux
	registry *schema.Registry
	token    string
}

func newTestServer(t *testing.T, strict bool) *testServer {
	t.Helper()

	log := zerolog.Nop()
	registry := schema.NewRegistry(schema.WithStrictValidation(strict))
	exporter := export.New(schema.DefaultRenderOptions(), export.ModeSelected)
	exporter.Watch(registry)

	h, err := NewHandler(Deps{
		Registry:  registry,
		Exporter:  exporter,
		Importer:  sqlfile.NewImporter(1024, log),
		Snapshots: store.NewMemory(),
		WebFS:     fstest.MapFS{"web/index.html": {Data: []byte("<html>editor</html>")}},
		Log:       log,
	})
	require.NoError(t, err)
	t.Cleanup(h.Stop)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	ts := &testServer{t: t, mux: mux, registry: registry}
	var tok csrfTokenData
	ts.ok(ts.raw(http.MethodGet, "/api/csrf-token", "", nil), &tok)
	require.NotEmpty(t, tok.Token)
	ts.token = tok.Token
	return ts
}

func (ts *testServer) raw(method, path, contentType string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if ts.token != "" {
		req.Header.Set(CSRFHeader, ts.token)
	}
	rec := httptest.NewRecorder()
	ts.mux.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	return ts.raw(method, path, "application/json", r)
}

// ok asserts a successful envelope and decodes its data into v.
func (ts *testServer) ok(rec *httptest.ResponseRecorder, v any) {
	ts.t.Helper()
	require.Equal(ts.t, http.StatusOK, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &env))
	require.True(ts.t, env.Success)
	if v != nil {
		require.NoError(ts.t, json.Unmarshal(env.Data, v))
	}
}

// fails asserts an error envelope with the given status and code.
func (ts *testServer) fails(rec *httptest.ResponseRecorder, status int, code string) {
	ts.t.Helper()
	require.Equal(ts.t, status, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.False(ts.t, env.Success)
	require.NotNil(ts.t, env.Error)
	assert.Equal(ts.t, code, env.Error.Code)
}

const usersJSON = `{
	"name": "users",
	"columns": [
		{"name": "id", "type": "INT", "primaryKey": true, "autoIncrement": true},
		{"name": "email", "type": "VARCHAR", "length": "255", "default": ""},
		{"name": "status", "type": "ENUM", "enumValues": "active,disabled", "default": "active"}
	]
}`

const usersSQL = "-- Entity: users\n" +
	"CREATE TABLE IF NOT EXISTS users (\n" +
	"\tid INT NOT NULL PRIMARY KEY AUTO_INCREMENT,\n" +
	"\temail VARCHAR(255) NOT NULL,\n" +
	"\tstatus ENUM('active', 'disabled') NOT NULL DEFAULT 'active'\n" +
	");\n\n"

func TestStaticPage(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(http.MethodGet, "/", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "editor")
}

func TestTypes(t *testing.T) {
	ts := newTestServer(t, false)

	var data typesData
	ts.ok(ts.do(http.MethodGet, "/api/types", ""), &data)
	assert.Len(t, data.Types, len(schema.Catalog))
	assert.Equal(t, schema.TypeBigInt, data.Types[0].Name)
}

func TestCSRFRequired(t *testing.T) {
	ts := newTestServer(t, false)
	ts.token = ""

	ts.fails(ts.do(http.MethodPost, "/api/entities", usersJSON), http.StatusForbidden, errCSRF)

	ts.token = "forged"
	ts.fails(ts.do(http.MethodPost, "/api/entities", usersJSON), http.StatusForbidden, errCSRF)

	// Reads need no token.
	ts.token = ""
	ts.ok(ts.do(http.MethodGet, "/api/entities", ""), nil)
	assert.Equal(t, 0, ts.registry.Len())
}

func TestEntityLifecycle(t *testing.T) {
	ts := newTestServer(t, false)

	var created commitData
	ts.ok(ts.do(http.MethodPost, "/api/entities", usersJSON), &created)
	assert.Equal(t, commitData{Index: 0, Name: "users"}, created)

	var entity schema.Entity
	ts.ok(ts.do(http.MethodGet, "/api/entities/0", ""), &entity)
	require.Len(t, entity.Columns, 3)
	assert.Nil(t, entity.Columns[1].Default, "empty default is absent")
	assert.Equal(t, []string{"active", "disabled"}, entity.Columns[2].EnumValues)

	// Nothing is selected yet.
	var sql sqlData
	ts.ok(ts.do(http.MethodGet, "/api/sql", ""), &sql)
	assert.Equal(t, sqlData{Mode: "selected", SQL: ""}, sql)

	var list entitiesData
	ts.ok(ts.do(http.MethodPut, "/api/selection", `{"name":"users","selected":true}`), &list)
	require.Len(t, list.Entities, 1)
	assert.True(t, list.Entities[0].Selected)

	ts.ok(ts.do(http.MethodGet, "/api/sql", ""), &sql)
	assert.Equal(t, usersSQL, sql.SQL)

	var updated commitData
	ts.ok(ts.do(http.MethodPut, "/api/entities/0", `{"name":"accounts","columns":[]}`), &updated)
	assert.Equal(t, "accounts", updated.Name)

	// The rename dropped the selection.
	ts.ok(ts.do(http.MethodGet, "/api/sql", ""), &sql)
	assert.Empty(t, sql.SQL)
	ts.ok(ts.do(http.MethodGet, "/api/sql?mode=all", ""), &sql)
	assert.Equal(t, sqlData{Mode: "all", SQL: "-- Entity: accounts\nCREATE TABLE IF NOT EXISTS accounts (\n);\n\n"}, sql)

	ts.ok(ts.do(http.MethodDelete, "/api/entities/0", ""), &list)
	assert.Empty(t, list.Entities)
	assert.Equal(t, schema.NewEntityIndex, list.Editing)
}

func TestEntityErrors(t *testing.T) {
	ts := newTestServer(t, false)

	ts.fails(ts.do(http.MethodGet, "/api/entities/0", ""), http.StatusNotFound, ErrEntityNotFound)
	ts.fails(ts.do(http.MethodGet, "/api/entities/abc", ""), http.StatusBadRequest, ErrInvalidIndex)
	ts.fails(ts.do(http.MethodDelete, "/api/entities/3", ""), http.StatusNotFound, ErrEntityNotFound)
	ts.fails(ts.do(http.MethodPut, "/api/entities/0", usersJSON), http.StatusNotFound, ErrEntityNotFound)
	ts.fails(ts.do(http.MethodPut, "/api/entities/-1", usersJSON), http.StatusNotFound, ErrEntityNotFound)
	ts.fails(ts.do(http.MethodPost, "/api/entities", `{"columns":[]}`), http.StatusBadRequest, ErrMissingField)
	ts.fails(ts.do(http.MethodPost, "/api/entities", `{"name":"t","extra":1}`), http.StatusBadRequest, ErrInvalidRequest)
	ts.fails(ts.do(http.MethodPost, "/api/entities", `not json`), http.StatusBadRequest, ErrInvalidRequest)
	ts.fails(ts.do(http.MethodGet, "/api/sql?mode=some", ""), http.StatusBadRequest, ErrInvalidRequest)

	assert.Equal(t, 0, ts.registry.Len())
}

func TestStrictValidation(t *testing.T) {
	ts := newTestServer(t, true)

	ts.ok(ts.do(http.MethodPost, "/api/entities", usersJSON), nil)
	ts.fails(ts.do(http.MethodPost, "/api/entities", usersJSON), http.StatusBadRequest, ErrInvalidEntity)
	ts.fails(ts.do(http.MethodPost, "/api/entities", `{"name":"t","columns":[{"name":"a","type":"STRING"}]}`),
		http.StatusBadRequest, ErrInvalidEntity)
	ts.fails(ts.do(http.MethodPost, "/api/entities", `{"name":"bad name"}`), http.StatusBadRequest, ErrInvalidEntity)

	assert.Equal(t, 1, ts.registry.Len())
}

func TestEditor(t *testing.T) {
	ts := newTestServer(t, false)

	var draft schema.Draft
	ts.ok(ts.do(http.MethodPost, "/api/editor/new", ""), &draft)
	assert.Equal(t, schema.NewEntityIndex, draft.Index)
	assert.Equal(t, "new_table", draft.Name)

	ts.ok(ts.do(http.MethodPost, "/api/entities", `{"name":"new_table"}`), nil)

	ts.ok(ts.do(http.MethodPost, "/api/editor/new", `{"base":"new_table"}`), &draft)
	assert.Equal(t, "new_table_2", draft.Name)

	var suggested suggestNameData
	ts.ok(ts.do(http.MethodGet, "/api/names/suggest?base=new_table", ""), &suggested)
	assert.Equal(t, "new_table_2", suggested.Name)

	ts.ok(ts.do(http.MethodPost, "/api/editor/edit/0", ""), &draft)
	assert.Equal(t, 0, draft.Index)

	var editor editorData
	ts.ok(ts.do(http.MethodGet, "/api/editor", ""), &editor)
	assert.Equal(t, 0, editor.Editing)

	ts.ok(ts.do(http.MethodPost, "/api/editor/cancel", ""), &editor)
	assert.Equal(t, schema.NewEntityIndex, editor.Editing)

	ts.fails(ts.do(http.MethodPost, "/api/editor/edit/4", ""), http.StatusNotFound, ErrEntityNotFound)
}

func TestSuggestColumn(t *testing.T) {
	ts := newTestServer(t, false)

	var col schema.Column
	ts.ok(ts.do(http.MethodGet, "/api/columns/suggest?entity=users", ""), &col)
	assert.Equal(t, schema.Column{Name: "users_id", Type: schema.TypeVarchar}, col)

	ts.ok(ts.do(http.MethodGet, "/api/columns/suggest?entity=users&count=2", ""), &col)
	assert.Equal(t, "users_col3", col.Name)

	ts.fails(ts.do(http.MethodGet, "/api/columns/suggest", ""), http.StatusBadRequest, ErrMissingField)
	ts.fails(ts.do(http.MethodGet, "/api/columns/suggest?entity=u&count=-1", ""), http.StatusBadRequest, ErrInvalidRequest)
}

func TestSelectAllAndDownload(t *testing.T) {
	ts := newTestServer(t, false)

	ts.ok(ts.do(http.MethodPost, "/api/entities", usersJSON), nil)
	ts.ok(ts.do(http.MethodPut, "/api/selection/all", `{"selected":true}`), nil)

	rec := ts.do(http.MethodGet, "/api/sql/download", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/sql; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="schema.sql"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, usersSQL, rec.Body.String())

	ts.ok(ts.do(http.MethodPut, "/api/selection/all", `{"selected":false}`), nil)
	rec = ts.do(http.MethodGet, "/api/sql/download", "")
	assert.Empty(t, rec.Body.String())
}

func TestImport(t *testing.T) {
	ts := newTestServer(t, false)

	var data importData
	ts.ok(ts.raw(http.MethodPost, "/api/import", "text/plain", bytes.NewBufferString("SELECT 1; SELECT 2;")), &data)
	assert.Equal(t, importData{Name: "upload.sql", Bytes: 19, Statements: 2}, data)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "../schema.sql")
	require.NoError(t, err)
	_, err = fw.Write([]byte("CREATE TABLE a (id INT);"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	ts.ok(ts.raw(http.MethodPost, "/api/import", mw.FormDataContentType(), &body), &data)
	assert.Equal(t, importData{Name: "schema.sql", Bytes: 24, Statements: 1}, data)

	// A form-encoded body is still read as the raw script.
	ts.ok(ts.raw(http.MethodPost, "/api/import", "application/x-www-form-urlencoded", bytes.NewBufferString("a=1; b=2;")), &data)
	assert.Equal(t, importData{Name: "upload.sql", Bytes: 9, Statements: 2}, data)

	var empty bytes.Buffer
	emptyForm := multipart.NewWriter(&empty)
	require.NoError(t, emptyForm.WriteField("other", "x"))
	require.NoError(t, emptyForm.Close())
	ts.fails(ts.raw(http.MethodPost, "/api/import", emptyForm.FormDataContentType(), &empty),
		http.StatusBadRequest, ErrImportFailed)

	// Importing never creates entities.
	assert.Equal(t, 0, ts.registry.Len())

	ts.fails(ts.raw(http.MethodPost, "/api/import", "text/plain", bytes.NewReader(make([]byte, 2048))),
		http.StatusBadRequest, ErrImportFailed)
}

func TestSnapshots(t *testing.T) {
	ts := newTestServer(t, false)

	ts.ok(ts.do(http.MethodPost, "/api/entities", usersJSON), nil)

	var snap store.Snapshot
	ts.ok(ts.do(http.MethodPost, "/api/snapshots", `{"name":" v1 "}`), &snap)
	assert.Equal(t, "v1", snap.Name)

	ts.fails(ts.do(http.MethodPost, "/api/snapshots", `{"name":"  "}`), http.StatusBadRequest, ErrMissingField)

	var list snapshotsData
	ts.ok(ts.do(http.MethodGet, "/api/snapshots", ""), &list)
	require.Len(t, list.Snapshots, 1)
	assert.Equal(t, snap.ID, list.Snapshots[0].ID)

	ts.ok(ts.do(http.MethodDelete, "/api/entities/0", ""), nil)
	require.Equal(t, 0, ts.registry.Len())

	var loaded entitiesData
	ts.ok(ts.do(http.MethodPost, "/api/snapshots/"+snap.ID.String()+"/load", ""), &loaded)
	require.Len(t, loaded.Entities, 1)
	assert.Equal(t, "users", loaded.Entities[0].Name)
	assert.Equal(t, 1, ts.registry.Len())

	ts.fails(ts.do(http.MethodPost, "/api/snapshots/not-a-uuid/load", ""), http.StatusBadRequest, ErrInvalidRequest)

	ts.ok(ts.do(http.MethodDelete, "/api/snapshots/"+snap.ID.String(), ""), &list)
	assert.Empty(t, list.Snapshots)

	ts.fails(ts.do(http.MethodDelete, "/api/snapshots/"+snap.ID.String(), ""), http.StatusNotFound, ErrSnapshotNotFound)
	ts.fails(ts.do(http.MethodPost, "/api/snapshots/"+snap.ID.String()+"/load", ""), http.StatusNotFound, ErrSnapshotNotFound)
}

func TestSQLETag(t *testing.T) {
	ts := newTestServer(t, false)

	rec := ts.do(http.MethodGet, "/api/sql", "")
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, "/api/sql", nil)
	req.Header.Set("If-None-Match", etag)
	cached := httptest.NewRecorder()
	ts.mux.ServeHTTP(cached, req)
	assert.Equal(t, http.StatusNotModified, cached.Code)
	assert.Empty(t, cached.Body.String())

	// Any change to the script changes the tag.
	ts.ok(ts.do(http.MethodPost, "/api/entities", usersJSON), nil)
	ts.ok(ts.do(http.MethodPut, "/api/selection/all", `{"selected":true}`), nil)
	rec = ts.do(http.MethodGet, "/api/sql", "")
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))

	// The all-mode view of the same script is tagged separately.
	all := ts.do(http.MethodGet, "/api/sql?mode=all", "")
	assert.NotEqual(t, rec.Header().Get("ETag"), all.Header().Get("ETag"))
}
