package names

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namesdb/namesdb/internal/config"
	"github.com/namesdb/namesdb/internal/db/models"
	"github.com/namesdb/namesdb/internal/db/store"
	"github.com/namesdb/namesdb/internal/diag"
	namectl "github.com/namesdb/namesdb/internal/names"
	"github.com/namesdb/namesdb/internal/transfer"
	"github.com/namesdb/namesdb/internal/web/handler"
)

// jsonViews is a minimal Fiber Views engine used for tests.
// It writes the fiber.Map as JSON so tests can assert what the page would show.
type jsonViews struct{}

func (jsonViews) Load() error { return nil }

func (jsonViews) Render(w io.Writer, _ string, data interface{}, _ ...string) error {
	return json.NewEncoder(w).Encode(data)
}

type page struct {
	Title       string
	Loading     bool
	Unavailable bool
	Names       []models.Name
	Pending     string
	Alert       *Alert
	ExportMode  string
}

type fixture struct {
	app      *fiber.App
	cfg      *config.Config
	ctl      *namectl.Controller
	reporter *diag.Recorder
}

func newTestConfig() *config.Config {
	cfg := config.Defaults()
	cfg.Title = "Names"

	return &cfg
}

// setup opens a store in a temp dir and mounts the names handler on a test app.
func setup(t *testing.T, cfg *config.Config, initialise bool) fixture {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "SQLite", "example.db"))
	require.NoError(t, err)

	f := fixture{cfg: cfg, reporter: &diag.Recorder{}}
	f.ctl = namectl.New(s, namectl.WithReporter(f.reporter))
	t.Cleanup(func() { _ = f.ctl.Close() })

	if initialise {
		require.NoError(t, f.ctl.Init(context.Background()))
	}

	f.app = fiber.New(fiber.Config{Views: jsonViews{}})

	svc := &Service{}
	require.NoError(t, svc.Init(f.app, cfg, handler.Deps{
		Names:    f.ctl,
		Transfer: transfer.New(transfer.WithReporter(f.reporter)),
	}))

	return f
}

func (f fixture) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := f.app.Test(req, -1)
	require.NoError(t, err)

	return resp
}

func (f fixture) page(t *testing.T) page {
	t.Helper()

	resp := f.do(t, httptest.NewRequest(http.MethodGet, Path, nil))
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var p page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))

	return p
}

func postName(name string) *http.Request {
	form := url.Values{}
	form.Set("name", name)

	req := httptest.NewRequest(http.MethodPost, NamesPath, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return req
}

// importRequest builds a multipart import request, an empty path sends the form without file.
func importRequest(t *testing.T, path string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	if path != "" {
		part, err := w.CreateFormFile(FormFileField, filepath.Base(path))
		require.NoError(t, err)

		content, err := os.ReadFile(path)
		require.NoError(t, err)

		_, err = part.Write(content)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, ImportPath, body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	return req
}

func TestInitNilDeps(t *testing.T) {
	svc := &Service{}
	err := svc.Init(fiber.New(), newTestConfig(), handler.Deps{})
	assert.Error(t, err)
}

func TestGetLoading(t *testing.T) {
	f := setup(t, newTestConfig(), false)

	p := f.page(t)
	assert.True(t, p.Loading)
	assert.Equal(t, "Names", p.Title)
	assert.Empty(t, p.Names)
}

func TestGetLoaded(t *testing.T) {
	f := setup(t, newTestConfig(), true)

	p := f.page(t)
	assert.False(t, p.Loading)
	assert.Empty(t, p.Names)
	assert.Nil(t, p.Alert)
	assert.Equal(t, config.ExportModeShare, p.ExportMode)
}

func TestAddName(t *testing.T) {
	f := setup(t, newTestConfig(), true)

	resp := f.do(t, postName("Alice"))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, Path, resp.Header.Get("Location"))

	resp = f.do(t, postName("Bob"))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	p := f.page(t)
	require.Len(t, p.Names, 2)
	assert.Equal(t, "Alice", p.Names[0].Name)
	assert.Equal(t, "Bob", p.Names[1].Name)
	assert.NotEqual(t, p.Names[0].ID, p.Names[1].ID)
	assert.Empty(t, p.Pending)
}

func TestAddEmptyName(t *testing.T) {
	f := setup(t, newTestConfig(), true)

	resp := f.do(t, postName(""))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var p page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	require.NotNil(t, p.Alert)
	assert.Equal(t, "Error", p.Alert.Title)
	assert.Equal(t, "Please enter a name.", p.Alert.Message)
	assert.Empty(t, p.Names)
	assert.Empty(t, f.reporter.Failures())
}

func TestDeleteName(t *testing.T) {
	f := setup(t, newTestConfig(), true)

	f.do(t, postName("Alice"))
	f.do(t, postName("Bob"))

	p := f.page(t)
	require.Len(t, p.Names, 2)

	target := p.Names[0]
	resp := f.do(t, httptest.NewRequest(http.MethodPost, NamesPath+"/"+jsonInt(target.ID)+"/delete", nil))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	p = f.page(t)
	require.Len(t, p.Names, 1)
	assert.Equal(t, "Bob", p.Names[0].Name)

	// unknown id leaves the list as it is
	resp = f.do(t, httptest.NewRequest(http.MethodPost, NamesPath+"/999/delete", nil))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Len(t, f.page(t).Names, 1)
}

func TestDeleteInvalidID(t *testing.T) {
	f := setup(t, newTestConfig(), true)

	for _, id := range []string{"abc", "0", "-3"} {
		resp := f.do(t, httptest.NewRequest(http.MethodPost, NamesPath+"/"+id+"/delete", nil))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, id)
	}
}

func TestImport(t *testing.T) {
	f := setup(t, newTestConfig(), true)
	f.do(t, postName("Alice"))

	src := filepath.Join(t.TempDir(), "other.db")
	fixtureStore, err := store.Open(src)
	require.NoError(t, err)
	require.NoError(t, fixtureStore.EnsureSchema(context.Background()))
	require.NoError(t, fixtureStore.Exec(context.Background(), "INSERT INTO names (id, name) VALUES (?, ?)", 5, "Zed"))
	require.NoError(t, fixtureStore.Close())

	resp := f.do(t, importRequest(t, src))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	p := f.page(t)
	assert.Equal(t, []models.Name{{ID: 5, Name: "Zed"}}, p.Names)
	assert.Empty(t, f.reporter.Failures())
}

func TestImportWithoutFile(t *testing.T) {
	f := setup(t, newTestConfig(), true)
	f.do(t, postName("Alice"))

	resp := f.do(t, importRequest(t, ""))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	p := f.page(t)
	require.Len(t, p.Names, 1)
	assert.Equal(t, "Alice", p.Names[0].Name)
	assert.Empty(t, f.reporter.Failures())
}

func TestImportInvalidFile(t *testing.T) {
	f := setup(t, newTestConfig(), true)
	f.do(t, postName("Alice"))

	src := filepath.Join(t.TempDir(), "garbage.db")
	require.NoError(t, os.WriteFile(src, bytes.Repeat([]byte("not a database "), 512), 0o600))

	resp := f.do(t, importRequest(t, src))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	p := f.page(t)
	require.Len(t, p.Names, 1)
	assert.Equal(t, "Alice", p.Names[0].Name)
	assert.NotEmpty(t, f.reporter.Failures())
}

func TestExportShare(t *testing.T) {
	f := setup(t, newTestConfig(), true)
	f.do(t, postName("Alice"))

	resp := f.do(t, httptest.NewRequest(http.MethodGet, ExportPath, nil))
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "attachment")
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), transfer.DefaultFileName)
	assert.Equal(t, transfer.MimeType, resp.Header.Get(fiber.HeaderContentType))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	onDisk, err := os.ReadFile(f.ctl.Store().Path())
	require.NoError(t, err)
	assert.Equal(t, onDisk, body)
}

func TestExportDirectory(t *testing.T) {
	dir := t.TempDir()

	cfg := newTestConfig()
	cfg.Export.Mode = config.ExportModeDirectory
	cfg.Export.Directory = dir

	f := setup(t, cfg, true)
	f.do(t, postName("Alice"))

	resp := f.do(t, httptest.NewRequest(http.MethodGet, ExportPath, nil))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	exported, err := os.ReadFile(filepath.Join(dir, transfer.DefaultFileName))
	require.NoError(t, err)

	onDisk, err := os.ReadFile(f.ctl.Store().Path())
	require.NoError(t, err)
	assert.Equal(t, onDisk, exported)
}

func TestExportDirectoryDenied(t *testing.T) {
	cfg := newTestConfig()
	cfg.Export.Mode = config.ExportModeDirectory
	cfg.Export.Directory = ""

	f := setup(t, cfg, true)

	resp := f.do(t, httptest.NewRequest(http.MethodGet, ExportPath, nil))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	ops := f.reporter.Ops()
	require.Len(t, ops, 1)
	assert.Equal(t, transfer.OpExport, ops[0])
	assert.ErrorIs(t, f.reporter.Failures()[0].Err, transfer.ErrPermissionDenied)
}

// databaseFile builds a names database file with rows generated names and returns its path.
func databaseFile(t *testing.T, rows int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "generated.db")

	s, err := store.Open(path)
	require.NoError(t, err)
	require.NoError(t, s.EnsureSchema(context.Background()))

	err = s.Exec(context.Background(),
		"WITH RECURSIVE seq(n) AS (SELECT 1 UNION ALL SELECT n + 1 FROM seq WHERE n < ?) "+
			"INSERT INTO names (name) SELECT 'name ' || n FROM seq", rows)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	return path
}

// export downloads the database in share mode and returns the body.
func (f fixture) export(t *testing.T) []byte {
	t.Helper()

	resp := f.do(t, httptest.NewRequest(http.MethodGet, ExportPath, nil))
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return body
}

func TestExportAfterImportSendsCurrentFile(t *testing.T) {
	f := setup(t, newTestConfig(), true)
	f.do(t, postName("Alice"))

	first := f.export(t)

	resp := f.do(t, importRequest(t, databaseFile(t, 2000)))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Len(t, f.page(t).Names, 2000)

	second := f.export(t)

	onDisk, err := os.ReadFile(f.ctl.Store().Path())
	require.NoError(t, err)
	assert.Equal(t, onDisk, second)
	assert.NotEqual(t, first, second)
}

func TestExportImportRoundTrip(t *testing.T) {
	f := setup(t, newTestConfig(), true)
	f.do(t, postName("Alice"))
	f.do(t, postName("Bob"))

	before := f.page(t).Names
	require.Len(t, before, 2)

	exported := filepath.Join(t.TempDir(), transfer.DefaultFileName)
	require.NoError(t, os.WriteFile(exported, f.export(t), 0o600))

	// change the state after the export
	f.do(t, postName("Carol"))
	f.do(t, httptest.NewRequest(http.MethodPost, NamesPath+"/"+jsonInt(before[0].ID)+"/delete", nil))
	require.NotEqual(t, before, f.page(t).Names)

	resp := f.do(t, importRequest(t, exported))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	assert.Equal(t, before, f.page(t).Names)
	assert.Empty(t, f.reporter.Failures())
}

func TestUnavailableStoreCanBeReplaced(t *testing.T) {
	f := setup(t, newTestConfig(), true)

	// a swap that lost the old handle and could not open a new one
	err := f.ctl.Reconnect(context.Background(), func(current *store.Store) (*store.Store, error) {
		_ = current.Close()
		return nil, errors.New("reopen failed")
	})
	require.Error(t, err)

	p := f.page(t)
	assert.True(t, p.Unavailable)
	assert.True(t, p.Loading)

	resp := f.do(t, importRequest(t, databaseFile(t, 3)))
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)

	p = f.page(t)
	assert.False(t, p.Unavailable)
	assert.False(t, p.Loading)
	assert.Len(t, p.Names, 3)
}

func jsonInt(id int64) string {
	b, _ := json.Marshal(id)

	return string(b)
}
