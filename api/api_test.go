package api

import (
	"bitwise74/docs-api/config"
	"bitwise74/docs-api/internal"
	"bitwise74/docs-api/internal/event"
	"bitwise74/docs-api/internal/model"
	"bitwise74/docs-api/internal/testutil"
	"bitwise74/docs-api/pkg/middleware"
	"bitwise74/docs-api/pkg/security"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "correct-horse-1"

type testAPI struct {
	*API
	conn *gorm.DB
}

func newTestAPI(t *testing.T) *testAPI {
	gin.SetMode(gin.TestMode)

	conn := testutil.NewDB(t)
	c := &config.Config{
		App:      config.App{LogLevel: "info"},
		Host:     config.Host{Port: 8080, CORS: []string{"http://localhost:5173"}},
		JWT:      config.JWT{Secret: "test-secret", TTL: time.Hour},
		Database: config.Database{Driver: "sqlite"},
		Storage:  config.Storage{Path: t.TempDir(), OrphanTTL: time.Hour, DefaultQuota: 1 << 20},
		Upload:   config.Upload{MaxSize: 1 << 20},
		Events:   config.Events{Workers: 2, QueueSize: 16},
		Render:   config.Render{FFmpegPath: "ffmpeg-not-installed", Workers: 1, MaxJobs: 4},
		Tagging: config.Tagging{
			MaxCharacters:  3000,
			ConnectTimeout: time.Second,
			RequestTimeout: time.Second,
			DefaultColor:   "#3a87ad",
		},
		Security: config.Security{RateLimit: 1000},
	}

	bus := event.New(c.Events.Workers, c.Events.QueueSize)
	d, err := internal.NewDeps(context.Background(), c, conn, bus)
	require.NoError(t, err)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		bus.Drain(ctx)
	})

	return &testAPI{API: NewRouter(c, d), conn: conn}
}

func (a *testAPI) drain(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Bus.Drain(ctx))
}

// createUser stores a user that can log in with testPassword
func (a *testAPI) createUser(t *testing.T, username string) *model.User {
	key, err := security.GenerateKey()
	require.NoError(t, err)

	u := testutil.CreateUser(t, a.conn, username, key, 1<<20)

	hash, err := a.Argon.GenerateFromPassword(testPassword)
	require.NoError(t, err)
	require.NoError(t, a.conn.Model(u).Update("password_hash", hash).Error)

	return u
}

// login returns the auth cookie of a user
func (a *testAPI) login(t *testing.T, username string) *http.Cookie {
	form := url.Values{"username": {username}, "password": {testPassword}}
	w := a.do(t, http.MethodPost, "/api/users/login", strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.CookieName {
			return c
		}
	}

	t.Fatal("no auth cookie set")
	return nil
}

func (a *testAPI) do(t *testing.T, method, path string, body io.Reader, contentType string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) form(t *testing.T, method, path string, values url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	return a.do(t, method, path, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded", cookie)
}

func (a *testAPI) upload(t *testing.T, cookie *http.Cookie, name, content string, fields map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}

	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return a.do(t, http.MethodPut, "/api/files", &buf, mw.FormDataContentType(), cookie)
}

func (a *testAPI) uploadID(t *testing.T, cookie *http.Cookie, name, content string, fields map[string]string) string {
	w := a.upload(t, cookie, name, content, fields)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		ID   string `json:"id"`
		Size int64  `json:"size"`
	}
	decode(t, w, &resp)
	assert.Equal(t, int64(len(content)), resp.Size)

	return resp.ID
}

func (a *testAPI) createDocument(t *testing.T, cookie *http.Cookie, title string) string {
	w := a.form(t, http.MethodPost, "/api/documents", url.Values{"title": {title}}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var doc model.Document
	decode(t, w, &doc)
	return doc.ID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

type listResponse struct {
	Files []struct {
		ID      string `json:"id"`
		Version int    `json:"version"`
		Order   int    `json:"order"`
	} `json:"files"`
}

func TestHeartbeat(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodHead, "/api/heartbeat", nil, "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestLogin(t *testing.T) {
	a := newTestAPI(t)
	u := a.createUser(t, "alice")

	w := a.form(t, http.MethodPost, "/api/users/login", url.Values{"username": {"alice"}, "password": {"wrong-password"}}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cookie := a.login(t, "alice")

	w = a.do(t, http.MethodGet, "/api/validate", nil, "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), u.ID)

	w = a.do(t, http.MethodGet, "/api/validate", nil, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUploadListData(t *testing.T) {
	a := newTestAPI(t)
	a.createUser(t, "alice")
	cookie := a.login(t, "alice")

	docID := a.createDocument(t, cookie, "Tax return 2024")
	fileID := a.uploadID(t, cookie, "notes.txt", "hello world", map[string]string{"id": docID})

	w := a.do(t, http.MethodGet, "/api/files?id="+docID, nil, "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var list listResponse
	decode(t, w, &list)
	require.Len(t, list.Files, 1)
	assert.Equal(t, fileID, list.Files[0].ID)

	w = a.do(t, http.MethodGet, "/api/files/"+fileID+"/data", nil, "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello world", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "notes.txt")

	w = a.do(t, http.MethodGet, "/api/files/"+fileID+"/data?size=huge", nil, "", cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodGet, "/api/files/zip?id="+docID, nil, "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/zip", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Tax_return_2024.zip")

	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 1)

	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))

	a.drain(t)

	w = a.do(t, http.MethodGet, "/api/users", nil, "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var stats model.Stats
	decode(t, w, &stats)
	assert.Equal(t, int64(len("hello world")), stats.UsedStorage)
}

func TestDataFilenameHeader(t *testing.T) {
	a := newTestAPI(t)
	a.createUser(t, "alice")
	cookie := a.login(t, "alice")

	name := `my "draft"; x=1.txt`
	fileID := a.uploadID(t, cookie, name, "hello", nil)

	w := a.do(t, http.MethodGet, "/api/files/"+fileID+"/data", nil, "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	kind, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "inline", kind)
	assert.Equal(t, name, params["filename"])
	assert.NotContains(t, params, "x")

	for _, name := range []string{"plain.pdf", `back\slash.txt`, "résumé.pdf"} {
		kind, params, err := mime.ParseMediaType(disposition("attachment", name))
		require.NoError(t, err, name)
		assert.Equal(t, "attachment", kind)
		assert.Equal(t, name, params["filename"])
	}
}

func TestUploadValidation(t *testing.T) {
	a := newTestAPI(t)
	a.createUser(t, "alice")
	cookie := a.login(t, "alice")

	w := a.upload(t, cookie, "notes.txt", "hello", map[string]string{"id": "missing-document"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.upload(t, cookie, "notes.txt", "hello", map[string]string{"previousFileId": "missing-file"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.upload(t, nil, "notes.txt", "hello", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOrphanAccess(t *testing.T) {
	a := newTestAPI(t)
	a.createUser(t, "alice")
	a.createUser(t, "bob")
	alice := a.login(t, "alice")
	bob := a.login(t, "bob")

	fileID := a.uploadID(t, alice, "scan.txt", "orphan", nil)

	w := a.do(t, http.MethodGet, "/api/files/"+fileID, nil, "", alice)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodGet, "/api/files/"+fileID, nil, "", bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, http.MethodGet, "/api/files/"+fileID+"/data", nil, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(t, http.MethodGet, "/api/files", nil, "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(t, http.MethodGet, "/api/files", nil, "", alice)
	require.Equal(t, http.StatusOK, w.Code)

	var list listResponse
	decode(t, w, &list)
	require.Len(t, list.Files, 1)
	assert.Equal(t, fileID, list.Files[0].ID)

	w = a.do(t, http.MethodGet, "/api/files", nil, "", bob)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	assert.Empty(t, list.Files)
}

func TestAttachOrphan(t *testing.T) {
	a := newTestAPI(t)
	a.createUser(t, "alice")
	cookie := a.login(t, "alice")

	docID := a.createDocument(t, cookie, "Receipts")
	fileID := a.uploadID(t, cookie, "receipt.txt", "total 12.50", nil)

	w := a.form(t, http.MethodPost, "/api/files/"+fileID+"/attach", url.Values{"id": {docID}}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.form(t, http.MethodPost, "/api/files/"+fileID+"/attach", url.Values{"id": {docID}}, cookie)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(t, http.MethodGet, "/api/files?id="+docID, nil, "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var list listResponse
	decode(t, w, &list)
	require.Len(t, list.Files, 1)
	assert.Equal(t, fileID, list.Files[0].ID)
}

func TestUploadVersion(t *testing.T) {
	a := newTestAPI(t)
	a.createUser(t, "alice")
	cookie := a.login(t, "alice")

	docID := a.createDocument(t, cookie, "Contract")
	first := a.uploadID(t, cookie, "contract.txt", "draft", map[string]string{"id": docID})
	second := a.uploadID(t, cookie, "contract.txt", "final", map[string]string{"previousFileId": first})

	w := a.do(t, http.MethodGet, "/api/files?id="+docID, nil, "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var list listResponse
	decode(t, w, &list)
	require.Len(t, list.Files, 1)
	assert.Equal(t, second, list.Files[0].ID)
	assert.Equal(t, 1, list.Files[0].Version)

	w = a.do(t, http.MethodGet, "/api/files/"+first+"/versions", nil, "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var versions struct {
		Versions []struct {
			ID string `json:"id"`
		} `json:"versions"`
	}
	decode(t, w, &versions)
	require.Len(t, versions.Versions, 2)
	assert.Equal(t, second, versions.Versions[0].ID)
}

func TestRenameFile(t *testing.T) {
	a := newTestAPI(t)
	a.createUser(t, "alice")
	cookie := a.login(t, "alice")

	fileID := a.uploadID(t, cookie, "a.txt", "content", nil)

	w := a.form(t, http.MethodPost, "/api/files/"+fileID, url.Values{"name": {"  renamed.txt "}}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"name":"renamed.txt"`)

	w = a.form(t, http.MethodPost, "/api/files/"+fileID, url.Values{"name": {strings.Repeat("x", 201)}}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReorder(t *testing.T) {
	a := newTestAPI(t)
	a.createUser(t, "alice")
	cookie := a.login(t, "alice")

	docID := a.createDocument(t, cookie, "Scans")
	first := a.uploadID(t, cookie, "1.txt", "one", map[string]string{"id": docID})
	second := a.uploadID(t, cookie, "2.txt", "two", map[string]string{"id": docID})

	w := a.form(t, http.MethodPost, "/api/files/reorder", url.Values{"id": {docID}, "order": {second, first}}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/api/files?id="+docID, nil, "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	var list listResponse
	decode(t, w, &list)
	require.Len(t, list.Files, 2)
	assert.Equal(t, second, list.Files[0].ID)
	assert.Equal(t, first, list.Files[1].ID)
}

func TestZipList(t *testing.T) {
	a := newTestAPI(t)
	a.createUser(t, "alice")
	a.createUser(t, "bob")
	alice := a.login(t, "alice")
	bob := a.login(t, "bob")

	one := a.uploadID(t, alice, "1.txt", "one", nil)
	two := a.uploadID(t, alice, "2.txt", "two", nil)

	w := a.form(t, http.MethodPost, "/api/files/zip", url.Values{"files": {two, one}}, alice)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "files.zip")

	zr, err := zip.NewReader(bytes.NewReader(w.Body.Bytes()), int64(w.Body.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "0-2.txt", zr.File[0].Name)
	assert.Equal(t, "1-1.txt", zr.File[1].Name)

	w = a.form(t, http.MethodPost, "/api/files/zip", url.Values{"files": {one}}, bob)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.form(t, http.MethodPost, "/api/files/zip", url.Values{}, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteFile(t *testing.T) {
	a := newTestAPI(t)
	u := a.createUser(t, "alice")
	cookie := a.login(t, "alice")

	fileID := a.uploadID(t, cookie, "gone.txt", "bye", nil)
	a.drain(t)

	w := a.do(t, http.MethodDelete, "/api/files/"+fileID, nil, "", cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(t, http.MethodGet, "/api/files/"+fileID, nil, "", cookie)
	assert.Equal(t, http.StatusNotFound, w.Code)

	a.drain(t)

	stats, err := a.Repo.Stats.Get(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.UsedStorage)
}

func TestTags(t *testing.T) {
	a := newTestAPI(t)
	a.createUser(t, "alice")
	cookie := a.login(t, "alice")

	w := a.form(t, http.MethodPost, "/api/tags", url.Values{"name": {"Invoice"}}, cookie)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var tag model.Tag
	decode(t, w, &tag)
	assert.Equal(t, "#3a87ad", tag.Color)

	w = a.form(t, http.MethodPost, "/api/tags", url.Values{"name": {"invoice"}}, cookie)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), tag.ID)

	w = a.form(t, http.MethodPost, "/api/tags", url.Values{"name": {"two words"}}, cookie)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(t, http.MethodDelete, "/api/tags/"+tag.ID, nil, "", cookie)
	require.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodGet, "/api/tags", nil, "", cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), tag.ID)
}

func TestNewCacheStore(t *testing.T) {
	assert.IsType(t, &persist.MemoryStore{}, newCacheStore(&config.Cache{}))
	assert.IsType(t, &persist.RedisStore{}, newCacheStore(&config.Cache{RedisAddr: "localhost:6379"}))
}

func TestFormatsCached(t *testing.T) {
	a := newTestAPI(t)

	w := a.do(t, http.MethodGet, "/api/formats", nil, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "application/pdf")

	again := a.do(t, http.MethodGet, "/api/formats", nil, "", nil)
	require.Equal(t, http.StatusOK, again.Code)
	assert.Equal(t, w.Body.String(), again.Body.String())
}
