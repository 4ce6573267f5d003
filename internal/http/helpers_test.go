package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"storekeep/internal/config"
	"storekeep/internal/http/handlers"
	applog "storekeep/internal/log"
	"storekeep/internal/repos"
)

const (
	adminEmail    = "admin@storekeep.test"
	adminPassword = "Adm1n-Passw0rd"
)

type testApp struct {
	t     *testing.T
	app   *fiber.App
	deps  *handlers.Deps
	media string
}

type options struct {
	images    bool
	maxUpload int
}

func newApp(t *testing.T) *testApp {
	return newAppWith(t, options{images: true, maxUpload: 1 << 20})
}

func newAppWith(t *testing.T, o options) *testApp {
	t.Helper()
	db, err := repos.OpenDB(repos.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	media := t.TempDir()
	cfg := config.Config{
		MediaDir:       media,
		ImagesEnabled:  o.images,
		MaxUploadBytes: o.maxUpload,
		JWTSecret:      "handler-test-secret",
		TokenTTL:       time.Hour,
	}
	deps := handlers.NewDeps(db, cfg)
	require.NoError(t, deps.AuthSvc.SeedAdmin(context.Background(), adminEmail, adminPassword))

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    cfg.MaxUploadBytes + 1<<20,
	})
	app.Use(handlers.AccessLog())
	handlers.Register(app, deps)
	return &testApp{t: t, app: app, deps: deps, media: media}
}

type response struct {
	Status int
	Body   []byte
}

func (r response) json(t *testing.T, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(r.Body, out), string(r.Body))
}

func (r response) object(t *testing.T) map[string]any {
	t.Helper()
	var m map[string]any
	r.json(t, &m)
	return m
}

func (a *testApp) do(req *http.Request, token string) response {
	a.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(a.t, err)
	return response{Status: resp.StatusCode, Body: body}
}

func (a *testApp) call(method, path, token string, body any) response {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return a.do(req, token)
}

func (a *testApp) multipart(method, path, token string, fields map[string]string, filename string, file []byte) response {
	a.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(a.t, w.WriteField(k, v))
	}
	if filename != "" {
		fw, err := w.CreateFormFile("image", filename)
		require.NoError(a.t, err)
		_, err = fw.Write(file)
		require.NoError(a.t, err)
	}
	require.NoError(a.t, w.Close())
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return a.do(req, token)
}

func (a *testApp) adminToken() string {
	a.t.Helper()
	res := a.call(http.MethodPost, "/api/v1/admin/login", "", map[string]string{"email": adminEmail, "password": adminPassword})
	require.Equal(a.t, http.StatusOK, res.Status, string(res.Body))
	return res.object(a.t)["token"].(string)
}

var ownerSeq int

// owner registers a fresh owner through the admin API and logs it in.
func (a *testApp) owner() (id, token string) {
	a.t.Helper()
	ownerSeq++
	email := fmt.Sprintf("owner%d@storekeep.test", ownerSeq)
	res := a.call(http.MethodPost, "/api/v1/admin/owners", a.adminToken(), map[string]string{
		"first_name": "Owner", "last_name": "Test", "email": email,
	})
	require.Equal(a.t, http.StatusCreated, res.Status, string(res.Body))
	var reg struct {
		Owner    struct{ ID string } `json:"owner"`
		Password string              `json:"password"`
	}
	res.json(a.t, &reg)

	login := a.call(http.MethodPost, "/api/v1/owners/login", "", map[string]string{"email": email, "password": reg.Password})
	require.Equal(a.t, http.StatusOK, login.Status, string(login.Body))
	return reg.Owner.ID, login.object(a.t)["token"].(string)
}

func (a *testApp) create(path, token string, body any) string {
	a.t.Helper()
	res := a.call(http.MethodPost, path, token, body)
	require.Equal(a.t, http.StatusCreated, res.Status, string(res.Body))
	return res.object(a.t)["id"].(string)
}

// product creates a store, category and product for the owner behind token.
func (a *testApp) product(token string, stock int, price string) (storeID, categoryID, productID string) {
	a.t.Helper()
	storeID = a.create("/api/v1/stores", token, map[string]any{"store_name": "Shop", "location": "Main st"})
	categoryID = a.create("/api/v1/categories", token, map[string]any{"store_id": storeID, "category_name": "Games"})
	productID = a.create("/api/v1/products", token, map[string]any{
		"category_id": categoryID, "product_name": "Cartridge", "stock_level": stock, "price": price,
	})
	return storeID, categoryID, productID
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	UserID string         `json:"user_id"`
	Err    string         `json:"err"`
	Status int            `json:"status"`
	Fields map[string]any `json:"fields"`
}

type lockedWriter struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (w *lockedWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.Write(p)
}

// captureLogs redirects the action log while fn runs and returns the parsed
// entries. Every line written must be JSON.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	w := &lockedWriter{}
	prev := applog.Writer()
	applog.SetOutput(w)
	defer applog.SetOutput(prev)

	fn()

	var entries []logEntry
	for _, line := range strings.Split(strings.TrimSpace(w.buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e logEntry
		require.NoError(t, json.Unmarshal([]byte(line), &e), "log line is not JSON: %s", line)
		entries = append(entries, e)
	}
	return entries
}

func findLog(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}

func readAll(t *testing.T, resp *http.Response) []byte {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return b
}
