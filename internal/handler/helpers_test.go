package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/gadget-registry/internal/credential"
	"github.com/msomdec/gadget-registry/internal/domain"
	"github.com/msomdec/gadget-registry/internal/handler"
	"github.com/msomdec/gadget-registry/internal/logging"
	"github.com/msomdec/gadget-registry/internal/repository/sqlite"
	"github.com/msomdec/gadget-registry/internal/service"
)

const testJWTSecret = "test-secret-for-handler-tests-32b"

// countingGadgets records every repository call so tests can assert that a
// request never reached storage.
type countingGadgets struct {
	domain.GadgetRepository
	calls atomic.Int64
}

func (c *countingGadgets) Create(ctx context.Context, g *domain.Gadget) error {
	c.calls.Add(1)
	return c.GadgetRepository.Create(ctx, g)
}

func (c *countingGadgets) GetByID(ctx context.Context, id uuid.UUID) (*domain.Gadget, error) {
	c.calls.Add(1)
	return c.GadgetRepository.GetByID(ctx, id)
}

func (c *countingGadgets) List(ctx context.Context, s *domain.GadgetStatus) ([]domain.Gadget, error) {
	c.calls.Add(1)
	return c.GadgetRepository.List(ctx, s)
}

func (c *countingGadgets) Update(ctx context.Context, g *domain.Gadget) error {
	c.calls.Add(1)
	return c.GadgetRepository.Update(ctx, g)
}

func (c *countingGadgets) Decommission(ctx context.Context, id uuid.UUID, at time.Time) (*domain.Gadget, error) {
	c.calls.Add(1)
	return c.GadgetRepository.Decommission(ctx, id, at)
}

type testEnv struct {
	srv     *httptest.Server
	client  *http.Client
	creds   *credential.Service
	gadgets *countingGadgets
	db      *sqlite.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"), logging.Discard())
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { db.Close() })

	creds := credential.New(testJWTSecret, 24*time.Hour, 4)
	gadgets := &countingGadgets{GadgetRepository: db.Gadgets()}

	router := handler.NewRouter(handler.Deps{
		Auth:    service.NewAuthService(db.Users(), creds),
		Gadgets: service.NewGadgetService(gadgets),
		Tokens:  creds,
		DB:      db,
		Logger:  logging.Discard(),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		srv:     srv,
		client:  &http.Client{Jar: jar},
		creds:   creds,
		gadgets: gadgets,
		db:      db,
	}
}

// apiResponse mirrors the response envelope with raw payloads.
type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, apiResponse) {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, r)
	require.NoError(t, err)
	if r != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out apiResponse
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out), "body: %s", raw)
	}
	return resp, out
}

func (e *testEnv) signIn(t *testing.T, email, password string) {
	t.Helper()
	resp, _ := e.do(t, http.MethodPost, "/api/auth/register", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp, _ = e.do(t, http.MethodPost, "/api/auth/signin", map[string]string{"email": email, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), "payload: %s", raw)
	return v
}
