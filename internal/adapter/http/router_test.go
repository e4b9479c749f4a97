package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aq2208/gorder-seed/internal/adapter/http/middleware"
	"github.com/aq2208/gorder-seed/internal/security"
	"github.com/aq2208/gorder-seed/internal/usecase"
)

const (
	testSecret   = "test-secret"
	testIssuer   = "order-seed"
	testAudience = "seed-operators"
)

type fakeRunner struct {
	mu  sync.Mutex
	got []usecase.Params
	rep usecase.RunReport
	err error
}

func (f *fakeRunner) Execute(_ context.Context, p usecase.Params) (usecase.RunReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, p)
	return f.rep, f.err
}

type fakeStats struct{ err error }

func (f fakeStats) Stats(context.Context) ([]usecase.TableStat, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []usecase.TableStat{{Table: usecase.TableCustomers, Rows: 3}}, nil
}

type fakeHistory struct {
	msg usecase.RunCompletedMsg
	err error
}

func (f fakeHistory) Last(context.Context) (usecase.RunCompletedMsg, error) { return f.msg, f.err }

var defaults = usecase.Params{Customers: 300, Products: 500, Orders: 2500, MaxItemsPerOrder: 7, Days: 30}

func newTestRouter(t *testing.T, runner *fakeRunner, stats StatsReader, hist usecase.RunHistory) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := security.NewRegistry(
		security.Client{ID: "ops", Secret: "ops-secret", Perms: []string{security.PermSeedRead, security.PermSeedWrite}, Enabled: true},
		security.Client{ID: "viewer", Secret: "viewer-secret", Perms: []string{security.PermSeedRead}, Enabled: true},
	)
	th := NewTokenHandler(reg, TokenConfig{Secret: testSecret, Issuer: testIssuer, Audience: testAudience, TTL: 30 * time.Minute})
	h := NewSeedHandler(runner, stats, defaults, time.Minute)
	if hist != nil {
		h.WithHistory(hist)
	}
	authz := middleware.NewAuthz(testSecret, testIssuer, testAudience)
	return NewRouter(h, th, authz, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func token(t *testing.T, r *gin.Engine, id, secret string) string {
	t.Helper()
	form := url.Values{"client_id": {id}, "client_secret": {secret}}
	req := httptest.NewRequest(http.MethodPost, "/v1/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 1800, resp.ExpiresIn)
	return resp.AccessToken
}

func do(r *gin.Engine, method, path, tok, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t, &fakeRunner{}, fakeStats{}, nil)
	w := do(r, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestToken_RejectsBadClient(t *testing.T) {
	r := newTestRouter(t, &fakeRunner{}, fakeStats{}, nil)
	w := do(r, http.MethodPost, "/v1/token", "", `{"client_id":"ops","client_secret":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(r, http.MethodPost, "/v1/token", "", `{"client_id":"viewer","client_secret":"viewer-secret","scope":"seed.write"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRun(t *testing.T) {
	runner := &fakeRunner{rep: usecase.RunReport{RunID: "run-1"}}
	r := newTestRouter(t, runner, fakeStats{}, nil)
	tok := token(t, r, "ops", "ops-secret")

	w := do(r, http.MethodPost, "/v1/runs", tok, `{"orders":40,"days":3,"seed":7}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"run_id":"run-1"`)

	w = do(r, http.MethodPost, "/v1/runs", tok, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	require.Len(t, runner.got, 2)
	assert.Equal(t, 40, runner.got[0].Orders)
	assert.Equal(t, 300, runner.got[0].Customers)
	assert.Equal(t, 3, runner.got[0].Days)
	assert.Equal(t, uint64(7), runner.got[0].Seed)
	assert.Equal(t, defaults, runner.got[1])
}

func TestCreateRun_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"locked", usecase.ErrRunInProgress, http.StatusConflict},
		{"no products", usecase.ErrNoProducts, http.StatusUnprocessableEntity},
		{"store down", errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, &fakeRunner{err: tt.err}, fakeStats{}, nil)
			tok := token(t, r, "ops", "ops-secret")
			w := do(r, http.MethodPost, "/v1/runs", tok, `{}`)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCreateRun_Validation(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRouter(t, runner, fakeStats{}, nil)
	tok := token(t, r, "ops", "ops-secret")

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/v1/runs", tok, `{"orders":-1}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/v1/runs", tok, `{"start_date":"tomorrow"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodPost, "/v1/runs", tok, `{"orders":`).Code)
	assert.Empty(t, runner.got)
}

func TestAuthz(t *testing.T) {
	runner := &fakeRunner{}
	r := newTestRouter(t, runner, fakeStats{}, nil)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/v1/stats", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/v1/stats", "garbage", "").Code)

	viewer := token(t, r, "viewer", "viewer-secret")
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/v1/runs", viewer, `{}`).Code)
	assert.Empty(t, runner.got)

	w := do(r, http.MethodGet, "/v1/stats", viewer, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"table":"customers"`)
}

func TestAuthz_WrongAudience(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := security.NewRegistry(security.Client{ID: "ops", Secret: "s", Perms: []string{security.PermSeedRead}, Enabled: true})
	other := NewTokenHandler(reg, TokenConfig{Secret: testSecret, Issuer: testIssuer, Audience: "someone-else", TTL: time.Minute})
	r := NewRouter(NewSeedHandler(&fakeRunner{}, fakeStats{}, defaults, 0), other,
		middleware.NewAuthz(testSecret, testIssuer, testAudience), slog.New(slog.NewTextHandler(io.Discard, nil)))

	form := url.Values{"client_id": {"ops"}, "client_secret": {"s"}}
	req := httptest.NewRequest(http.MethodPost, "/v1/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/v1/stats", resp.AccessToken, "").Code)
}

func TestStats_Error(t *testing.T) {
	r := newTestRouter(t, &fakeRunner{}, fakeStats{err: errors.New("db down")}, nil)
	tok := token(t, r, "viewer", "viewer-secret")
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodGet, "/v1/stats", tok, "").Code)
}

func TestLastRun(t *testing.T) {
	r := newTestRouter(t, &fakeRunner{}, fakeStats{}, nil)
	tok := token(t, r, "viewer", "viewer-secret")
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/v1/runs/last", tok, "").Code)

	r = newTestRouter(t, &fakeRunner{}, fakeStats{}, fakeHistory{err: usecase.ErrNoRunRecorded})
	tok = token(t, r, "viewer", "viewer-secret")
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/v1/runs/last", tok, "").Code)

	r = newTestRouter(t, &fakeRunner{}, fakeStats{}, fakeHistory{msg: usecase.RunCompletedMsg{RunID: "r9", Orders: 5}})
	tok = token(t, r, "viewer", "viewer-secret")
	w := do(r, http.MethodGet, "/v1/runs/last", tok, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"runId":"r9"`)
}
