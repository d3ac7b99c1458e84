package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func newTestRouter(t *testing.T, ready map[string]ReadyFunc) http.Handler {
	t.Helper()
	rpc := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(r.URL.Path))
	})
	return NewRouter(Options{
		RPCPath:    "/flowfund.v1.CampaignService/",
		RPCHandler: rpc,
		Ready:      ready,
		Logger:     zaptest.NewLogger(t),
	})
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRouter_Health(t *testing.T) {
	rec := serve(newTestRouter(t, nil), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"service":"flowfund"`)
}

func TestRouter_Ready(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("connection refused") }

	rec := serve(newTestRouter(t, map[string]ReadyFunc{"ledger": ok}), http.MethodGet, "/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(newTestRouter(t, map[string]ReadyFunc{"ledger": ok, "redis": down}), http.MethodGet, "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"error","message":"redis unavailable"}`, rec.Body.String())
}

func TestRouter_RPCMount(t *testing.T) {
	rec := serve(newTestRouter(t, nil), http.MethodPost, "/flowfund.v1.CampaignService/ListCampaigns")
	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "/flowfund.v1.CampaignService/ListCampaigns", rec.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	rec := serve(newTestRouter(t, nil), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
