package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_RecordsRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/users/{user_id}/profile", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/users/{user_id}/profile", "404"))

	req := httptest.NewRequest(http.MethodGet, "/users/u-1/profile", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/users/{user_id}/profile", "404"))
	assert.Equal(t, before+1, after)
	assert.NotZero(t, testutil.CollectAndCount(httpRequestDuration))
}

func TestStatusWriter_FirstStatusWins(t *testing.T) {
	rr := httptest.NewRecorder()
	w := NewStatusWriter(rr)

	_, _ = w.Write([]byte("ok"))
	w.WriteHeader(http.StatusTeapot)

	assert.Equal(t, http.StatusOK, w.Status())
}

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)
	Register(reg)

	EmbeddingRequestsTotal.WithLabelValues("url", "ok").Inc()
	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["aura_embedding_requests_total"])
}
