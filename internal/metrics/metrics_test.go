package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/recipes/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/recipes/{id}", "418"))

	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recipes/"+id, nil))
		require.Equal(t, http.StatusTeapot, rec.Code)
	}

	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/recipes/{id}", "418"))
	assert.Equal(t, 3.0, after-before)
	assert.Equal(t, 0.0, testutil.ToFloat64(httpRequestsInFlight))
}

func TestMiddleware_ImplicitOK(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/health", "200"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/health", "200"))

	assert.Equal(t, 1.0, after-before)
}

func TestRoutePattern_Unmatched(t *testing.T) {
	assert.Equal(t, "unmatched", RoutePattern(httptest.NewRequest(http.MethodGet, "/nope", nil)))
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(attributesCreated.WithLabelValues("tag"))
	AttributeCreated("tag")
	AttributeCreated("tag")
	assert.Equal(t, 2.0, testutil.ToFloat64(attributesCreated.WithLabelValues("tag"))-before)

	before = testutil.ToFloat64(recipesCreated)
	RecipeCreated()
	assert.Equal(t, 1.0, testutil.ToFloat64(recipesCreated)-before)
}

func TestHandler_ExposesMetrics(t *testing.T) {
	RecipeCreated()

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "recipebox_recipes_created_total"))
}
