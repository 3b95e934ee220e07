package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordExchange(t *testing.T) {
	m := New()
	m.RecordExchange("accept", nil)
	m.RecordExchange("accept", errors.New("conflict"))
	m.RecordExchange("accept", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.exchanges.WithLabelValues("accept", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.exchanges.WithLabelValues("accept", "error")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.RecordExchange("redeem", nil) })
}

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/metrics", gin.WrapH(m.Handler()))

	for _, id := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/items/"+id, nil))
	}
	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/items/:id", "200")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rewear_http_requests_total")
}
