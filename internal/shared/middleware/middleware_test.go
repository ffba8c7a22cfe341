package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pixelmuse/server/internal/shared/logger"
	"github.com/pixelmuse/server/internal/shared/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger(buf *bytes.Buffer) *logger.Logger {
	return logger.New(&logger.Config{Level: "debug", Format: "json", Output: buf})
}

func TestRequestID(t *testing.T) {
	t.Run("generates new request ID when not provided", func(t *testing.T) {
		router := gin.New()
		router.Use(RequestID(nil))
		router.GET("/test", func(c *gin.Context) {
			c.String(http.StatusOK, c.GetString(RequestIDKey))
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		headerID := w.Header().Get(RequestIDHeader)
		assert.NotEmpty(t, headerID)
		assert.Equal(t, headerID, w.Body.String())
	})

	t.Run("uses existing request ID and scopes the logger", func(t *testing.T) {
		buf := &bytes.Buffer{}
		router := gin.New()
		router.Use(RequestID(testLogger(buf)))
		router.GET("/test", func(c *gin.Context) {
			logger.FromContext(c.Request.Context(), nil).Info("inside")
			c.Status(http.StatusNoContent)
		})

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(RequestIDHeader, "req-123")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
		assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	})
}

func TestLogging(t *testing.T) {
	buf := &bytes.Buffer{}
	router := gin.New()
	router.Use(RequestID(nil), Logging(testLogger(buf)))
	router.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Contains(t, buf.String(), `"level":"WARN"`)
	assert.Contains(t, buf.String(), `"status":404`)
}

func TestRecovery(t *testing.T) {
	buf := &bytes.Buffer{}
	router := gin.New()
	router.Use(Recovery(testLogger(buf)))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Contains(t, buf.String(), "panic recovered")
}

func TestRecoveryLogsRequestID(t *testing.T) {
	buf := &bytes.Buffer{}
	log := testLogger(buf)
	router := gin.New()
	router.Use(Recovery(log), RequestID(log))
	router.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req.Header.Set(RequestIDHeader, "req-456")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, buf.String(), `"request_id":"req-456"`)
}

func TestLoggingUsesRequestLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	log := testLogger(buf)
	router := gin.New()
	router.Use(RequestID(log), Logging(log))
	router.GET("/ok", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-789")
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Contains(t, buf.String(), `"request_id":"req-789"`)
	assert.Contains(t, buf.String(), `"status":200`)
}

func TestMetrics(t *testing.T) {
	m := metrics.New("test", prometheus.NewRegistry())
	router := gin.New()
	router.Use(Metrics(m))
	router.GET("/users/:id", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/42", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/users/:id", "200")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.HTTPRequestsInFlight))
}

func TestSharedSecret(t *testing.T) {
	newRouter := func(secret string, enforce bool) *gin.Engine {
		router := gin.New()
		router.GET("/cron", SharedSecret(secret, enforce), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		return router
	}

	tests := []struct {
		name    string
		secret  string
		enforce bool
		header  string
		want    int
	}{
		{"enforced with valid token", "s3cr3t", true, "Bearer s3cr3t", http.StatusOK},
		{"enforced with lowercase scheme", "s3cr3t", true, "bearer s3cr3t", http.StatusOK},
		{"enforced with wrong token", "s3cr3t", true, "Bearer nope", http.StatusUnauthorized},
		{"enforced without header", "s3cr3t", true, "", http.StatusUnauthorized},
		{"enforced with raw secret", "s3cr3t", true, "s3cr3t", http.StatusUnauthorized},
		{"not enforced", "s3cr3t", false, "", http.StatusOK},
		{"enforced but no secret configured", "", true, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/cron", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			newRouter(tt.secret, tt.enforce).ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestCORS(t *testing.T) {
	router := gin.New()
	router.Use(CORS([]string{"https://app.example.com"}))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
