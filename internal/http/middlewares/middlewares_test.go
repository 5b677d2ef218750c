package middlewares_test

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/geocoder89/triple/internal/actorctx"
	"github.com/geocoder89/triple/internal/auth"
	"github.com/geocoder89/triple/internal/http/middlewares"
	"github.com/geocoder89/triple/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	verifyFn func(token string) (*auth.Claims, error)
}

func (f fakeVerifier) Verify(token string) (*auth.Claims, error) {
	return f.verifyFn(token)
}

func TestRequireAuth(t *testing.T) {
	verifier := fakeVerifier{verifyFn: func(token string) (*auth.Claims, error) {
		switch token {
		case "good":
			return &auth.Claims{UserID: "u-1", Email: "kim@example.com"}, nil
		case "old":
			return nil, auth.ErrTokenExpired
		default:
			return nil, errors.Join(auth.ErrTokenInvalid, errors.New("signature"))
		}
	}}

	prom := observability.NewProm(prometheus.NewRegistry())
	mw := middlewares.NewAuthMiddleware(verifier, prom, nil)

	r := gin.New()
	r.GET("/private", mw.RequireAuth(), func(c *gin.Context) {
		id, _ := middlewares.UserIDFromContext(c)
		email, _ := middlewares.EmailFromContext(c)
		fromCtx, _ := actorctx.UserIDFrom(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": id, "email": email, "ctx": fromCtx})
	})

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"valid", "Bearer good", http.StatusOK, `{"id":"u-1","email":"kim@example.com","ctx":"u-1"}`},
		{"lowercase_scheme", "bearer good", http.StatusOK, `{"id":"u-1","email":"kim@example.com","ctx":"u-1"}`},
		{"missing", "", http.StatusUnauthorized, `{"error":"Access token required"}`},
		{"wrong_scheme", "Basic abc", http.StatusUnauthorized, `{"error":"Access token required"}`},
		{"empty_token", "Bearer   ", http.StatusUnauthorized, `{"error":"Access token required"}`},
		{"expired", "Bearer old", http.StatusUnauthorized, `{"error":"Invalid or expired token"}`},
		{"tampered", "Bearer forged", http.StatusUnauthorized, `{"error":"Invalid or expired token"}`},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/private", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tt.wantCode, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(prom.AuthRejections.WithLabelValues("missing")))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.AuthRejections.WithLabelValues("expired")))
	assert.Equal(t, 1.0, testutil.ToFloat64(prom.AuthRejections.WithLabelValues("invalid")))
}

func TestRateLimiter_BlocksAfterBurst(t *testing.T) {
	rl := middlewares.NewRateLimiter(0.001, 2)

	r := gin.New()
	r.POST("/login", rl.RateLimiterMiddleware(middlewares.KeyByIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	hit := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, hit("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, hit("10.0.0.1").Code)

	blocked := hit("10.0.0.1")
	require.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.NotEmpty(t, blocked.Header().Get("Retry-After"))

	// buckets are per client
	assert.Equal(t, http.StatusOK, hit("10.0.0.2").Code)
}

func TestRateLimiter_KeyByUserOrIP(t *testing.T) {
	rl := middlewares.NewRateLimiter(0.001, 1)

	r := gin.New()
	r.POST("/trips",
		func(c *gin.Context) {
			if id := c.GetHeader("X-Test-User"); id != "" {
				c.Set(middlewares.CtxUserID, id)
			}
			c.Next()
		},
		rl.RateLimiterMiddleware(middlewares.KeyByUserOrIP),
		func(c *gin.Context) { c.Status(http.StatusCreated) },
	)

	hit := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/trips", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		if userID != "" {
			req.Header.Set("X-Test-User", userID)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	// same address, different users
	assert.Equal(t, http.StatusCreated, hit("u-1"))
	assert.Equal(t, http.StatusCreated, hit("u-2"))
	assert.Equal(t, http.StatusTooManyRequests, hit("u-1"))

	// anonymous callers fall back to the address
	assert.Equal(t, http.StatusCreated, hit(""))
	assert.Equal(t, http.StatusTooManyRequests, hit(""))
}

func TestRateLimiter_DisabledWithZeroRate(t *testing.T) {
	rl := middlewares.NewRateLimiter(0, 1)

	r := gin.New()
	r.GET("/", rl.RateLimiterMiddleware(middlewares.KeyByIP), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRequireJSON(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.RequireJSON())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		method, contentType string
		wantCode            int
	}{
		{http.MethodPost, "application/json", http.StatusOK},
		{http.MethodPost, "application/json; charset=utf-8", http.StatusOK},
		{http.MethodPost, "text/plain", http.StatusUnsupportedMediaType},
		{http.MethodPost, "", http.StatusUnsupportedMediaType},
		{http.MethodGet, "", http.StatusOK},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/x", bytes.NewBufferString(`{}`))
		if tt.contentType != "" {
			req.Header.Set("Content-Type", tt.contentType)
		}

		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, tt.wantCode, w.Code, "%s %q", tt.method, tt.contentType)
	}
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.CORSMiddleware([]string{"http://localhost:5173"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(middlewares.RequestID())
	r.GET("/x", func(c *gin.Context) {
		v, _ := c.Get(middlewares.CtxRequestID)
		c.String(http.StatusOK, "%v", v)
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Request-Id"))
	assert.Equal(t, "abc-123", w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Len(t, w.Header().Get("X-Request-Id"), 36)
}

func TestMaxBodyBytes(t *testing.T) {
	r := gin.New()
	r.POST("/", middlewares.MaxBodyBytes(8), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name string
		body string
		want int
	}{
		{"under the cap", `{"a":1}`, http.StatusNoContent},
		{"declared length over the cap", `{"title":"far too long"}`, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(tt.body)))

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusRequestEntityTooLarge {
				assert.JSONEq(t, `{"error":"Request body too large"}`, w.Body.String())
			}
		})
	}
}
