package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/service"
	"storefront/pkg/constraints"

	"github.com/gin-gonic/gin"
)

func TestHttpMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(HttpMiddleware())
	r.GET("/test", func(c *gin.Context) {
		c.Status(200)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	r.ServeHTTP(w, req)

	if w.Code != 200 {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestRequestIDAndTrace(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), TraceMiddleware())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(RequestIDKey))
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set(constraints.HeaderRequestID, "rid-1")
	r.ServeHTTP(w, req)

	if got := w.Header().Get(constraints.HeaderRequestID); got != "rid-1" {
		t.Errorf("expected caller request id to be kept, got %q", got)
	}
	if w.Body.String() != "rid-1" {
		t.Errorf("expected request id in context, got %q", w.Body.String())
	}
	if w.Header().Get(constraints.HeaderTraceID) == "" {
		t.Error("expected a generated trace id")
	}
}

type staticParser map[string]*service.Identity

func (p staticParser) ParseAccessToken(token string) (*service.Identity, error) {
	if id, ok := p[token]; ok {
		return id, nil
	}
	return nil, service.ErrTokenInvalid
}

func TestJWTMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(JWTMiddleware(staticParser{"good": {UserID: 7, Username: "alice"}}))
	r.GET("/me", func(c *gin.Context) {
		id := service.IdentityFrom(c.Request.Context())
		c.String(http.StatusOK, id.Username)
	})

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic good", http.StatusUnauthorized},
		{"invalid", "Bearer bad", http.StatusUnauthorized},
		{"valid", "Bearer good", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequestWithContext(context.Background(), "GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set(constraints.HeaderAuthorization, tt.header)
			}
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, w.Code)
			}
			if tt.want == http.StatusOK && w.Body.String() != "alice" {
				t.Errorf("expected identity in context, got %q", w.Body.String())
			}
		})
	}
}

func TestCorsMiddleware_AllowsCredentials(t *testing.T) {
	r := gin.New()
	r.Use(CorsMiddleware([]string{"http://localhost:3000"}))
	r.POST("/auth/refresh-token", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodOptions, "/auth/refresh-token", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	r.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("expected credentials allowed, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("expected origin echoed, got %q", got)
	}
}
