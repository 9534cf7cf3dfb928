package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	v1 "storefront/pkg/api/v1"
	"storefront/pkg/constraints"
	"storefront/pkg/logger"

	"github.com/stretchr/testify/require"
)

func init() {
	logger.InitLogger("test")
}

// fakeBackend accepts exactly one bearer token (valid) on protected routes and
// hands out next from the refresh endpoint.
type fakeBackend struct {
	t   *testing.T
	srv *httptest.Server

	mu        sync.Mutex
	valid     string
	next      string
	seenAuth  []string // Authorization headers of accepted protected requests
	seenPaths []string // paths of accepted protected requests, same order
	refreshAs string   // username reported by the refresh endpoint
	refreshOK bool
	rejectAll bool           // protected routes answer 401 whatever the token
	hits      map[string]int // protected route hits by path
	refreshSC int            // status for a failed refresh

	refreshGate  chan struct{} // when set, refresh blocks until closed
	refreshCalls atomic.Int32
	unauthorized atomic.Int32
	cookieSeen   atomic.Bool
}

func newFakeBackend(t *testing.T) *fakeBackend {
	b := &fakeBackend{
		t:         t,
		valid:     "T1",
		next:      "T2",
		refreshOK: true,
		refreshSC: http.StatusUnauthorized,
		hits:      make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req v1.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, v1.ErrorBody{Message: "Bad credentials"})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: constraints.RefreshCookieName, Value: "rt-1", Path: "/", HttpOnly: true})
		b.mu.Lock()
		token := b.valid
		b.mu.Unlock()
		resp := v1.TokenResponse{Token: token, Username: req.Username}
		if req.Username == "alice" {
			resp.Name = "Alice"
			resp.ImageURL = "https://img/alice.png"
			resp.Role = "customer"
		}
		writeJSON(w, http.StatusOK, resp)
	})
	mux.HandleFunc("/auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		if c, err := r.Cookie(constraints.RefreshCookieName); err == nil && c.Value != "" {
			b.cookieSeen.Store(true)
		}
		b.mu.Lock()
		gate := b.refreshGate
		b.mu.Unlock()
		if gate != nil {
			<-gate
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		if !b.refreshOK {
			writeJSON(w, b.refreshSC, v1.ErrorBody{Message: "refresh token expired"})
			return
		}
		b.valid = b.next
		writeJSON(w, http.StatusOK, v1.TokenResponse{AccessToken: b.next, Username: b.refreshAs, Name: "Alice R.", Role: "customer"})
	})
	mux.HandleFunc("/auth/change-password", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, v1.ErrorBody{Message: "old password mismatch"})
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, "Logged out")
	})
	mux.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, v1.ErrorBody{Message: "boom"})
	})
	mux.HandleFunc("/forbidden", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, v1.ErrorBody{Message: "forbidden"})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get(constraints.HeaderAuthorization)
		b.mu.Lock()
		b.hits[r.URL.Path]++
		ok := !b.rejectAll && h == constraints.BearerPrefix+b.valid
		if ok {
			b.seenAuth = append(b.seenAuth, h)
			b.seenPaths = append(b.seenPaths, r.URL.Path)
		}
		b.mu.Unlock()
		if !ok {
			b.unauthorized.Add(1)
			writeJSON(w, http.StatusUnauthorized, v1.ErrorBody{Message: "Unauthorized"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"path": r.URL.Path})
	})

	b.srv = httptest.NewServer(mux)
	t.Cleanup(b.srv.Close)
	return b
}

func (b *fakeBackend) holdRefresh() chan struct{} {
	gate := make(chan struct{})
	b.mu.Lock()
	b.refreshGate = gate
	b.mu.Unlock()
	return gate
}

func (b *fakeBackend) failRefresh(status int) {
	b.mu.Lock()
	b.refreshOK = false
	b.refreshSC = status
	b.mu.Unlock()
}

func (b *fakeBackend) hitsFor(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func (b *fakeBackend) accepted() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.seenAuth...)
}

func (b *fakeBackend) acceptedPaths() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.seenPaths...)
}

func (b *fakeBackend) gateway(opts ...GatewayOption) (*Gateway, *MemoryStore) {
	store := NewMemoryStore()
	gw, err := NewGateway(GatewayConfig{
		BaseURL:        b.srv.URL,
		RefreshTimeout: 2 * time.Second,
	}, store, opts...)
	require.NoError(b.t, err)
	return gw, store
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func bearer(token string) string {
	return constraints.BearerPrefix + token
}

func allEqual(values []string, want string) bool {
	for _, v := range values {
		if !strings.EqualFold(v, want) {
			return false
		}
	}
	return true
}
