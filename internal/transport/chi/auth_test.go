package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	gen "github.com/kailas-cloud/prodsearch/internal/transport/generated"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveAuth(cfg AuthConfig, method, path, authHeader string) *httptest.ResponseRecorder {
	handler := BearerAuthMiddleware(cfg)(okHandler())
	req := httptest.NewRequest(method, path, http.NoBody)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestAuthMiddleware_NoKeys_PassThrough(t *testing.T) {
	rr := serveAuth(AuthConfig{}, "GET", "/search", "")
	if rr.Code != http.StatusOK {
		t.Errorf("no keys: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_EmptyStringKeys_PassThrough(t *testing.T) {
	rr := serveAuth(AuthConfig{APIKeys: []string{"", ""}}, "DELETE", "/cache", "")
	if rr.Code != http.StatusOK {
		t.Errorf("empty string keys: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_MissingHeader_401(t *testing.T) {
	rr := serveAuth(AuthConfig{APIKeys: []string{"secret"}}, "GET", "/search", "")

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("missing header: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}

	var errResp gen.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if errResp.Code != gen.ErrorResponseCodeUnauthorized {
		t.Errorf("error code: got %s, want %s", errResp.Code, gen.ErrorResponseCodeUnauthorized)
	}
}

func TestAuthMiddleware_BasicScheme_401(t *testing.T) {
	rr := serveAuth(AuthConfig{APIKeys: []string{"secret"}}, "GET", "/search", "Basic dXNlcjpwYXNz")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("basic scheme: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_InvalidToken_401(t *testing.T) {
	rr := serveAuth(AuthConfig{APIKeys: []string{"secret"}}, "GET", "/search", "Bearer wrong-key")
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("invalid token: got %d, want %d", rr.Code, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_MultipleKeys(t *testing.T) {
	cfg := AuthConfig{APIKeys: []string{"key1", "key2"}}
	for _, key := range []string{"key1", "key2"} {
		rr := serveAuth(cfg, "GET", "/users/1/recommendations", "Bearer "+key)
		if rr.Code != http.StatusOK {
			t.Errorf("key %s: got %d, want %d", key, rr.Code, http.StatusOK)
		}
	}
}

func TestAuthMiddleware_ExemptPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		rr := serveAuth(AuthConfig{APIKeys: []string{"secret"}}, "GET", path, "")
		if rr.Code != http.StatusOK {
			t.Errorf("exempt path %s: got %d, want %d", path, rr.Code, http.StatusOK)
		}
	}
}

func TestAuthMiddleware_AdminPaths(t *testing.T) {
	cfg := AuthConfig{APIKeys: []string{"user"}, AdminKeys: []string{"admin"}}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"api key on events", "POST", "/events", "user", http.StatusForbidden},
		{"api key on cache", "DELETE", "/cache", "user", http.StatusForbidden},
		{"admin key on events", "POST", "/events", "admin", http.StatusOK},
		{"admin key on search", "GET", "/search", "admin", http.StatusOK},
		{"api key on search", "GET", "/search", "user", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serveAuth(cfg, tt.method, tt.path, "Bearer "+tt.token)
			if rr.Code != tt.want {
				t.Errorf("got %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestAuthMiddleware_AdminPathsWithoutAdminKeys(t *testing.T) {
	rr := serveAuth(AuthConfig{APIKeys: []string{"user"}}, "POST", "/events", "Bearer user")
	if rr.Code != http.StatusOK {
		t.Errorf("api key must reach admin paths when no admin keys exist: got %d", rr.Code)
	}
}
