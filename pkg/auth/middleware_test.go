package auth

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/sirupsen/logrus"
)

// Helper function to create a new Middleware requiring JWTs
func newTestMiddleware() *Middleware {
	config := &Config{
		AuthType:  AuthTypeJWT,
		JwtSecret: []byte("testsecret"),
	}

	testLogger := logrus.New()
	testLogger.SetOutput(&bytes.Buffer{}) // Discard output during tests
	testLogger.SetLevel(logrus.DebugLevel)

	return NewMiddleware(config, testLogger)
}

func signed(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return tokenString
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	middleware := newTestMiddleware()
	tokenString := signed(t, middleware.Config.JwtSecret, jwt.MapClaims{
		"sub": "user123",
		"exp": time.Now().Add(15 * time.Minute).Unix(),
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check if the context has the user claims
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || claims["sub"] != "user123" {
			t.Errorf("user claims not found in context")
		}
		w.WriteHeader(http.StatusOK)
	})

	middleware.AuthMiddleware(nextHandler).ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
}

func TestAuthMiddlewareCookieToken(t *testing.T) {
	middleware := newTestMiddleware()
	tokenString := signed(t, middleware.Config.JwtSecret, jwt.MapClaims{
		"sub": "user123",
		"exp": time.Now().Add(15 * time.Minute).Unix(),
	})

	req := httptest.NewRequest("GET", "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: tokenString})
	w := httptest.NewRecorder()

	called := false
	middleware.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(w, req)

	if !called {
		t.Errorf("handler should be called with a cookie token")
	}
}

func TestAuthMiddlewareRejects(t *testing.T) {
	middleware := newTestMiddleware()

	tests := map[string]string{
		"expired": "Bearer " + signed(t, middleware.Config.JwtSecret, jwt.MapClaims{
			"sub": "user123",
			"exp": time.Now().Add(-15 * time.Minute).Unix(),
		}),
		"no expiry": "Bearer " + signed(t, middleware.Config.JwtSecret, jwt.MapClaims{
			"sub": "user123",
		}),
		"wrong secret": "Bearer " + signed(t, []byte("other"), jwt.MapClaims{
			"sub": "user123",
			"exp": time.Now().Add(15 * time.Minute).Unix(),
		}),
		"garbage":      "Bearer invalidtoken",
		"no token":     "",
		"empty bearer": "Bearer ",
	}

	for name, header := range tests {
		req := httptest.NewRequest("GET", "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()

		middleware.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("%s: handler should not be called", name)
		})).ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected status 401, got %d", name, w.Code)
		}
	}
}

func TestAuthMiddlewareDisabled(t *testing.T) {
	middleware := NewMiddleware(&Config{AuthType: AuthTypeNone}, nil)

	req := httptest.NewRequest("GET", "/protected", nil)
	w := httptest.NewRecorder()

	called := false
	middleware.AuthMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})).ServeHTTP(w, req)

	if !called {
		t.Errorf("handler should be called when auth is disabled")
	}
}
