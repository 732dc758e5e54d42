package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/storefront/catalog-api/internal/core/domain"
)

type stubVerifier struct {
	users map[string]*domain.User
	seen  string
}

func (s *stubVerifier) VerifyToken(_ context.Context, token string) (*domain.User, error) {
	s.seen = token
	if token == "" || token == "loggedout" {
		return nil, domain.ErrNoToken
	}
	u, ok := s.users[token]
	if !ok {
		return nil, domain.ErrInvalidToken
	}
	return u, nil
}

func newVerifier() *stubVerifier {
	return &stubVerifier{users: map[string]*domain.User{
		"good":   {ID: "u1", Username: "alice"},
		"cookie": {ID: "u2", Username: "bob"},
	}}
}

func run(t *testing.T, v *stubVerifier, req *http.Request) (echo.Context, bool, error) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := Protect(v, "jwt")(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	err := h(c)
	return c, called, err
}

func TestProtect_BearerHeader(t *testing.T) {
	v := newVerifier()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")

	c, called, err := run(t, v, req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next not called")
	}
	u, ok := CurrentUser(c)
	if !ok || u.ID != "u1" {
		t.Fatalf("user not set: %+v", u)
	}
}

func TestProtect_Cookie(t *testing.T) {
	v := newVerifier()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "cookie"})

	c, called, err := run(t, v, req)
	if err != nil || !called {
		t.Fatalf("expected pass, got err=%v called=%v", err, called)
	}
	if u, _ := CurrentUser(c); u.ID != "u2" {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestProtect_HeaderTakesPrecedence(t *testing.T) {
	v := newVerifier()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good")
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "cookie"})

	c, _, err := run(t, v, req)
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if v.seen != "good" {
		t.Fatalf("expected header token to be verified, got %q", v.seen)
	}
	if u, _ := CurrentUser(c); u.ID != "u1" {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestProtect_NonBearerHeaderFallsBackToCookie(t *testing.T) {
	v := newVerifier()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic Zm9vOmJhcg==")
	req.AddCookie(&http.Cookie{Name: "jwt", Value: "cookie"})

	if _, called, err := run(t, v, req); err != nil || !called {
		t.Fatalf("expected cookie fallback, got err=%v", err)
	}
}

func TestProtect_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		setup  func(*http.Request)
		target error
	}{
		{"no token", func(*http.Request) {}, domain.ErrNoToken},
		{"logged out cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: "jwt", Value: "loggedout"}) }, domain.ErrNoToken},
		{"bad token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, domain.ErrInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			tc.setup(req)

			_, called, err := run(t, newVerifier(), req)
			if called {
				t.Fatalf("next must not be called")
			}
			if !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
		})
	}
}
