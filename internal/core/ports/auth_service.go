package ports

import (
	"context"
	"net/http"
	"time"

	"github.com/storefront/catalog-api/internal/core/domain"
)

// Session is the result of a successful signup or login.
type Session struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

type AuthService interface {
	Signup(ctx context.Context, username, email, password string) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	// VerifyToken resolves a session token to its still-existing user.
	VerifyToken(ctx context.Context, token string) (*domain.User, error)

	SessionCookie(s *Session) *http.Cookie
	LogoutCookie() *http.Cookie
}
