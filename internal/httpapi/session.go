package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session identifies an authenticated dashboard user and the company
// they belong to.
type Session struct {
	UserID    string
	CompanyID uuid.UUID
}

// SessionVerifier checks the caller's session credential. Issuance
// lives in the auth service; this side only verifies.
type SessionVerifier interface {
	Verify(r *http.Request) (*Session, error)
}

var errNoSession = errors.New("no session credential")

// JWTVerifier verifies HS256 session tokens from the Authorization
// header or the session cookie.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret []byte) *JWTVerifier {
	return &JWTVerifier{secret: secret}
}

func (v *JWTVerifier) Verify(r *http.Request) (*Session, error) {
	raw := tokenFromRequest(r)
	if raw == "" {
		return nil, errNoSession
	}

	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("unexpected claims type")
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, err
	}

	companyClaim, _ := claims["companyId"].(string)
	companyID, err := uuid.Parse(companyClaim)
	if err != nil {
		return nil, errors.New("session missing company")
	}

	return &Session{UserID: sub, CompanyID: companyID}, nil
}

func tokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := r.Cookie("session"); err == nil {
		return cookie.Value
	}
	return ""
}

type contextKey string

const sessionKey contextKey = "session"

// SessionFromContext returns the session stored by the auth middleware.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

func withSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}
