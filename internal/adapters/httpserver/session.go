package httpserver

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/phenrril/prostore/internal/domain"
)

const (
	sessionCookie     = "sess"
	sessionCartCookie = "sessionCartId"
	sessionTTL        = 30 * 24 * time.Hour
)

// sessionUser is the payload of the signed session cookie.
type sessionUser struct {
	ID    uuid.UUID   `json:"id"`
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
}

func (u *sessionUser) identity() *domain.Identity {
	return &domain.Identity{UserID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func newSessionUser(u *domain.User) *sessionUser {
	return &sessionUser{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// signer signs cookie payloads with HMAC-SHA256: base64(sig) "." base64(payload).
type signer struct{ key []byte }

func (s signer) sign(payload []byte) string {
	h := hmac.New(sha256.New, s.key)
	h.Write(payload)
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)) + "." + base64.RawURLEncoding.EncodeToString(payload)
}

func (s signer) verify(value string) ([]byte, bool) {
	parts := strings.SplitN(value, ".", 2)
	if len(parts) != 2 {
		return nil, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, false
	}
	h := hmac.New(sha256.New, s.key)
	h.Write(payload)
	if !hmac.Equal(sig, h.Sum(nil)) {
		return nil, false
	}
	return payload, true
}

func (s *Server) writeUserSession(w http.ResponseWriter, u *sessionUser) {
	if u == nil {
		http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: s.secure, SameSite: http.SameSiteLaxMode})
		return
	}
	b, _ := json.Marshal(u)
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: s.cookies.sign(b), Path: "/", MaxAge: int(sessionTTL.Seconds()), HttpOnly: true, Secure: s.secure, SameSite: http.SameSiteLaxMode})
}

func (s *Server) readUserSession(r *http.Request) *sessionUser {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return nil
	}
	payload, ok := s.cookies.verify(c.Value)
	if !ok {
		return nil
	}
	var u sessionUser
	if err := json.Unmarshal(payload, &u); err != nil || u.ID == uuid.Nil {
		return nil
	}
	return &u
}

// tokenClaims are carried by the bearer tokens handed to API clients.
type tokenClaims struct {
	Name  string      `json:"name"`
	Email string      `json:"email"`
	Role  domain.Role `json:"role"`
	jwt.RegisteredClaims
}

const tokenIssuer = "prostore"

func (s *Server) issueToken(u *sessionUser, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(ttl)
	claims := tokenClaims{
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	return tok, exp, err
}

func (s *Server) verifyToken(raw string) (*sessionUser, error) {
	var claims tokenClaims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !tok.Valid {
		return nil, domain.ErrUnauthenticated
	}
	if !claims.VerifyIssuer(tokenIssuer, true) {
		return nil, domain.ErrUnauthenticated
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, domain.ErrUnauthenticated
	}
	return &sessionUser{ID: id, Name: claims.Name, Email: claims.Email, Role: claims.Role}, nil
}

type ctxKey int

const (
	ctxIdentity ctxKey = iota
	ctxSessionCart
	ctxRequestID
)

// IdentityFrom returns the authenticated caller, or nil for anonymous requests.
func IdentityFrom(ctx context.Context) *domain.Identity {
	id, _ := ctx.Value(ctxIdentity).(*domain.Identity)
	return id
}

func SessionCartFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxSessionCart).(string)
	return v
}

func RequestIDFrom(ctx context.Context) string {
	v, _ := ctx.Value(ctxRequestID).(string)
	return v
}

// cartOwner identifies the cart of r: the user's when signed in, the session cart otherwise.
func cartOwner(r *http.Request) domain.CartOwner {
	owner := domain.CartOwner{SessionCartID: SessionCartFrom(r.Context())}
	if id := IdentityFrom(r.Context()); id != nil {
		uid := id.UserID
		owner.UserID = &uid
	}
	return owner
}
