package httpserver

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/phenrril/prostore/internal/domain"
	"github.com/phenrril/prostore/internal/usecase"
)

const (
	tokenTTL         = 24 * time.Hour
	googleUserInfo   = "https://www.googleapis.com/oauth2/v3/userinfo"
	oauthStateCookie = "oauth_state"
)

type authResult struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt int64        `json:"expiresAt"`
}

// startSession sets the session cookie for u and returns a bearer token for API clients.
func (s *Server) startSession(w http.ResponseWriter, u *domain.User) (*authResult, error) {
	su := newSessionUser(u)
	s.writeUserSession(w, su)
	tok, exp, err := s.issueToken(su, tokenTTL)
	if err != nil {
		return nil, err
	}
	return &authResult{User: u, Token: tok, ExpiresAt: exp.Unix()}, nil
}

func (s *Server) apiSignUp(w http.ResponseWriter, r *http.Request) {
	var in usecase.SignUpInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.users.SignUp(r.Context(), in, SessionCartFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.startSession(w, u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "User created successfully", res)
}

func (s *Server) apiSignIn(w http.ResponseWriter, r *http.Request) {
	var in usecase.SignInInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := s.users.SignIn(r.Context(), in, SessionCartFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.startSession(w, u)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "Signed in successfully", res)
}

func (s *Server) apiSignOut(w http.ResponseWriter, r *http.Request) {
	s.writeUserSession(w, nil)
	writeRedirect(w, "Signed out", "/", nil)
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		http.Error(w, "oauth not configured", http.StatusServiceUnavailable)
		return
	}
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: state, Path: "/", MaxAge: 300, HttpOnly: true, Secure: s.secure, SameSite: http.SameSiteLaxMode})
	http.Redirect(w, r, s.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOnline), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		http.Error(w, "oauth not configured", http.StatusServiceUnavailable)
		return
	}
	q := r.URL.Query()
	c, _ := r.Cookie(oauthStateCookie)
	if c == nil || c.Value == "" || c.Value != q.Get("state") {
		http.Error(w, "state", http.StatusBadRequest)
		return
	}
	tok, err := s.oauthCfg.Exchange(r.Context(), q.Get("code"))
	if err != nil {
		log.Error().Err(err).Msg("exchange oauth")
		http.Error(w, "oauth", http.StatusBadRequest)
		return
	}
	resp, err := s.oauthCfg.Client(r.Context(), tok).Get(googleUserInfo)
	if err != nil {
		log.Error().Err(err).Msg("userinfo")
		http.Error(w, "userinfo", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Error().Int("status", resp.StatusCode).Msg("userinfo")
		http.Error(w, "userinfo", http.StatusBadGateway)
		return
	}
	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err := json.Unmarshal(body, &info); err != nil || info.Email == "" {
		http.Error(w, "email", http.StatusBadRequest)
		return
	}
	u, err := s.users.SignInExternal(r.Context(), info.Email, info.Name, SessionCartFrom(r.Context()))
	if err != nil {
		log.Error().Err(err).Msg("google sign-in")
		http.Error(w, "sign-in", http.StatusInternalServerError)
		return
	}
	s.writeUserSession(w, newSessionUser(u))
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) apiMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.GetByID(r.Context(), IdentityFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, "", u)
}

func (s *Server) apiUpdateAddress(w http.ResponseWriter, r *http.Request) {
	var addr domain.ShippingAddress
	if err := decode(r, &addr); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.users.UpdateAddress(r.Context(), IdentityFrom(r.Context()), addr); err != nil {
		writeError(w, r, err)
		return
	}
	writeRedirect(w, "User updated successfully", "/payment-method", nil)
}

type paymentMethodReq struct {
	Type string `json:"type" validate:"required"`
}

func (s *Server) apiUpdatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.users.UpdatePaymentMethod(r.Context(), IdentityFrom(r.Context()), req.Type); err != nil {
		writeError(w, r, err)
		return
	}
	writeRedirect(w, "User updated successfully", "/place-order", nil)
}

type profileReq struct {
	Name string `json:"name" validate:"required,min=3"`
}

func (s *Server) apiUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileReq
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id := IdentityFrom(r.Context())
	if err := s.users.UpdateProfile(r.Context(), id, req.Name); err != nil {
		writeError(w, r, err)
		return
	}
	s.writeUserSession(w, &sessionUser{ID: id.UserID, Name: req.Name, Email: id.Email, Role: id.Role})
	writeOK(w, "User updated successfully", nil)
}
