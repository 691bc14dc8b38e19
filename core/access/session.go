// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/csrf"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"

	"github.com/openbeheer/bff/core/logger"
	"github.com/openbeheer/bff/core/problem"
)

// SessionCookie is the name of the session cookie.
const SessionCookie = "openbeheer_sessionid"

// sessions are re-validated against the user store on every request, the
// cookie only fixes the session age
const sessionMaxAge = 14 * 24 * time.Hour

// OIDCConfig describes the optional OpenID Connect login.
type OIDCConfig struct {
	Enabled  bool
	LoginURL string
}

// Sessions issues and validates session cookies and serves the
// authentication routes.
type Sessions struct {
	codec  *securecookie.SecureCookie
	store  UserStore
	secure bool
	oidc   OIDCConfig
}

// NewSessions creates the session layer. The secret key signs and
// encrypts the session cookies.
func NewSessions(secretKey []byte, store UserStore, secure bool, oidc OIDCConfig) *Sessions {
	codec := securecookie.New(secretKey, nil)
	codec.MaxAge(int(sessionMaxAge / time.Second))
	return &Sessions{
		codec:  codec,
		store:  store,
		secure: secure,
		oidc:   oidc,
	}
}

func (s *Sessions) issue(w http.ResponseWriter, username string) error {
	encoded, err := s.codec.Encode(SessionCookie, username)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    encoded,
		Path:     "/",
		MaxAge:   int(sessionMaxAge / time.Second),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Sessions) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// principal resolves the session cookie to the account it belongs to.
func (s *Sessions) principal(r *http.Request) *Principal {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil
	}
	var username string
	if err := s.codec.Decode(SessionCookie, cookie.Value, &username); err != nil {
		return nil
	}
	user, err := s.store.Get(r.Context(), username)
	if err != nil {
		// account deleted, session is dead
		return nil
	}
	return user.Principal()
}

// Protect requires a valid session on every request of the wrapped
// handler and attaches the principal to the request context.
func (s *Sessions) Protect(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := s.principal(r)
		if principal == nil {
			problem.Write(w, r, problem.NotAuthenticated())
			return
		}
		ctx := ContextWithPrincipal(r.Context(), principal)
		ctx, _ = logger.ContextWithLoggerIdentity(ctx, principal.Username)
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HandleAuthRoutes adds the authentication routes to the router:
//
//	/auth/login POST
//	/auth/logout POST
//	/auth/ensure-csrf GET
//	/whoami GET
//	/oidc-info GET
//
// All of them are reachable without a session, except /whoami.
func (s *Sessions) HandleAuthRoutes(router *mux.Router) {
	router.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)
	router.HandleFunc("/auth/logout", s.logout).Methods(http.MethodPost)
	router.HandleFunc("/auth/ensure-csrf", s.ensureCSRF).Methods(http.MethodGet)
	router.HandleFunc("/whoami", s.whoami).Methods(http.MethodGet)
	router.HandleFunc("/oidc-info", s.oidcInfo).Methods(http.MethodGet)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Sessions) login(w http.ResponseWriter, r *http.Request) {
	var request loginRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		problem.Write(w, r, problem.FromDecodeError(err))
		return
	}
	user, err := s.store.Authenticate(r.Context(), request.Username, request.Password)
	if err != nil {
		logger.FromContext(r.Context()).Infof("failed login for %s", request.Username)
		problem.Write(w, r, problem.Invalid(problem.InvalidParam{
			Name:   "$.username",
			Code:   "invalid",
			Reason: "invalid username or password",
		}))
		return
	}
	if err := s.issue(w, user.Username); err != nil {
		problem.Write(w, r, problem.Internal())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Sessions) logout(w http.ResponseWriter, r *http.Request) {
	s.clear(w)
	w.WriteHeader(http.StatusNoContent)
}

// ensureCSRF exists so the frontend can obtain the CSRF cookie before
// its first mutating call. The csrf middleware sets the cookie.
func (s *Sessions) ensureCSRF(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-CSRFToken", csrf.Token(r))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Sessions) whoami(w http.ResponseWriter, r *http.Request) {
	principal := s.principal(r)
	if principal == nil {
		problem.Write(w, r, problem.NotAuthenticated())
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	data, _ := json.Marshal(principal)
	w.Write(data)
}

type oidcInfo struct {
	Enabled  bool   `json:"enabled"`
	LoginURL string `json:"loginUrl,omitempty"`
}

func (s *Sessions) oidcInfo(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	data, _ := json.Marshal(oidcInfo{
		Enabled:  s.oidc.Enabled,
		LoginURL: s.oidc.LoginURL,
	})
	w.Write(data)
}
