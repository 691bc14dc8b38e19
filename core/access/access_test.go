// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

package access

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func newSessions(t *testing.T) (*Sessions, *MemoryUserStore) {
	t.Helper()
	store := NewMemoryUserStore()
	require.NoError(t, store.Add(User{
		Username:  "alice",
		FirstName: "Alice",
		LastName:  "Jansen",
		Email:     "alice@example.org",
	}, "correct horse"))
	return NewSessions(testKey, store, false, OIDCConfig{}), store
}

func newAuthRouter(s *Sessions) *mux.Router {
	router := mux.NewRouter()
	s.HandleAuthRoutes(router.PathPrefix("/api/v1").Subrouter())
	return router
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == SessionCookie {
			return cookie
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, VerifyPassword(hash, "correct horse"))
	assert.False(t, VerifyPassword(hash, "wrong horse"))
	assert.False(t, VerifyPassword("garbage", "correct horse"))

	// salts are random, equal passwords hash differently
	other, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other)
}

func TestLoginIssuesSession(t *testing.T) {
	s, _ := newSessions(t)
	router := newAuthRouter(s)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"username":"alice","password":"correct horse"}`)))
	require.Equal(t, http.StatusNoContent, w.Code)
	cookie := sessionCookie(t, w)
	assert.True(t, cookie.HttpOnly)

	// the session resolves back to the account
	r := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	r.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"username":"alice"`)
	assert.Contains(t, w.Body.String(), `"firstName":"Alice"`)
}

func TestLoginWithWrongPassword(t *testing.T) {
	s, _ := newSessions(t)
	router := newAuthRouter(s)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"username":"alice","password":"wrong"}`)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"invalid"`)
}

func TestWhoamiWithoutSession(t *testing.T) {
	s, _ := newSessions(t)
	router := newAuthRouter(s)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"not_authenticated"`)
}

func TestProtectRejectsWithoutSession(t *testing.T) {
	s, _ := newSessions(t)
	protected := s.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	w := httptest.NewRecorder()
	protected.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/OZ/zaaktypen", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProtectAttachesPrincipal(t *testing.T) {
	s, _ := newSessions(t)
	router := newAuthRouter(s)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"username":"alice","password":"correct horse"}`)))
	require.Equal(t, http.StatusNoContent, w.Code)
	cookie := sessionCookie(t, w)

	var got *Principal
	protected := s.Protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = PrincipalFromContext(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/api/v1/OZ/zaaktypen", nil)
	r.AddCookie(cookie)
	protected.ServeHTTP(httptest.NewRecorder(), r)

	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
}

func TestSessionDiesWithDeletedAccount(t *testing.T) {
	s, store := newSessions(t)
	router := newAuthRouter(s)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
		strings.NewReader(`{"username":"alice","password":"correct horse"}`)))
	cookie := sessionCookie(t, w)

	store.mu.Lock()
	delete(store.users, "alice")
	store.mu.Unlock()

	r := httptest.NewRequest(http.MethodGet, "/api/v1/whoami", nil)
	r.AddCookie(cookie)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestLogoutClearsCookie(t *testing.T) {
	s, _ := newSessions(t)
	router := newAuthRouter(s)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))
	require.Equal(t, http.StatusNoContent, w.Code)
	cookie := sessionCookie(t, w)
	assert.Less(t, cookie.MaxAge, 0)
}

func TestOIDCInfo(t *testing.T) {
	store := NewMemoryUserStore()
	s := NewSessions(testKey, store, false, OIDCConfig{
		Enabled:  true,
		LoginURL: "https://login.example.org/oidc/authenticate/",
	})
	router := newAuthRouter(s)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/oidc-info", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"enabled":true`)
	assert.Contains(t, w.Body.String(), "oidc/authenticate")

	// disabled leaves out the login url
	s = NewSessions(testKey, store, false, OIDCConfig{})
	router = newAuthRouter(s)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/oidc-info", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"enabled":false}`, w.Body.String())
}
