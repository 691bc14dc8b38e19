package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler, cfg Config) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg.APIRoot = srv.URL + "/catalogi/api/v1"
	c, err := New(cfg)
	require.NoError(t, err)
	return c, srv
}

func TestGetJoinsPathAndQuery(t *testing.T) {
	var gotPath, gotQuery string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"count":0}`))
	}), Config{Slug: "OZ"})

	res, err := c.Get(context.Background(), "/zaaktypen", url.Values{"page": []string{"1"}})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "/catalogi/api/v1/zaaktypen", gotPath)
	assert.Equal(t, "page=1", gotQuery)
}

func TestAbsoluteURLOutsideDomainFails(t *testing.T) {
	c, _ := newTestClient(t, http.NewServeMux(), Config{Slug: "OZ"})
	_, err := c.Get(context.Background(), "https://evil.example.com/zaaktypen", nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidURL)
}

func TestAbsoluteURLWithinDomainIsAccepted(t *testing.T) {
	c, srv := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}), Config{Slug: "OZ"})

	res, err := c.Get(context.Background(), srv.URL+"/catalogi/api/v1/zaaktypen/abc", nil)
	require.NoError(t, err)
	assert.True(t, res.Ok())
}

func TestNonOkResponsesAreReturnedNotRaised(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"code":"invalid"}`, http.StatusBadRequest)
	}), Config{Slug: "OZ"})

	res, err := c.Get(context.Background(), "/zaaktypen", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.False(t, res.Ok())
}

func TestAPIKeyHeader(t *testing.T) {
	var got string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Api-Key")
		w.Write([]byte(`{}`))
	}), Config{Slug: "SL", AuthType: AuthAPIKey, Header: "X-Api-Key", APIKey: "sekrit"})

	_, err := c.Get(context.Background(), "/procestypen", nil)
	require.NoError(t, err)
	assert.Equal(t, "sekrit", got)
}

func TestZGWTokenIsSignedWithSecret(t *testing.T) {
	var bearer string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bearer = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}), Config{Slug: "OZ", AuthType: AuthZGW, ClientID: "open-beheer", Secret: "secret", AcceptCrs: true})

	_, err := c.Get(context.Background(), "/zaaktypen", nil)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(bearer, "Bearer "))

	token, err := jwt.Parse(strings.TrimPrefix(bearer, "Bearer "), func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	claims := token.Claims.(jwt.MapClaims)
	assert.Equal(t, "open-beheer", claims["client_id"])
	assert.Equal(t, "open-beheer", claims["iss"])
}

func TestAcceptCrsHeader(t *testing.T) {
	var got string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Accept-Crs")
		w.Write([]byte(`{}`))
	}), Config{Slug: "OZ", AcceptCrs: true})

	_, err := c.Get(context.Background(), "/zaaktypen", nil)
	require.NoError(t, err)
	assert.Equal(t, "EPSG:4326", got)
}

func TestRequestScopedMemoization(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte(`{"count":1}`))
	}), Config{Slug: "OZ"})

	ctx := ContextWithMemo(context.Background())
	first, err := c.Get(ctx, "/zaaktypen", nil)
	require.NoError(t, err)
	second, err := c.Get(ctx, "/zaaktypen", nil)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	assert.Equal(t, first.Body, second.Body)

	// a different request scope fetches again
	_, err = c.Get(ContextWithMemo(context.Background()), "/zaaktypen", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestMemoDoesNotApplyToWrites(t *testing.T) {
	var hits int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	}), Config{Slug: "OZ"})

	ctx := ContextWithMemo(context.Background())
	_, err := c.Post(ctx, "/zaaktypen", []byte(`{}`))
	require.NoError(t, err)
	_, err = c.Post(ctx, "/zaaktypen", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}
