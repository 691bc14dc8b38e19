// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package upstream provides authenticated HTTP access to one configured
upstream service.

A Client is bound to a single service configuration. It joins relative
paths against the service's API root, injects the authentication headers
the service requires, and decodes nothing: every call returns the raw
status and body, and the caller decides what a non-2xx response means.
Transport failures are the only errors a call can return.
*/
package upstream

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// timeouts for all upstream traffic
const (
	connectTimeout = 10 * time.Second
	readTimeout    = 30 * time.Second
)

// ErrInvalidURL is returned when an absolute request URL points outside
// the service's base domain.
var ErrInvalidURL = errors.New("upstream: url outside the service domain")

// AuthType selects how the client authenticates against the upstream.
type AuthType string

// all supported authentication modes
const (
	AuthNone   AuthType = "none"
	AuthAPIKey AuthType = "api_key"
	AuthBearer AuthType = "bearer"
	AuthZGW    AuthType = "zgw" // signed JWT built from client id and secret
)

// Config is the subset of a service configuration the client needs.
type Config struct {
	Slug      string
	APIRoot   string
	OASURL    string
	AuthType  AuthType
	Header    string // header name for api_key authentication
	APIKey    string
	ClientID  string
	Secret    string
	AcceptCrs bool // record-type upstreams require Accept-Crs
}

// Client is an authenticated HTTP transport bound to one upstream service.
type Client struct {
	slug      string
	base      *url.URL
	oasURL    string
	authType  AuthType
	header    string
	apiKey    string
	clientID  string
	secret    string
	acceptCrs bool

	httpClient *http.Client
}

// Response is a raw upstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Ok returns true for any 2xx status.
func (r *Response) Ok() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// New creates a client for the given configuration.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimSuffix(cfg.APIRoot, "/"))
	if err != nil {
		return nil, fmt.Errorf("upstream %s: invalid api root %q: %w", cfg.Slug, cfg.APIRoot, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("upstream %s: api root %q is not absolute", cfg.Slug, cfg.APIRoot)
	}
	return &Client{
		slug:      cfg.Slug,
		base:      base,
		oasURL:    cfg.OASURL,
		authType:  cfg.AuthType,
		header:    cfg.Header,
		apiKey:    cfg.APIKey,
		clientID:  cfg.ClientID,
		secret:    cfg.Secret,
		acceptCrs: cfg.AcceptCrs,
		httpClient: &http.Client{
			Timeout: readTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: connectTimeout,
				}).DialContext,
			},
		},
	}, nil
}

// Slug returns the service slug this client is bound to.
func (c *Client) Slug() string {
	return c.slug
}

// BaseURL returns the service API root without trailing slash.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// OASURL returns the advertised OpenAPI document URL, if any.
func (c *Client) OASURL() string {
	return c.oasURL
}

// AbsoluteURL joins a relative path against the API root. Already
// absolute URLs are validated to stay within the service domain.
func (c *Client) AbsoluteURL(pathOrURL string) (string, error) {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		u, err := url.Parse(pathOrURL)
		if err != nil {
			return "", fmt.Errorf("upstream %s: %w", c.slug, ErrInvalidURL)
		}
		if u.Host != c.base.Host {
			return "", fmt.Errorf("upstream %s: %q: %w", c.slug, pathOrURL, ErrInvalidURL)
		}
		return pathOrURL, nil
	}
	return c.base.String() + "/" + strings.TrimPrefix(pathOrURL, "/"), nil
}

// Get issues a GET request. Idempotent GETs consult the request-scoped
// memo when one is installed on the context.
func (c *Client) Get(ctx context.Context, pathOrURL string, query url.Values) (*Response, error) {
	target, err := c.AbsoluteURL(pathOrURL)
	if err != nil {
		return nil, err
	}
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + query.Encode()
	}

	if memo := memoFromContext(ctx); memo != nil {
		if res, ok := memo.lookup(target); ok {
			return res, nil
		}
		res, err := c.do(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, err
		}
		memo.store(target, res)
		return res, nil
	}
	return c.do(ctx, http.MethodGet, target, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, pathOrURL string, body []byte) (*Response, error) {
	return c.write(ctx, http.MethodPost, pathOrURL, body)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, pathOrURL string, body []byte) (*Response, error) {
	return c.write(ctx, http.MethodPut, pathOrURL, body)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, pathOrURL string, body []byte) (*Response, error) {
	return c.write(ctx, http.MethodPatch, pathOrURL, body)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, pathOrURL string) (*Response, error) {
	return c.write(ctx, http.MethodDelete, pathOrURL, nil)
}

func (c *Client) write(ctx context.Context, method, pathOrURL string, body []byte) (*Response, error) {
	target, err := c.AbsoluteURL(pathOrURL)
	if err != nil {
		return nil, err
	}
	return c.do(ctx, method, target, body)
}

func (c *Client) do(ctx context.Context, method, target string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	r, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	r.Header.Set("Accept", "application/json")
	if c.acceptCrs {
		r.Header.Set("Accept-Crs", "EPSG:4326")
	}
	if err := c.authorize(r); err != nil {
		return nil, err
	}

	res, err := c.httpClient.Do(r)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       resBody,
	}, nil
}

func (c *Client) authorize(r *http.Request) error {
	switch c.authType {
	case AuthAPIKey:
		header := c.header
		if header == "" {
			header = "Authorization"
		}
		r.Header.Set(header, c.apiKey)
	case AuthBearer:
		r.Header.Set("Authorization", "Bearer "+c.secret)
	case AuthZGW:
		token, err := signedToken(c.clientID, c.secret)
		if err != nil {
			return err
		}
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return nil
}
