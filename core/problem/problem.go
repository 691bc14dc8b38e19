// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package problem provides the single error shape of the gateway.

Every failure a handler can run into - transport errors towards an upstream
service, upstream validation errors, decoding errors on inbound bodies -
is mapped into one Problem envelope and written with the matching HTTP
status. Handlers never write errors any other way.
*/
package problem

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/openbeheer/bff/core/logger"
)

// InvalidParam describes one rejected request parameter or body field.
type InvalidParam struct {
	Name   string `json:"name"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Problem is the uniform error envelope, loosely following RFC 7807.
type Problem struct {
	Type          string         `json:"type,omitempty"`
	Code          string         `json:"code"`
	Title         string         `json:"title"`
	Status        int            `json:"status"`
	Detail        string         `json:"detail,omitempty"`
	Instance      string         `json:"instance,omitempty"`
	InvalidParams []InvalidParam `json:"invalidParams,omitempty"`
}

// Error implements the error interface.
func (p *Problem) Error() string {
	return fmt.Sprintf("%s (%d): %s", p.Code, p.Status, p.Title)
}

// the well-known problems

// NotAuthenticated is returned when no principal is present. The status is
// 403 rather than 401, because session authentication has no meaningful
// WWW-Authenticate challenge.
func NotAuthenticated() *Problem {
	return &Problem{
		Code:   "not_authenticated",
		Title:  "Not authenticated",
		Status: http.StatusForbidden,
		Detail: "Authentication credentials were not provided.",
	}
}

// NotFound is returned when the requested resource does not exist.
func NotFound(detail string) *Problem {
	return &Problem{
		Code:   "not_found",
		Title:  "Not found",
		Status: http.StatusNotFound,
		Detail: detail,
	}
}

// Invalid is returned for malformed requests.
func Invalid(params ...InvalidParam) *Problem {
	return &Problem{
		Code:          "invalid",
		Title:         "Invalid input",
		Status:        http.StatusBadRequest,
		InvalidParams: params,
	}
}

// Internal is returned for unexpected server-side failures.
func Internal() *Problem {
	return &Problem{
		Code:   "internal_error",
		Title:  "Internal error",
		Status: http.StatusInternalServerError,
	}
}

// FromTransport maps a transport error from the upstream client.
// Read timeouts become timeout_error (504), everything else is
// reported as connection_error (502).
func FromTransport(err error) *Problem {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		(errors.As(err, &nerr) && nerr.Timeout()) {
		return &Problem{
			Code:   "timeout_error",
			Title:  "Timeout error",
			Status: http.StatusGatewayTimeout,
			Detail: "The external service did not respond in time.",
		}
	}
	return &Problem{
		Code:   "connection_error",
		Title:  "Connection error",
		Status: http.StatusBadGateway,
		Detail: "Could not connect to external service.",
	}
}

const maxRawDetail = 200

// upstreamBody covers both key conventions the upstreams use for
// validation parameters.
type upstreamBody struct {
	Type               string         `json:"type"`
	Code               string         `json:"code"`
	Title              string         `json:"title"`
	Status             int            `json:"status"`
	Detail             string         `json:"detail"`
	Instance           string         `json:"instance"`
	InvalidParams      []InvalidParam `json:"invalidParams"`
	InvalidParamsSnake []InvalidParam `json:"invalid_params"`
}

// FromUpstream maps a non-2xx upstream response.
//
// A 4xx with a problem-details body passes through verbatim. A 4xx without
// a recognizable body is wrapped as upstream_error with the truncated raw
// text as detail. A 5xx becomes bad_gateway (502); if the body already is
// problem-details it passes through with status 502.
func FromUpstream(status int, body []byte) *Problem {
	decoded, ok := decodeProblem(body)
	if status >= 500 {
		if ok {
			decoded.Status = http.StatusBadGateway
			return decoded
		}
		return &Problem{
			Code:   "bad_gateway",
			Title:  "Bad gateway",
			Status: http.StatusBadGateway,
			Detail: "The external service reported an error.",
		}
	}
	if ok {
		decoded.Status = status
		return decoded
	}
	detail := strings.TrimSpace(string(body))
	if len(detail) > maxRawDetail {
		detail = detail[:maxRawDetail]
	}
	return &Problem{
		Code:   "upstream_error",
		Title:  "Upstream error",
		Status: status,
		Detail: detail,
	}
}

func decodeProblem(body []byte) (*Problem, bool) {
	var decoded upstreamBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, false
	}
	if decoded.Code == "" && decoded.Title == "" {
		return nil, false
	}
	params := decoded.InvalidParams
	if len(params) == 0 {
		params = decoded.InvalidParamsSnake
	}
	return &Problem{
		Type:          decoded.Type,
		Code:          decoded.Code,
		Title:         decoded.Title,
		Status:        decoded.Status,
		Detail:        decoded.Detail,
		Instance:      decoded.Instance,
		InvalidParams: params,
	}, true
}

// FromDecodeError maps a JSON decoding error on an inbound request body to
// an invalid problem. For type errors the offending field is reported as a
// path pointer, e.g. "$.omschrijving".
func FromDecodeError(err error) *Problem {
	name := "$"
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		name = "$." + typeErr.Field
	}
	return Invalid(InvalidParam{
		Name:   name,
		Code:   "invalid",
		Reason: err.Error(),
	})
}

// Write emits the problem as the handler response.
func Write(w http.ResponseWriter, r *http.Request, p *Problem) {
	if p.Status == 0 {
		p.Status = http.StatusInternalServerError
	}
	if p.Instance == "" && r != nil {
		p.Instance = r.URL.Path
	}
	if p.Status >= http.StatusInternalServerError && r != nil {
		logger.FromContext(r.Context()).Errorf("%s %s: %s", r.Method, r.URL.Path, p.Error())
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(p.Status)
	data, _ := json.Marshal(p)
	w.Write(data)
}
