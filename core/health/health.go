// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*
Package health verifies the configured upstream services: is each one
configured at all, reachable, and does it publish a parseable OpenAPI
description. The same checks back the /health-checks/ route and the
healthcheck command.
*/
package health

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/openbeheer/bff/core/oas"
	"github.com/openbeheer/bff/core/registry"
	"github.com/openbeheer/bff/core/upstream"
)

// Severity grades a check failure.
type Severity string

// all severities
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Error is one finding of a check.
type Error struct {
	Code      string   `json:"code"`
	Message   string   `json:"message"`
	Severity  Severity `json:"severity"`
	Traceback string   `json:"traceback,omitempty"`
}

// Result is the outcome of one check.
type Result struct {
	Check   string  `json:"check"`
	Success bool    `json:"success"`
	Errors  []Error `json:"errors"`
}

// Checker runs the health checks over the service registry.
type Checker struct {
	registry *registry.Registry
	oas      *oas.Registry

	// WithTraceback attaches a stack trace to panics caught in checks.
	WithTraceback bool
}

// NewChecker creates a checker.
func NewChecker(reg *registry.Registry, oasReg *oas.Registry) *Checker {
	return &Checker{registry: reg, oas: oasReg}
}

// Run executes all checks. The report always contains one result per
// configured service plus the configuration check itself.
func (c *Checker) Run(ctx context.Context) []Result {
	services, err := c.registry.Services(ctx)
	if err != nil {
		return []Result{{
			Check:  "services",
			Errors: []Error{{Code: "config_error", Message: err.Error(), Severity: SeverityError}},
		}}
	}

	results := []Result{c.configured(services)}
	for _, service := range services {
		results = append(results, c.service(ctx, service))
	}
	return results
}

// Healthy reports whether a report is free of error-grade findings.
func Healthy(results []Result) bool {
	for _, result := range results {
		for _, e := range result.Errors {
			if e.Severity == SeverityError {
				return false
			}
		}
	}
	return true
}

// configured checks that at least one record-types service exists.
func (c *Checker) configured(services []registry.Service) Result {
	result := Result{Check: "services", Errors: []Error{}}
	for _, service := range services {
		if service.Kind == registry.KindRecordTypes {
			result.Success = true
			return result
		}
	}
	result.Errors = append(result.Errors, Error{
		Code:     "not_configured",
		Message:  "no record-types service is configured",
		Severity: SeverityError,
	})
	return result
}

// service checks reachability and the OAS of one upstream.
func (c *Checker) service(ctx context.Context, service registry.Service) (result Result) {
	result = Result{Check: "service:" + service.Slug, Errors: []Error{}}

	defer func() {
		if r := recover(); r != nil {
			e := Error{
				Code:     "check_panic",
				Message:  fmt.Sprintf("%v", r),
				Severity: SeverityError,
			}
			if c.WithTraceback {
				e.Traceback = string(debug.Stack())
			}
			result.Success = false
			result.Errors = append(result.Errors, e)
		}
	}()

	client, err := c.registry.Client(ctx, service.Slug, service.Kind)
	if err != nil {
		result.Errors = append(result.Errors, Error{
			Code:     "config_error",
			Message:  err.Error(),
			Severity: SeverityError,
		})
		return result
	}

	if e := c.reachable(ctx, client); e != nil {
		result.Errors = append(result.Errors, *e)
		return result
	}
	if e := c.oasParses(ctx, client); e != nil {
		result.Errors = append(result.Errors, *e)
		if e.Severity == SeverityError {
			return result
		}
	}
	result.Success = true
	return result
}

func (c *Checker) reachable(ctx context.Context, client *upstream.Client) *Error {
	res, err := client.Get(ctx, "", nil)
	if err != nil {
		return &Error{
			Code:     "connection_error",
			Message:  fmt.Sprintf("cannot reach %s: %v", client.BaseURL(), err),
			Severity: SeverityError,
		}
	}
	// authentication failures still prove reachability, but are reported
	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		return &Error{
			Code:     "auth_error",
			Message:  fmt.Sprintf("service rejected the configured credentials (status %d)", res.StatusCode),
			Severity: SeverityError,
		}
	}
	return nil
}

func (c *Checker) oasParses(ctx context.Context, client *upstream.Client) *Error {
	_, err := c.oas.Document(ctx, client)
	if err == oas.ErrMisconfigured {
		return &Error{
			Code:     "no_oas",
			Message:  "service advertises no OAS url",
			Severity: SeverityWarning,
		}
	}
	if err != nil {
		return &Error{
			Code:     "oas_error",
			Message:  err.Error(),
			Severity: SeverityError,
		}
	}
	return nil
}

// HandleHealthRoute adds the /health-checks/ route to the router.
func (c *Checker) HandleHealthRoute(router *mux.Router) {
	router.HandleFunc("/health-checks", func(w http.ResponseWriter, r *http.Request) {
		results := c.Run(r.Context())
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if !Healthy(results) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		data, _ := json.Marshal(results)
		w.Write(data)
	}).Methods(http.MethodGet)
}
