// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

/*Package access provides session authentication for the gateway.

The browser authenticates once against /auth/login and from then on
carries a signed session cookie. Every API route behind the Protect
middleware requires that cookie; state-changing requests additionally
require the CSRF token issued by /auth/ensure-csrf.

The authenticated principal is added to a request context with

  ctx = access.ContextWithPrincipal(ctx, principal)

and retrieved with

  principal := access.PrincipalFromContext(ctx)
*/
package access

import (
	"context"
)

// contextKey is the type for context keys. Go linter does not like plain strings
type contextKey string

// the predefined context key
const (
	contextKeyPrincipal contextKey = "_principal_"
)

// Principal is the authenticated user as the frontend sees it.
type Principal struct {
	PK        int    `json:"pk"`
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// ContextWithPrincipal returns a new context with this principal added to it
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

// PrincipalFromContext retrieves the principal from the context
func PrincipalFromContext(ctx context.Context) *Principal {
	p, ok := ctx.Value(contextKeyPrincipal).(*Principal)
	if ok {
		return p
	}
	return nil
}
