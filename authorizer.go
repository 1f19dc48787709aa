package gdata

import (
	"context"
	"net/http"
)

// AuthorizationDomain identifies a bundle of operations an authorizer's
// credentials may cover. Each service façade exposes its domains; an
// authorizer holds a set of domains and attaches credentials only to
// requests issued in a domain it holds.
type AuthorizationDomain struct {
	// ServiceName is the short service code used by legacy authentication
	// (for example "cl" for Calendar).
	ServiceName string
	// ScopeRoot is the URI prefix of the scope covered by the domain. It
	// doubles as the OAuth 2.0 scope for the domain.
	ScopeRoot string
}

// Authorizer attaches credentials to outgoing requests.
//
// Implementations must be safe for concurrent use: ProcessRequest may be
// called from many goroutines while a refresh is in flight.
type Authorizer interface {
	// ProcessRequest attaches the appropriate Authorization header to req if
	// the authorizer holds domain. If it does not, the request is left
	// completely untouched.
	ProcessRequest(req *http.Request, domain AuthorizationDomain)

	// IsAuthorizedForDomain reports whether ProcessRequest would currently
	// attach credentials for domain.
	IsAuthorizedForDomain(domain AuthorizationDomain) bool
}

// RefreshableAuthorizer is implemented by authorizers whose credentials can
// be renewed after expiry. The request engine invokes RefreshAuthorization
// at most once per request, after a 401 response.
type RefreshableAuthorizer interface {
	Authorizer

	// RefreshAuthorization attempts to renew the held credentials. At most
	// one refresh is in flight at any time; concurrent callers coalesce and
	// observe the single attempt's outcome.
	RefreshAuthorization(ctx context.Context) error
}
