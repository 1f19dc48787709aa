package auth

import (
	"net/http"

	gdata "github.com/godata-project/godata"
)

// DummyAuthorizer signs requests for its domains with the fixed token
// "dummy". Test servers assert on the header to verify that request paths
// are authorized; it has no use against real services.
type DummyAuthorizer struct {
	domains map[gdata.AuthorizationDomain]bool
}

// NewDummyAuthorizer creates a dummy authorizer covering the given domains.
func NewDummyAuthorizer(domains ...gdata.AuthorizationDomain) *DummyAuthorizer {
	a := &DummyAuthorizer{domains: make(map[gdata.AuthorizationDomain]bool)}
	for _, d := range domains {
		a.domains[d] = true
	}
	return a
}

// ProcessRequest attaches the dummy token when the domain is covered and
// leaves the request untouched otherwise.
func (a *DummyAuthorizer) ProcessRequest(req *http.Request, domain gdata.AuthorizationDomain) {
	if a.domains[domain] {
		req.Header.Set("Authorization", "dummy")
	}
}

// IsAuthorizedForDomain reports whether the authorizer covers domain.
func (a *DummyAuthorizer) IsAuthorizedForDomain(domain gdata.AuthorizationDomain) bool {
	return a.domains[domain]
}
