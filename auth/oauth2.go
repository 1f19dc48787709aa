package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	gdata "github.com/godata-project/godata"
)

// OAuth2Authorizer signs requests with OAuth 2.0 bearer tokens obtained
// through the authorization-code flow with PKCE. The flow has three steps:
// send the user to BuildAuthenticationURI, receive the authorization code
// on the redirect URI, and exchange it with RequestAuthorization.
//
// One token covers every domain the authorizer was created with; the
// requested scopes are the union of the domains' scope roots.
type OAuth2Authorizer struct {
	conf    *oauth2.Config
	domains map[gdata.AuthorizationDomain]bool

	mu       sync.Mutex
	verifier string
	token    *oauth2.Token
}

// NewOAuth2Authorizer creates an authorizer for the given domains using the
// application's OAuth client credentials. redirectURI must match one of the
// client's registered redirect URIs; out-of-band clients use
// "urn:ietf:wg:oauth:2.0:oob".
func NewOAuth2Authorizer(clientID, clientSecret, redirectURI string, domains ...gdata.AuthorizationDomain) *OAuth2Authorizer {
	scopes := make([]string, 0, len(domains))
	covered := make(map[gdata.AuthorizationDomain]bool, len(domains))
	for _, d := range domains {
		scopes = append(scopes, d.ScopeRoot)
		covered[d] = true
	}
	return &OAuth2Authorizer{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
		domains: covered,
	}
}

// SetEndpoint overrides the OAuth endpoints. Tests use it to run the flow
// against a local server.
func (a *OAuth2Authorizer) SetEndpoint(authURL, tokenURL string) {
	a.conf.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
}

// BuildAuthenticationURI returns the URI the user must visit to approve the
// application. state is echoed back on the redirect and must be checked by
// the caller. Each call generates a fresh PKCE verifier, invalidating any
// authorization code obtained from an earlier URI.
func (a *OAuth2Authorizer) BuildAuthenticationURI(state string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.verifier = oauth2.GenerateVerifier()
	return a.conf.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.S256ChallengeOption(a.verifier))
}

// RequestAuthorization exchanges the authorization code received on the
// redirect URI for a token.
func (a *OAuth2Authorizer) RequestAuthorization(ctx context.Context, code string) error {
	a.mu.Lock()
	verifier := a.verifier
	a.mu.Unlock()
	if verifier == "" {
		return gdata.NewError(gdata.KindAuthenticationRequired, "no authentication URI was built")
	}

	token, err := a.conf.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		if ctx.Err() == context.Canceled {
			return gdata.WrapError(gdata.KindCancelled, "authorization cancelled", err)
		}
		return gdata.WrapError(gdata.KindAuthenticationRequired, "code exchange failed", err)
	}

	a.mu.Lock()
	a.token = token
	a.mu.Unlock()
	return nil
}

// Token returns the current token, or nil. Applications persist it (see the
// tokenstore package) and restore it with SetToken to skip the interactive
// flow on later runs.
func (a *OAuth2Authorizer) Token() *oauth2.Token {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token
}

// SetToken installs a previously obtained token.
func (a *OAuth2Authorizer) SetToken(token *oauth2.Token) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = token
}

// ProcessRequest attaches the bearer token when the domain is covered and a
// token is held.
func (a *OAuth2Authorizer) ProcessRequest(req *http.Request, domain gdata.AuthorizationDomain) {
	if !a.domains[domain] {
		return
	}
	a.mu.Lock()
	token := a.token
	a.mu.Unlock()
	if token != nil && token.AccessToken != "" {
		token.SetAuthHeader(req)
	}
}

// IsAuthorizedForDomain reports whether the authorizer holds a token
// covering domain.
func (a *OAuth2Authorizer) IsAuthorizedForDomain(domain gdata.AuthorizationDomain) bool {
	if !a.domains[domain] {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.token != nil
}

// RefreshAuthorization exchanges the refresh token for a new access token.
// Concurrent callers are coalesced: the mutex serializes them, and a caller
// that finds a token refreshed moments ago returns without a second
// exchange.
func (a *OAuth2Authorizer) RefreshAuthorization(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token == nil {
		return gdata.NewError(gdata.KindAuthenticationRequired, "no token to refresh")
	}
	if a.token.Valid() && time.Until(a.token.Expiry) > time.Minute {
		return nil
	}
	if a.token.RefreshToken == "" {
		return gdata.NewError(gdata.KindAuthenticationRequired, "token carries no refresh token")
	}

	// Clearing the access token forces the refresh grant; TokenSource would
	// otherwise hand back the token the server just rejected.
	token, err := a.conf.TokenSource(ctx, &oauth2.Token{RefreshToken: a.token.RefreshToken}).Token()
	if err != nil {
		if ctx.Err() == context.Canceled {
			return gdata.WrapError(gdata.KindCancelled, "refresh cancelled", err)
		}
		return gdata.WrapError(gdata.KindAuthenticationRequired, "token refresh failed", err)
	}
	a.token = token
	return nil
}
