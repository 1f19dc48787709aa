package auth

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	gdata "github.com/godata-project/godata"
)

// ClientLoginURI is the token endpoint of the legacy ClientLogin protocol.
// Tests point it at a local server.
const ClientLoginURI = "https://www.google.com/accounts/ClientLogin"

// ClientLoginAuthorizer authenticates with the legacy ClientLogin protocol:
// one username/password exchange per authorization domain, yielding a
// per-domain token sent as "Authorization: GoogleLogin auth=...".
//
// ClientLogin predates OAuth and survives only on old service endpoints;
// new code should use OAuth2Authorizer.
type ClientLoginAuthorizer struct {
	clientID string
	endpoint string
	client   *http.Client
	domains  []gdata.AuthorizationDomain

	mu       sync.RWMutex
	tokens   map[gdata.AuthorizationDomain]string
	username string
	password string
}

// NewClientLoginAuthorizer creates an authorizer for the given domains.
// clientID identifies the application to the token endpoint.
func NewClientLoginAuthorizer(clientID string, domains ...gdata.AuthorizationDomain) *ClientLoginAuthorizer {
	return &ClientLoginAuthorizer{
		clientID: clientID,
		endpoint: ClientLoginURI,
		client:   &http.Client{},
		domains:  domains,
		tokens:   make(map[gdata.AuthorizationDomain]string),
	}
}

// SetEndpoint overrides the token endpoint. Tests use it to authenticate
// against a local server.
func (a *ClientLoginAuthorizer) SetEndpoint(uri string) { a.endpoint = uri }

// SetClient overrides the HTTP client used for token requests.
func (a *ClientLoginAuthorizer) SetClient(c *http.Client) { a.client = c }

// Authenticate exchanges the credentials for one token per domain. On
// success the credentials are retained so the tokens can be refreshed when
// a service reports them expired.
func (a *ClientLoginAuthorizer) Authenticate(ctx context.Context, username, password string) error {
	tokens := make(map[gdata.AuthorizationDomain]string, len(a.domains))
	for _, domain := range a.domains {
		token, err := a.requestToken(ctx, domain, username, password)
		if err != nil {
			return err
		}
		tokens[domain] = token
	}

	a.mu.Lock()
	a.tokens = tokens
	a.username = username
	a.password = password
	a.mu.Unlock()
	return nil
}

func (a *ClientLoginAuthorizer) requestToken(ctx context.Context, domain gdata.AuthorizationDomain, username, password string) (string, error) {
	form := url.Values{}
	form.Set("accountType", "HOSTED_OR_GOOGLE")
	form.Set("Email", username)
	form.Set("Passwd", password)
	form.Set("service", domain.ServiceName)
	form.Set("source", a.clientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", gdata.WrapError(gdata.KindProtocol, "building token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.client.Do(req)
	if err != nil {
		if ctx.Err() == context.Canceled {
			return "", gdata.WrapError(gdata.KindCancelled, "authentication cancelled", err)
		}
		return "", gdata.WrapError(gdata.KindNetwork, "token request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", gdata.WrapError(gdata.KindNetwork, "reading token response", err)
	}
	fields := parseKeyValueBody(string(body))

	if resp.StatusCode == http.StatusOK {
		token := fields["Auth"]
		if token == "" {
			return "", gdata.NewError(gdata.KindProtocol, "token response carries no Auth value")
		}
		return token, nil
	}
	return "", clientLoginError(fields)
}

// clientLoginError maps the Error/Info/Url fields of a failed exchange onto
// the error taxonomy. Account-state errors must carry a recovery URL; a
// response claiming such an error without one is malformed.
func clientLoginError(fields map[string]string) *gdata.Error {
	code := fields["Error"]
	uri := fields["Url"]
	if code == "" {
		return gdata.NewError(gdata.KindProtocol, "token response carries no Error value")
	}

	switch code {
	case "BadAuthentication":
		if fields["Info"] == "InvalidSecondFactor" {
			return gdata.NewError(gdata.KindInvalidSecondFactor, "an application-specific password is required")
		}
		return gdata.NewError(gdata.KindBadAuthentication, "username or password was incorrect")
	case "NotVerified", "TermsNotAgreed", "AccountDeleted", "AccountDisabled", "AccountMigrated", "ServiceDisabled":
		if uri == "" {
			return gdata.NewError(gdata.KindProtocol, "account-state error without a recovery URL")
		}
		e := gdata.NewError(accountStateKind(code), "account cannot be used: "+code)
		e.URI = uri
		return e
	case "ServiceUnavailable":
		return gdata.NewError(gdata.KindUnavailable, "the authentication service is currently unavailable")
	case "CaptchaRequired":
		e := gdata.NewError(gdata.KindAuthenticationRequired, "a CAPTCHA challenge is required")
		e.URI = uri
		return e
	default:
		return gdata.NewError(gdata.KindAuthenticationRequired, "authentication failed: "+code)
	}
}

func accountStateKind(code string) gdata.ErrorKind {
	switch code {
	case "NotVerified":
		return gdata.KindNotVerified
	case "TermsNotAgreed":
		return gdata.KindTermsNotAgreed
	case "AccountDeleted":
		return gdata.KindAccountDeleted
	case "AccountDisabled":
		return gdata.KindAccountDisabled
	case "AccountMigrated":
		return gdata.KindAccountMigrated
	default:
		return gdata.KindServiceDisabled
	}
}

func parseKeyValueBody(body string) map[string]string {
	fields := make(map[string]string)
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		key, value, ok := strings.Cut(line, "=")
		if !ok || key == "" {
			continue
		}
		fields[key] = value
	}
	return fields
}

// ProcessRequest attaches the domain's GoogleLogin token, when one is held.
func (a *ClientLoginAuthorizer) ProcessRequest(req *http.Request, domain gdata.AuthorizationDomain) {
	a.mu.RLock()
	token := a.tokens[domain]
	a.mu.RUnlock()
	if token != "" {
		req.Header.Set("Authorization", "GoogleLogin auth="+token)
	}
}

// IsAuthorizedForDomain reports whether a token is held for domain.
func (a *ClientLoginAuthorizer) IsAuthorizedForDomain(domain gdata.AuthorizationDomain) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tokens[domain] != ""
}

// RefreshAuthorization re-runs the credential exchange with the retained
// username and password. ClientLogin has no refresh grant; a new login is
// the only way to replace an expired token.
func (a *ClientLoginAuthorizer) RefreshAuthorization(ctx context.Context) error {
	a.mu.RLock()
	username, password := a.username, a.password
	a.mu.RUnlock()
	if username == "" {
		return gdata.NewError(gdata.KindAuthenticationRequired, "no credentials to refresh with")
	}
	return a.Authenticate(ctx, username, password)
}
