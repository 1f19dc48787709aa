package gdata

import (
	"bytes"
	"context"
	"encoding/json"
	"encoding/xml"
	"time"
)

// Access rule scope types.
const (
	// ScopeUser grants access to a single user, identified by e-mail.
	ScopeUser = "user"
	// ScopeDomain grants access to everyone in a hosted domain.
	ScopeDomain = "domain"
	// ScopeDefault grants public access; the scope carries no value.
	ScopeDefault = "default"
)

// AccessRule is one entry of an access control list: a role granted to a
// scope. Services define their own role vocabularies; the scope types are
// shared.
type AccessRule struct {
	Entry

	// Role is the granted role URI or name, service-specific.
	Role string
	// ScopeType is one of the Scope constants.
	ScopeType string
	// ScopeValue identifies the principal: an e-mail address for user
	// scopes, a domain name for domain scopes, empty for default.
	ScopeValue string
	// Edited is the APP edit timestamp maintained by the server.
	Edited time.Time
}

// NewAccessRule builds a local access rule granting role to the given scope.
func NewAccessRule(role, scopeType, scopeValue string) *AccessRule {
	return &AccessRule{Role: role, ScopeType: scopeType, ScopeValue: scopeValue}
}

// ParseXMLElement handles the gAcl extensions and the APP edited timestamp,
// delegating everything else to the common entry elements.
func (r *AccessRule) ParseXMLElement(d *xml.Decoder, start xml.StartElement) (bool, error) {
	switch start.Name.Space {
	case NSACL:
		switch start.Name.Local {
		case "role":
			r.Role = AttrValue(start.Attr, "value")
			return true, skip(d)
		case "scope":
			r.ScopeType = AttrValue(start.Attr, "type")
			r.ScopeValue = AttrValue(start.Attr, "value")
			return true, skip(d)
		}
	case NSApp:
		if start.Name.Local == "edited" {
			return ParseTimeElement(d, start, NSApp, "edited", ParseNoDupes, &r.Edited)
		}
	}
	return r.Entry.ParseXMLElement(d, start)
}

// PostParseXML requires a role and a scope type.
func (r *AccessRule) PostParseXML() error {
	if r.Role == "" {
		return NewError(KindProtocol, "access rule carries no <gAcl:role>")
	}
	if r.ScopeType == "" {
		return NewError(KindProtocol, "access rule carries no <gAcl:scope>")
	}
	return nil
}

// XMLContent writes the gAcl extensions after the common entry elements.
func (r *AccessRule) XMLContent(w *bytes.Buffer, reg *NamespaceRegistry) {
	r.Entry.XMLContent(w, reg)
	reg.Register("gAcl", NSACL)
	if r.Role != "" {
		w.WriteString(`<gAcl:role value="` + EscapeXML(r.Role) + `"/>`)
	}
	if r.ScopeType != "" {
		w.WriteString(`<gAcl:scope type="` + EscapeXML(r.ScopeType) + `"`)
		if r.ScopeValue != "" {
			w.WriteString(` value="` + EscapeXML(r.ScopeValue) + `"`)
		}
		w.WriteString(`/>`)
	}
}

// ParseJSONMember handles the ACL members of JSON services.
func (r *AccessRule) ParseJSONMember(key string, value json.RawMessage) (bool, error) {
	switch key {
	case "role":
		return true, JSONString(value, &r.Role)
	case "scope":
		var scope struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		}
		if err := json.Unmarshal(value, &scope); err != nil {
			return true, WrapError(KindProtocol, "malformed scope member", err)
		}
		r.ScopeType = scope.Type
		r.ScopeValue = scope.Value
		return true, nil
	}
	return r.Entry.ParseJSONMember(key, value)
}

// JSONObject emits the ACL members on top of the entry identity.
func (r *AccessRule) JSONObject() map[string]any {
	obj := make(map[string]any)
	r.JSONIdentity(obj)
	if r.Role != "" {
		obj["role"] = r.Role
	}
	scope := map[string]any{"type": r.ScopeType}
	if r.ScopeValue != "" {
		scope["value"] = r.ScopeValue
	}
	obj["scope"] = scope
	return obj
}

// GetAccessRules fetches the access control list of entry, addressed
// through its access-control-list link. factory builds the service's
// concrete rule type; a nil factory yields plain AccessRule values.
func (s *Service) GetAccessRules(ctx context.Context, domain AuthorizationDomain, entry EntryLike, factory EntryFactory) (*Feed, error) {
	link := entry.CommonEntry().LookupLink(RelAccessControlList)
	if link == nil {
		return nil, NewError(KindProtocol, "entry carries no access-control-list link")
	}
	if factory == nil {
		factory = func() EntryLike { return &AccessRule{} }
	}
	return s.Query(ctx, domain, link.Href, nil, factory)
}
