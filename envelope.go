package gdata

import (
	"encoding/json"
	"encoding/xml"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// ErrorHook lets a service façade refine the error mapped from a response
// body; YouTube turns specific 403 reasons into quota or channel errors.
// The hook returns nil when the (domain, reason) pair means nothing to it.
type ErrorHook func(status int, domain, reason, message string) *Error

type errorMatrixKey struct {
	domain string
	code   string
}

// Known XML error-envelope domain/code pairs. Anything else inside a
// well-formed envelope defers to status-based mapping.
var xmlErrorKinds = map[errorMatrixKey]ErrorKind{
	{"GData", "invalid"}:                            KindProtocol,
	{"GData", "invalidParameter"}:                   KindProtocol,
	{"GData", "required"}:                           KindProtocol,
	{"GData", "internalError"}:                      KindUnavailable,
	{"GData", "serviceUnavailable"}:                 KindUnavailable,
	{"GData", "quotaExceeded"}:                      KindAPIQuotaExceeded,
	{"GData", "tooManyRecentCalls"}:                 KindAPIQuotaExceeded,
	{"yt:quota", "too_many_recent_calls"}:           KindAPIQuotaExceeded,
	{"yt:quota", "too_many_entries"}:                KindEntryQuotaExceeded,
	{"yt:service", "youtube_signup_required"}:       KindChannelRequired,
	{"yt:service", "disabled_in_maintenance_mode"}:  KindUnavailable,
	{"yt:authentication", "TokenExpired"}:           KindAuthenticationRequired,
	{"yt:authentication", "InvalidToken"}:           KindAuthenticationRequired,
	{"gd:etag", "mismatch"}:                         KindConflict,
	{"GData", "versionConflict"}:                    KindConflict,
	{"GData", "noLongerAvailable"}:                  KindNotFound,
}

type xmlErrorEnvelope struct {
	XMLName xml.Name `xml:"errors"`
	Errors  []struct {
		Domain   string `xml:"domain"`
		Code     string `xml:"code"`
		Location string `xml:"location"`
	} `xml:"error"`
}

type jsonErrorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Domain       string `json:"domain"`
			Reason       string `json:"reason"`
			Message      string `json:"message"`
			LocationType string `json:"locationType"`
			Location     string `json:"location"`
		} `json:"errors"`
	} `json:"error"`
}

// refineFromEnvelope parses a service error envelope (XML or JSON,
// whichever the body turns out to be) and maps it to a typed error. It
// returns nil when the body carries no recognizable envelope at all; the
// caller then falls back to status-based mapping. A well-formed envelope
// with an unknown domain/code pair also defers to the status mapping when
// the status carries a typed meaning of its own (404, 409, 412 and the
// like); only statuses with no mapping of their own turn an unknown pair
// into a protocol error.
func refineFromEnvelope(status int, contentType string, body []byte, hook ErrorHook) *Error {
	if len(body) == 0 {
		return nil
	}
	if strings.Contains(contentType, "json") || (len(body) > 0 && body[0] == '{') {
		return refineFromJSONEnvelope(status, body, hook)
	}
	return refineFromXMLEnvelope(status, body, hook)
}

func refineFromXMLEnvelope(status int, body []byte, hook ErrorHook) *Error {
	var env xmlErrorEnvelope
	if err := xml.Unmarshal(body, &env); err != nil || len(env.Errors) == 0 {
		return nil
	}
	first := env.Errors[0]
	if hook != nil {
		if e := hook(status, first.Domain, first.Code, ""); e != nil {
			e.Domain, e.Code, e.Location = first.Domain, first.Code, first.Location
			return e
		}
	}
	kind, ok := xmlErrorKinds[errorMatrixKey{first.Domain, first.Code}]
	if !ok {
		if statusKeepsMeaning(status) {
			return nil
		}
		kind = KindProtocol
	}
	return &Error{Kind: kind, Domain: first.Domain, Code: first.Code, Location: first.Location}
}

func refineFromJSONEnvelope(status int, body []byte, hook ErrorHook) *Error {
	var env jsonErrorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Code == 0 {
		return nil
	}

	// Keep the decoded envelope available to applications that also use the
	// official Google API clients.
	cause := &googleapi.Error{Code: env.Error.Code, Message: env.Error.Message}
	for _, item := range env.Error.Errors {
		cause.Errors = append(cause.Errors, googleapi.ErrorItem{Reason: item.Reason, Message: item.Message})
	}

	var domain, reason, message string
	if len(env.Error.Errors) > 0 {
		domain = env.Error.Errors[0].Domain
		reason = env.Error.Errors[0].Reason
		message = env.Error.Errors[0].Message
	}
	if message == "" {
		message = env.Error.Message
	}

	if hook != nil {
		if e := hook(status, domain, reason, message); e != nil {
			e.Domain, e.Code = domain, reason
			if e.err == nil {
				e.err = cause
			}
			return e
		}
	}

	switch {
	case domain == "usageLimits" && reason == "dailyLimitExceededUnreg":
		return &Error{Kind: KindAPIQuotaExceeded, Message: message, Domain: domain, Code: reason, err: cause}
	case domain == "global" && (reason == "authError" || reason == "required"):
		return &Error{Kind: KindAuthenticationRequired, Message: message, Domain: domain, Code: reason, err: cause}
	}
	if statusKeepsMeaning(status) {
		return nil
	}
	return &Error{Kind: KindProtocol, Message: message, Domain: domain, Code: reason, err: cause}
}

// statusKeepsMeaning reports whether a status maps onto a typed error of its
// own. Calendar wraps every error, missing resources and ETag mismatches
// included, in the JSON envelope; an unknown domain/reason pair on such a
// status must not mask the status's classification.
func statusKeepsMeaning(status int) bool {
	switch status {
	case http.StatusNotModified, http.StatusUnauthorized, http.StatusForbidden,
		http.StatusNotFound, http.StatusGone, http.StatusConflict,
		http.StatusPreconditionFailed, http.StatusTooManyRequests,
		http.StatusBadGateway, http.StatusServiceUnavailable:
		return true
	}
	return false
}
