package gdata

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// ErrorKind classifies a failure returned by the library. Callers never see
// raw HTTP status codes; every response is mapped onto exactly one kind.
type ErrorKind int

const (
	// KindProtocol indicates a malformed or unrecognized server response.
	KindProtocol ErrorKind = iota
	// KindAuthenticationRequired indicates missing or rejected credentials.
	KindAuthenticationRequired
	// KindBadAuthentication indicates a wrong username or password.
	KindBadAuthentication
	// KindInvalidSecondFactor indicates the account requires an
	// application-specific password.
	KindInvalidSecondFactor
	// KindNotVerified indicates the account e-mail address is unverified.
	KindNotVerified
	// KindTermsNotAgreed indicates the account terms of service are pending.
	KindTermsNotAgreed
	// KindAccountDeleted indicates the account has been deleted.
	KindAccountDeleted
	// KindAccountDisabled indicates the account has been disabled.
	KindAccountDisabled
	// KindAccountMigrated indicates the account moved to a hosted domain.
	KindAccountMigrated
	// KindServiceDisabled indicates the service is disabled for the account.
	KindServiceDisabled
	// KindForbidden indicates the action is not permitted for this principal.
	KindForbidden
	// KindAPIQuotaExceeded indicates too many API calls were made recently.
	KindAPIQuotaExceeded
	// KindEntryQuotaExceeded indicates the per-account entry quota was hit.
	KindEntryQuotaExceeded
	// KindChannelRequired indicates the account needs a YouTube channel.
	KindChannelRequired
	// KindNotFound indicates the resource does not exist.
	KindNotFound
	// KindConflict indicates an ETag mismatch or duplicate key.
	KindConflict
	// KindUnavailable indicates server-side maintenance or overload.
	KindUnavailable
	// KindNetwork indicates a timeout, DNS failure or connection reset.
	KindNetwork
	// KindCancelled indicates caller cancellation.
	KindCancelled
	// KindWithBatchOperation indicates the batch endpoint refused the whole
	// batch.
	KindWithBatchOperation
)

// Sentinel errors for errors.Is matching. Every *Error produced by the
// library matches exactly one of these.
var (
	ErrProtocol               = errors.New("gdata: protocol error")
	ErrAuthenticationRequired = errors.New("gdata: authentication required")
	ErrBadAuthentication      = errors.New("gdata: bad authentication")
	ErrInvalidSecondFactor    = errors.New("gdata: invalid second factor")
	ErrNotVerified            = errors.New("gdata: account not verified")
	ErrTermsNotAgreed         = errors.New("gdata: terms of service not agreed")
	ErrAccountDeleted         = errors.New("gdata: account deleted")
	ErrAccountDisabled        = errors.New("gdata: account disabled")
	ErrAccountMigrated        = errors.New("gdata: account migrated")
	ErrServiceDisabled        = errors.New("gdata: service disabled for this account")
	ErrForbidden              = errors.New("gdata: forbidden")
	ErrAPIQuotaExceeded       = errors.New("gdata: API quota exceeded")
	ErrEntryQuotaExceeded     = errors.New("gdata: entry quota exceeded")
	ErrChannelRequired        = errors.New("gdata: a channel is required")
	ErrNotFound               = errors.New("gdata: resource not found")
	ErrConflict               = errors.New("gdata: conflict")
	ErrUnavailable            = errors.New("gdata: service unavailable")
	ErrNetwork                = errors.New("gdata: network error")
	ErrCancelled              = errors.New("gdata: operation cancelled")
	ErrWithBatchOperation     = errors.New("gdata: batch operation rejected")

	// ErrNotModified is returned by conditional queries when the server
	// reports 304 Not Modified. It is a success signal, not a failure: the
	// caller's cached feed is still current.
	ErrNotModified = errors.New("gdata: not modified")
)

var kindSentinels = map[ErrorKind]error{
	KindProtocol:               ErrProtocol,
	KindAuthenticationRequired: ErrAuthenticationRequired,
	KindBadAuthentication:      ErrBadAuthentication,
	KindInvalidSecondFactor:    ErrInvalidSecondFactor,
	KindNotVerified:            ErrNotVerified,
	KindTermsNotAgreed:         ErrTermsNotAgreed,
	KindAccountDeleted:         ErrAccountDeleted,
	KindAccountDisabled:        ErrAccountDisabled,
	KindAccountMigrated:        ErrAccountMigrated,
	KindServiceDisabled:        ErrServiceDisabled,
	KindForbidden:              ErrForbidden,
	KindAPIQuotaExceeded:       ErrAPIQuotaExceeded,
	KindEntryQuotaExceeded:     ErrEntryQuotaExceeded,
	KindChannelRequired:        ErrChannelRequired,
	KindNotFound:               ErrNotFound,
	KindConflict:               ErrConflict,
	KindUnavailable:            ErrUnavailable,
	KindNetwork:                ErrNetwork,
	KindCancelled:              ErrCancelled,
	KindWithBatchOperation:     ErrWithBatchOperation,
}

// Error is the typed error returned by the request engine and authorizers.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Message is a human-readable description, usually from the server.
	Message string
	// Domain and Code carry the server's error-envelope fields, when the
	// response included a recognizable envelope.
	Domain string
	Code   string
	// Location is the field or parameter the server blamed, if any.
	Location string
	// URI is an account-recovery or help URI supplied by the server
	// (ClientLogin failures carry one).
	URI string

	err error
}

func (e *Error) Error() string {
	s, ok := kindSentinels[e.Kind]
	if !ok {
		s = ErrProtocol
	}
	if e.Message == "" {
		return s.Error()
	}
	return fmt.Sprintf("%s: %s", s.Error(), e.Message)
}

// Is reports whether target is the sentinel for this error's kind, so that
// errors.Is(err, gdata.ErrNotFound) works on wrapped errors.
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

func (e *Error) Unwrap() error { return e.err }

// NewError builds an *Error of the given kind. The message may be empty.
func NewError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError builds an *Error of the given kind wrapping an underlying cause.
func WrapError(kind ErrorKind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, err: err}
}

// IsNotFound reports whether err indicates a missing resource.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsConflict reports whether err indicates an ETag mismatch or duplicate.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsCancelled reports whether err indicates caller cancellation.
func IsCancelled(err error) bool { return errors.Is(err, ErrCancelled) }

// IsAuthenticationRequired reports whether err indicates missing or rejected
// credentials.
func IsAuthenticationRequired(err error) bool {
	return errors.Is(err, ErrAuthenticationRequired)
}

// IsQuotaExceeded reports whether err indicates either form of throttling.
func IsQuotaExceeded(err error) bool {
	return errors.Is(err, ErrAPIQuotaExceeded) || errors.Is(err, ErrEntryQuotaExceeded)
}

// FromGoogleAPIError folds a googleapi.Error (as produced by the official
// Google API clients) into the library's taxonomy. Applications mixing this
// library with google.golang.org/api clients get a uniform error surface.
func FromGoogleAPIError(gerr *googleapi.Error) *Error {
	e := &Error{Message: gerr.Message, err: gerr}
	if len(gerr.Errors) > 0 {
		e.Domain = gerr.Errors[0].Reason
	}
	switch gerr.Code {
	case 401:
		e.Kind = KindAuthenticationRequired
	case 403:
		e.Kind = KindForbidden
	case 404:
		e.Kind = KindNotFound
	case 409, 412:
		e.Kind = KindConflict
	case 429:
		e.Kind = KindAPIQuotaExceeded
	case 500, 502, 503:
		e.Kind = KindUnavailable
	default:
		e.Kind = KindProtocol
	}
	return e
}
