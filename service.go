package gdata

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/godata-project/godata/internal/logger"
)

// WireFormat selects the serialization a service speaks on the wire.
type WireFormat int

const (
	// WireAtom is the classic GData Atom (XML) protocol.
	WireAtom WireFormat = iota
	// WireJSON is the JSON protocol used by the newer API versions.
	WireJSON
)

func (w WireFormat) contentType() string {
	if w == WireJSON {
		return "application/json"
	}
	return "application/atom+xml"
}

// ServiceConfig configures a Service. The zero value is usable for
// anonymous access to public feeds; the per-service façades fill in wire
// format, API version and rate limits.
type ServiceConfig struct {
	// Authorizer signs outgoing requests. Nil means unauthenticated.
	Authorizer Authorizer
	// Client is the HTTP client to use. Nil means a fresh default client.
	Client *http.Client
	// Timeout bounds each request attempt. Values below one second are
	// raised to one second; zero means 30 seconds.
	Timeout time.Duration
	// Locale is sent as Accept-Language when non-empty.
	Locale string
	// Wire selects Atom or JSON serialization.
	Wire WireFormat
	// APIVersion is sent as the GData-Version header when non-empty.
	APIVersion string
	// RateLimiter throttles outgoing requests. Nil disables throttling.
	RateLimiter *RateLimiter
	// ErrorHook refines error envelopes with service-specific knowledge.
	ErrorHook ErrorHook
	// ExtraHeaders are added to every request (developer keys and the like).
	ExtraHeaders map[string]string
	// BatchUnsupported marks services whose batch endpoints reject all
	// operations; Run on a batch then fails without touching the network.
	BatchUnsupported bool
}

// Service issues authorized requests against one GData service and maps the
// responses onto parsed entities and typed errors. A Service is safe for
// concurrent use; requests in flight when the authorizer is swapped finish
// with the credentials they started with.
type Service struct {
	client           *http.Client
	wire             WireFormat
	apiVersion       string
	limiter          *RateLimiter
	errorHook        ErrorHook
	extraHeaders     map[string]string
	batchUnsupported bool

	mu         sync.RWMutex
	authorizer Authorizer
	locale     string
	timeout    time.Duration
	observers  []func(Authorizer)
}

// NewService creates a Service from cfg.
func NewService(cfg ServiceConfig) *Service {
	client := cfg.Client
	if client == nil {
		client = &http.Client{}
	}
	timeout := cfg.Timeout
	switch {
	case timeout == 0:
		timeout = 30 * time.Second
	case timeout < time.Second:
		timeout = time.Second
	}
	return &Service{
		client:           client,
		wire:             cfg.Wire,
		apiVersion:       cfg.APIVersion,
		limiter:          cfg.RateLimiter,
		errorHook:        cfg.ErrorHook,
		extraHeaders:     cfg.ExtraHeaders,
		batchUnsupported: cfg.BatchUnsupported,
		authorizer:       cfg.Authorizer,
		locale:           cfg.Locale,
		timeout:          timeout,
	}
}

// Authorizer returns the current authorizer, which may be nil.
func (s *Service) Authorizer() Authorizer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.authorizer
}

// SetAuthorizer replaces the service's authorizer and notifies every
// registered observer. In-flight requests keep the authorizer they started
// with.
func (s *Service) SetAuthorizer(a Authorizer) {
	s.mu.Lock()
	s.authorizer = a
	observers := make([]func(Authorizer), len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()
	for _, fn := range observers {
		fn(a)
	}
}

// OnAuthorizationChange registers fn to be called whenever SetAuthorizer
// replaces the service's authorizer.
func (s *Service) OnAuthorizationChange(fn func(Authorizer)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Locale returns the Accept-Language locale, or "".
func (s *Service) Locale() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locale
}

// SetLocale sets the Accept-Language locale; "" restores the server default.
func (s *Service) SetLocale(locale string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locale = locale
}

// Timeout returns the per-attempt request timeout.
func (s *Service) Timeout() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeout
}

// SetTimeout sets the per-attempt request timeout, with a one second floor.
func (s *Service) SetTimeout(d time.Duration) {
	if d < time.Second {
		d = time.Second
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
}

// Wire returns the service's wire format.
func (s *Service) Wire() WireFormat { return s.wire }

// BatchSupported reports whether the service accepts batch operations.
func (s *Service) BatchSupported() bool { return !s.batchUnsupported }

// do sends one request and returns the status, response headers and body.
// It applies rate limiting, authorization, the per-attempt timeout and a
// single re-authorization retry on 401 when the authorizer is refreshable.
// Error responses are returned as (status, header, body, nil); the caller
// maps them with s.statusError so conditional-request statuses like 304 can
// keep their meaning per operation.
func (s *Service) do(ctx context.Context, domain AuthorizationDomain, method, uri string, header http.Header, body []byte) (int, http.Header, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, nil, WrapError(KindCancelled, "request not sent", err)
	}
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return 0, nil, nil, mapTransportError(err)
		}
	}

	s.mu.RLock()
	auth := s.authorizer
	locale := s.locale
	timeout := s.timeout
	s.mu.RUnlock()

	retried := false
	for {
		status, respHeader, respBody, err := s.attempt(ctx, auth, domain, method, uri, header, body, locale, timeout)
		if err != nil {
			return 0, nil, nil, err
		}

		if status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable {
			if s.limiter != nil {
				seconds, _ := strconv.Atoi(respHeader.Get("Retry-After"))
				s.limiter.RecordRetryAfter(seconds)
			}
		}

		if status == http.StatusUnauthorized && !retried {
			if ra, ok := auth.(RefreshableAuthorizer); ok {
				if rerr := ra.RefreshAuthorization(ctx); rerr == nil {
					retried = true
					continue
				}
			}
		}
		return status, respHeader, respBody, nil
	}
}

func (s *Service) attempt(ctx context.Context, auth Authorizer, domain AuthorizationDomain, method, uri string, header http.Header, body []byte, locale string, timeout time.Duration) (int, http.Header, []byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, uri, reqBody)
	if err != nil {
		return 0, nil, nil, WrapError(KindProtocol, "building request", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if locale != "" {
		req.Header.Set("Accept-Language", locale)
	}
	if s.apiVersion != "" {
		req.Header.Set("GData-Version", s.apiVersion)
	}
	for k, v := range s.extraHeaders {
		req.Header.Set(k, v)
	}
	if auth != nil {
		auth.ProcessRequest(req, domain)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		// The parent context decides between cancellation and a timeout of
		// our own making; the latter is a network failure from the caller's
		// point of view.
		if ctx.Err() == context.Canceled {
			return 0, nil, nil, WrapError(KindCancelled, "request cancelled", err)
		}
		return 0, nil, nil, mapTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	logger.Request(method, uri, resp.StatusCode, time.Since(start))
	if err != nil {
		if ctx.Err() == context.Canceled {
			return 0, nil, nil, WrapError(KindCancelled, "response abandoned", err)
		}
		return 0, nil, nil, WrapError(KindNetwork, "reading response", err)
	}
	return resp.StatusCode, resp.Header, respBody, nil
}

func mapTransportError(err error) *Error {
	switch {
	case errors.Is(err, context.Canceled):
		return WrapError(KindCancelled, "request cancelled", err)
	case errors.Is(err, context.DeadlineExceeded):
		return WrapError(KindNetwork, "request timed out", err)
	default:
		return WrapError(KindNetwork, "request failed", err)
	}
}

// statusError maps a non-2xx response onto a typed error. The error body is
// consulted first (service hooks refine it); the status code decides when
// the body carries no recognizable envelope.
func (s *Service) statusError(status int, header http.Header, body []byte) error {
	if e := refineFromEnvelope(status, header.Get("Content-Type"), body, s.errorHook); e != nil {
		return e
	}
	switch status {
	case http.StatusNotModified:
		return ErrNotModified
	case http.StatusUnauthorized:
		return NewError(KindAuthenticationRequired, string(body))
	case http.StatusForbidden:
		return NewError(KindForbidden, string(body))
	case http.StatusNotFound, http.StatusGone:
		return NewError(KindNotFound, "")
	case http.StatusConflict, http.StatusPreconditionFailed:
		return NewError(KindConflict, string(body))
	case http.StatusTooManyRequests:
		return NewError(KindAPIQuotaExceeded, string(body))
	case http.StatusBadGateway, http.StatusServiceUnavailable:
		return NewError(KindUnavailable, "")
	default:
		return NewError(KindProtocol, "unexpected response status "+strconv.Itoa(status))
	}
}

func isSuccess(status int) bool { return status >= 200 && status < 300 }

// marshalEntry serializes entry according to the service's wire format and
// returns the body plus its content type.
func (s *Service) marshalEntry(entry EntryLike) ([]byte, string, error) {
	if s.wire == WireJSON {
		jp, ok := entry.(JSONParsable)
		if !ok {
			return nil, "", NewError(KindProtocol, "entry type is not JSON-serializable")
		}
		data, err := MarshalJSONObject(jp)
		if err != nil {
			return nil, "", err
		}
		return data, s.wire.contentType(), nil
	}
	xp, ok := entry.(XMLParsable)
	if !ok {
		return nil, "", NewError(KindProtocol, "entry type is not XML-serializable")
	}
	data, err := MarshalXML(xp)
	if err != nil {
		return nil, "", err
	}
	return data, s.wire.contentType(), nil
}

// parseEntryBody parses a response body into a fresh entry from factory.
func (s *Service) parseEntryBody(body []byte, factory EntryFactory) (EntryLike, error) {
	entry := factory()
	if s.wire == WireJSON {
		jp, ok := entry.(JSONParsable)
		if !ok {
			return nil, NewError(KindProtocol, "entry type is not JSON-parsable")
		}
		if err := ParseJSONObject(jp, body); err != nil {
			return nil, err
		}
		return entry, nil
	}
	xp, ok := entry.(XMLParsable)
	if !ok {
		return nil, NewError(KindProtocol, "entry type is not XML-parsable")
	}
	if err := ParseXMLBytes(xp, body); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *Service) parseFeedBody(body []byte, factory EntryFactory, progress QueryProgressFunc) (*Feed, error) {
	if s.wire == WireJSON {
		return parseFeedJSON(body, factory, progress)
	}
	return parseFeedXML(body, factory, progress)
}

// Query fetches the feed at feedURI, filtered by q (which may be nil), and
// parses each entry with factory. When q carries an ETag and the feed is
// unchanged, Query returns (nil, ErrNotModified).
func (s *Service) Query(ctx context.Context, domain AuthorizationDomain, feedURI string, q Queryable, factory EntryFactory) (*Feed, error) {
	return s.QueryWithProgress(ctx, domain, feedURI, q, factory, nil, nil)
}

// QueryWithProgress is Query with a per-entry progress callback. done, when
// non-nil, is invoked exactly once after the query completes, whether it
// succeeded or not; callers use it to release resources captured by
// progress.
func (s *Service) QueryWithProgress(ctx context.Context, domain AuthorizationDomain, feedURI string, q Queryable, factory EntryFactory, progress QueryProgressFunc, done func()) (*Feed, error) {
	if done != nil {
		defer done()
	}

	uri := BuildQueryURI(feedURI, q)
	header := make(http.Header)
	if q != nil && q.ETag() != "" {
		header.Set("If-None-Match", q.ETag())
	}

	status, respHeader, body, err := s.do(ctx, domain, http.MethodGet, uri, header, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, s.statusError(status, respHeader, body)
	}
	return s.parseFeedBody(body, factory, progress)
}

// QuerySingle fetches the single entry at entryURI.
func (s *Service) QuerySingle(ctx context.Context, domain AuthorizationDomain, entryURI string, factory EntryFactory) (EntryLike, error) {
	status, respHeader, body, err := s.do(ctx, domain, http.MethodGet, entryURI, nil, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, s.statusError(status, respHeader, body)
	}
	return s.parseEntryBody(body, factory)
}

// Insert uploads entry to the insertion URI and returns the server's
// representation, parsed with factory. Inserting an entry that already
// exists on the server is a conflict.
func (s *Service) Insert(ctx context.Context, domain AuthorizationDomain, uri string, entry EntryLike, factory EntryFactory) (EntryLike, error) {
	if entry.CommonEntry().IsInserted() {
		return nil, NewError(KindConflict, "entry has already been inserted")
	}
	body, contentType, err := s.marshalEntry(entry)
	if err != nil {
		return nil, err
	}
	header := make(http.Header)
	header.Set("Content-Type", contentType)

	status, respHeader, respBody, err := s.do(ctx, domain, http.MethodPost, uri, header, body)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, s.statusError(status, respHeader, respBody)
	}
	inserted, err := s.parseEntryBody(respBody, factory)
	if err != nil {
		return nil, err
	}
	inserted.CommonEntry().MarkInserted()
	return inserted, nil
}

// Update pushes entry's current state to the server and returns the new
// representation. The entry's ETag, when present, is sent as If-Match so a
// concurrent modification surfaces as a conflict instead of a lost update.
func (s *Service) Update(ctx context.Context, domain AuthorizationDomain, entry EntryLike, factory EntryFactory) (EntryLike, error) {
	common := entry.CommonEntry()
	uri := entryEditURI(common)
	if uri == "" {
		return nil, NewError(KindProtocol, "entry carries no edit URI")
	}
	body, contentType, err := s.marshalEntry(entry)
	if err != nil {
		return nil, err
	}
	header := make(http.Header)
	header.Set("Content-Type", contentType)
	if common.ETag != "" {
		header.Set("If-Match", common.ETag)
	}

	status, respHeader, respBody, err := s.do(ctx, domain, http.MethodPut, uri, header, body)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, s.statusError(status, respHeader, respBody)
	}
	updated, err := s.parseEntryBody(respBody, factory)
	if err != nil {
		return nil, err
	}
	updated.CommonEntry().MarkInserted()
	return updated, nil
}

// Delete removes entry from the server. The entry's ETag, when present, is
// sent as If-Match.
func (s *Service) Delete(ctx context.Context, domain AuthorizationDomain, entry EntryLike) error {
	common := entry.CommonEntry()
	uri := entryEditURI(common)
	if uri == "" {
		return NewError(KindProtocol, "entry carries no edit URI")
	}
	header := make(http.Header)
	if common.ETag != "" {
		header.Set("If-Match", common.ETag)
	}

	status, respHeader, body, err := s.do(ctx, domain, http.MethodDelete, uri, header, nil)
	if err != nil {
		return err
	}
	if !isSuccess(status) {
		return s.statusError(status, respHeader, body)
	}
	return nil
}

// entryEditURI resolves the URI that modifications of e are addressed to:
// the edit link when present, the self link otherwise, the entry ID as a
// last resort for services that use the ID as the entry URI.
func entryEditURI(e *Entry) string {
	if l := e.LookupLink(RelEdit); l != nil {
		return l.Href
	}
	if l := e.LookupLink(RelSelf); l != nil {
		return l.Href
	}
	return e.ID
}

// GetCategories fetches an Atom category document and returns its
// categories. Localized category labels follow the service locale.
func (s *Service) GetCategories(ctx context.Context, domain AuthorizationDomain, uri string) ([]Category, error) {
	status, respHeader, body, err := s.do(ctx, domain, http.MethodGet, uri, nil, nil)
	if err != nil {
		return nil, err
	}
	if !isSuccess(status) {
		return nil, s.statusError(status, respHeader, body)
	}

	var doc struct {
		XMLName    xml.Name `xml:"categories"`
		Categories []struct {
			Scheme string `xml:"scheme,attr"`
			Term   string `xml:"term,attr"`
			Label  string `xml:"label,attr"`
		} `xml:"category"`
	}
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, WrapError(KindProtocol, "malformed category document", err)
	}
	categories := make([]Category, 0, len(doc.Categories))
	for _, c := range doc.Categories {
		categories = append(categories, Category{Scheme: c.Scheme, Term: c.Term, Label: c.Label})
	}
	return categories, nil
}
