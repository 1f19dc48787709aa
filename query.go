package gdata

import (
	"strconv"
	"strings"
	"time"
)

// Queryable renders query parameters onto a feed URI. Service-specific
// query types embed Query and chain their AppendParams to it.
type Queryable interface {
	AppendParams(w *ParamWriter)
	ETag() string
}

// ParamWriter accumulates rendered query parameters, choosing '?' or '&'
// according to whether the base URI already carried parameters.
type ParamWriter struct {
	b       strings.Builder
	started bool
}

func (w *ParamWriter) sep() {
	if w.started {
		w.b.WriteByte('&')
	} else {
		w.b.WriteByte('?')
		w.started = true
	}
}

// Add renders name=value with the value emitted verbatim. Use it for values
// that are URI-safe by construction (RFC 3339 timestamps, integers).
func (w *ParamWriter) Add(name, value string) {
	w.sep()
	w.b.WriteString(name)
	w.b.WriteByte('=')
	w.b.WriteString(value)
}

// AddEscaped renders name=value with the value percent-encoded.
func (w *ParamWriter) AddEscaped(name, value string) {
	w.Add(name, escapeQueryValue(value))
}

// AddInt renders an integer parameter.
func (w *ParamWriter) AddInt(name string, value int) {
	w.Add(name, strconv.Itoa(value))
}

// AddBool renders a boolean parameter as true/false.
func (w *ParamWriter) AddBool(name string, value bool) {
	w.Add(name, FormatBool(value))
}

func (w *ParamWriter) String() string { return w.b.String() }

// BuildQueryURI renders q's parameters onto feedURI. Pre-existing URL
// arguments in the base URI are preserved; additions are appended with '&'.
// A nil q returns feedURI unchanged.
func BuildQueryURI(feedURI string, q Queryable) string {
	if q == nil {
		return feedURI
	}
	if cq, ok := q.(interface{ Categories() string }); ok && cq.Categories() != "" {
		feedURI += "/-/" + escapeCategoryPath(cq.Categories())
	}
	w := &ParamWriter{started: strings.Contains(feedURI, "?")}
	q.AppendParams(w)
	return feedURI + w.String()
}

// escapeCategoryPath percent-encodes a category filter expression while
// keeping the '/' (conjunction) and '|' (alternation) operators intact.
func escapeCategoryPath(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '/' || c == '|' {
			b.WriteByte(c)
			continue
		}
		b.WriteString(escapeQueryValue(string(c)))
	}
	return b.String()
}

// Query is the recognized-parameter bag shared by all services. Every
// mutator clears the query's ETag: a modified query no longer addresses the
// representation the ETag versioned.
type Query struct {
	q            string
	categories   string
	author       string
	updatedMin   time.Time
	updatedMax   time.Time
	publishedMin time.Time
	publishedMax time.Time
	startIndex   int
	maxResults   int
	pageToken    string
	etag         string
}

// NewQuery returns a query with its full-text term set; q may be empty.
func NewQuery(q string) *Query {
	return &Query{q: q}
}

// Q returns the full-text query string.
func (q *Query) Q() string { return q.q }

// SetQ sets the full-text query string.
func (q *Query) SetQ(v string) { q.q = v; q.etag = "" }

// Categories returns the category filter expression.
func (q *Query) Categories() string { return q.categories }

// SetCategories sets the category filter. Categories are rendered into the
// URI path ("/-/" syntax); '|' separates alternatives and '/' conjunctions.
func (q *Query) SetCategories(v string) { q.categories = v; q.etag = "" }

// Author returns the author filter.
func (q *Query) Author() string { return q.author }

// SetAuthor sets the author filter.
func (q *Query) SetAuthor(v string) { q.author = v; q.etag = "" }

// UpdatedMin returns the lower bound on entry update time.
func (q *Query) UpdatedMin() time.Time { return q.updatedMin }

// SetUpdatedMin sets the lower bound on entry update time.
func (q *Query) SetUpdatedMin(t time.Time) { q.updatedMin = t; q.etag = "" }

// UpdatedMax returns the exclusive upper bound on entry update time.
func (q *Query) UpdatedMax() time.Time { return q.updatedMax }

// SetUpdatedMax sets the exclusive upper bound on entry update time.
func (q *Query) SetUpdatedMax(t time.Time) { q.updatedMax = t; q.etag = "" }

// PublishedMin returns the lower bound on entry publication time.
func (q *Query) PublishedMin() time.Time { return q.publishedMin }

// SetPublishedMin sets the lower bound on entry publication time.
func (q *Query) SetPublishedMin(t time.Time) { q.publishedMin = t; q.etag = "" }

// PublishedMax returns the exclusive upper bound on publication time.
func (q *Query) PublishedMax() time.Time { return q.publishedMax }

// SetPublishedMax sets the exclusive upper bound on publication time.
func (q *Query) SetPublishedMax(t time.Time) { q.publishedMax = t; q.etag = "" }

// StartIndex returns the one-based index of the first result, or 0.
func (q *Query) StartIndex() int { return q.startIndex }

// SetStartIndex sets the one-based index of the first result. Prefer feed
// pagination (Feed.NextPageURI) over manual start indices.
func (q *Query) SetStartIndex(v int) { q.startIndex = v; q.etag = "" }

// MaxResults returns the page-size cap, or 0 for the server default.
func (q *Query) MaxResults() int { return q.maxResults }

// SetMaxResults caps the number of results per page.
func (q *Query) SetMaxResults(v int) { q.maxResults = v; q.etag = "" }

// PageToken returns the continuation token for JSON services.
func (q *Query) PageToken() string { return q.pageToken }

// SetPageToken sets the continuation token for JSON services.
func (q *Query) SetPageToken(v string) { q.pageToken = v; q.etag = "" }

// ETag returns the ETag for conditional queries, or "".
func (q *Query) ETag() string { return q.etag }

// SetETag arms the query for a conditional request. The next mutation
// clears it.
func (q *Query) SetETag(v string) { q.etag = v }

// ClearETag drops the conditional-request ETag. Subtype mutators call it.
func (q *Query) ClearETag() { q.etag = "" }

// AppendParams renders the common parameters followed by pagination.
func (q *Query) AppendParams(w *ParamWriter) {
	q.AppendCommonParams(w)
	q.AppendPaginationParams(w)
}

// AppendCommonParams renders the filter parameters shared by every service
// (full-text term, author, time windows) under their classic GData names.
// Subtypes that rename pagination per their API version chain to this and
// render pagination themselves.
func (q *Query) AppendCommonParams(w *ParamWriter) {
	if q.q != "" {
		w.AddEscaped("q", q.q)
	}
	if q.author != "" {
		w.AddEscaped("author", q.author)
	}
	if !q.updatedMin.IsZero() {
		w.Add("updated-min", FormatTime(q.updatedMin))
	}
	if !q.updatedMax.IsZero() {
		w.Add("updated-max", FormatTime(q.updatedMax))
	}
	if !q.publishedMin.IsZero() {
		w.Add("published-min", FormatTime(q.publishedMin))
	}
	if !q.publishedMax.IsZero() {
		w.Add("published-max", FormatTime(q.publishedMax))
	}
}

// AppendPaginationParams renders start-index, max-results and pageToken.
func (q *Query) AppendPaginationParams(w *ParamWriter) {
	if q.startIndex > 0 {
		w.AddInt("start-index", q.startIndex)
	}
	if q.maxResults > 0 {
		w.AddInt("max-results", q.maxResults)
	}
	if q.pageToken != "" {
		w.AddEscaped("pageToken", q.pageToken)
	}
}
