package calendar

import (
	"strings"
	"time"

	gdata "github.com/godata-project/godata"
)

// CalendarQuery filters calendar-list queries.
type CalendarQuery struct {
	gdata.Query

	minAccessRole string
	showHidden    bool
}

// NewCalendarQuery returns an empty calendar-list query.
func NewCalendarQuery() *CalendarQuery { return &CalendarQuery{} }

// MinAccessRole returns the least privileged role calendars must grant.
func (q *CalendarQuery) MinAccessRole() string { return q.minAccessRole }

// SetMinAccessRole restricts results to calendars granting at least role.
func (q *CalendarQuery) SetMinAccessRole(role string) {
	q.minAccessRole = role
	q.ClearETag()
}

// ShowHidden reports whether hidden calendars are included.
func (q *CalendarQuery) ShowHidden() bool { return q.showHidden }

// SetShowHidden includes hidden calendars in the results.
func (q *CalendarQuery) SetShowHidden(v bool) {
	q.showHidden = v
	q.ClearETag()
}

// AppendParams renders the calendar-list parameters.
func (q *CalendarQuery) AppendParams(w *gdata.ParamWriter) {
	q.AppendCommonParams(w)
	if q.MaxResults() > 0 {
		w.AddInt("maxResults", q.MaxResults())
	}
	if q.minAccessRole != "" {
		w.AddEscaped("minAccessRole", q.minAccessRole)
	}
	if q.showHidden {
		w.AddBool("showHidden", true)
	}
	if q.PageToken() != "" {
		w.AddEscaped("pageToken", q.PageToken())
	}
}

// Event ordering values for EventsQuery.SetOrderBy.
const (
	OrderByStartTime = "starttime"
	OrderByUpdated   = "updated"
)

// EventsQuery filters event queries. Zero-value boolean parameters are
// still rendered: the server defaults for singleEvents and showDeleted
// have changed over API revisions, so the query pins them explicitly.
type EventsQuery struct {
	gdata.Query

	orderBy      string
	singleEvents bool
	startMin     time.Time
	startMax     time.Time
	futureEvents bool
	timeZone     string
	maxAttendees int
	showDeleted  bool
}

// NewEventsQuery returns an events query with the full-text term set; q may
// be empty.
func NewEventsQuery(q string) *EventsQuery {
	eq := &EventsQuery{}
	eq.SetQ(q)
	return eq
}

// OrderBy returns the result ordering.
func (q *EventsQuery) OrderBy() string { return q.orderBy }

// SetOrderBy orders results by OrderByStartTime or OrderByUpdated.
// Ordering by start time requires single-event expansion.
func (q *EventsQuery) SetOrderBy(v string) { q.orderBy = v; q.ClearETag() }

// SingleEvents reports whether recurring events are expanded.
func (q *EventsQuery) SingleEvents() bool { return q.singleEvents }

// SetSingleEvents expands recurring events into their instances.
func (q *EventsQuery) SetSingleEvents(v bool) { q.singleEvents = v; q.ClearETag() }

// StartMin returns the inclusive lower bound on event end time.
func (q *EventsQuery) StartMin() time.Time { return q.startMin }

// SetStartMin keeps only events ending at or after t.
func (q *EventsQuery) SetStartMin(t time.Time) { q.startMin = t; q.ClearETag() }

// StartMax returns the exclusive upper bound on event start time.
func (q *EventsQuery) StartMax() time.Time { return q.startMax }

// SetStartMax keeps only events starting before t.
func (q *EventsQuery) SetStartMax(t time.Time) { q.startMax = t; q.ClearETag() }

// FutureEvents reports whether only future events are returned.
func (q *EventsQuery) FutureEvents() bool { return q.futureEvents }

// SetFutureEvents keeps only events in the future. It overrides StartMax
// and supplies the current time as the lower bound when StartMin is unset.
func (q *EventsQuery) SetFutureEvents(v bool) { q.futureEvents = v; q.ClearETag() }

// TimeZone returns the IANA time zone results are interpreted in.
func (q *EventsQuery) TimeZone() string { return q.timeZone }

// SetTimeZone interprets query bounds and whole-day events in the given
// IANA time zone. Spaces are accepted in place of underscores.
func (q *EventsQuery) SetTimeZone(v string) { q.timeZone = v; q.ClearETag() }

// MaxAttendees returns the attendee cap per returned event, or 0.
func (q *EventsQuery) MaxAttendees() int { return q.maxAttendees }

// SetMaxAttendees caps the number of attendees returned per event.
func (q *EventsQuery) SetMaxAttendees(v int) { q.maxAttendees = v; q.ClearETag() }

// ShowDeleted reports whether cancelled events are included.
func (q *EventsQuery) ShowDeleted() bool { return q.showDeleted }

// SetShowDeleted includes cancelled events in the results.
func (q *EventsQuery) SetShowDeleted(v bool) { q.showDeleted = v; q.ClearETag() }

// AppendParams renders the event parameters after the common ones.
func (q *EventsQuery) AppendParams(w *gdata.ParamWriter) {
	q.AppendCommonParams(w)
	if q.MaxResults() > 0 {
		w.AddInt("maxResults", q.MaxResults())
	}
	if q.orderBy != "" {
		v := q.orderBy
		if v == OrderByStartTime {
			v = "startTime"
		}
		w.AddEscaped("orderBy", v)
	}
	w.AddBool("singleEvents", q.singleEvents)

	start, end := q.startMin, q.startMax
	if q.futureEvents {
		if start.IsZero() {
			start = time.Now()
		}
		end = time.Time{}
	}
	if !start.IsZero() {
		w.Add("timeMin", gdata.FormatTime(start))
	}
	if !end.IsZero() {
		w.Add("timeMax", gdata.FormatTime(end))
	}

	if q.timeZone != "" {
		w.AddEscaped("timeZone", strings.ReplaceAll(q.timeZone, " ", "_"))
	}
	if q.maxAttendees > 0 {
		w.AddInt("maxAttendees", q.maxAttendees)
	}
	w.AddBool("showDeleted", q.showDeleted)
	if q.PageToken() != "" {
		w.AddEscaped("pageToken", q.PageToken())
	}
}
