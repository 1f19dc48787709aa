// Package calendar is the Google Calendar façade: calendars, events,
// attendees and calendar access control, spoken over the JSON protocol.
package calendar

import (
	"context"
	"net/url"

	gdata "github.com/godata-project/godata"
)

// Domain is the Calendar authorization domain.
var Domain = gdata.AuthorizationDomain{
	ServiceName: "cl",
	ScopeRoot:   "https://www.google.com/calendar/feeds/",
}

// BaseURI is the root of the Calendar API. Tests point it at a local
// server.
const BaseURI = "https://www.googleapis.com/calendar/v3"

// Service is a Calendar client.
type Service struct {
	*gdata.Service
	baseURI string
}

// NewService creates a Calendar service. authorizer may be nil for the
// (very limited) unauthenticated surface.
func NewService(authorizer gdata.Authorizer) *Service {
	return NewServiceWithConfig(gdata.ServiceConfig{Authorizer: authorizer})
}

// NewServiceWithConfig creates a Calendar service from cfg. The wire format
// is forced to JSON; rate limiting defaults are applied when cfg carries no
// limiter.
func NewServiceWithConfig(cfg gdata.ServiceConfig) *Service {
	cfg.Wire = gdata.WireJSON
	if cfg.RateLimiter == nil {
		cfg.RateLimiter = gdata.NewRateLimiter(gdata.RateLimitConfig{})
	}
	return &Service{Service: gdata.NewService(cfg), baseURI: BaseURI}
}

// SetBaseURI overrides the API root. Tests use it to query a local server.
func (s *Service) SetBaseURI(uri string) { s.baseURI = uri }

func (s *Service) calendarListURI() string {
	return s.baseURI + "/users/me/calendarList"
}

func (s *Service) eventsURI(calendarID string) string {
	return s.baseURI + "/calendars/" + url.PathEscape(calendarID) + "/events"
}

func (s *Service) aclURI(calendarID string) string {
	return s.baseURI + "/calendars/" + url.PathEscape(calendarID) + "/acl"
}

func calendarFactory() gdata.EntryLike { return &Calendar{} }

func eventFactory() gdata.EntryLike { return &Event{} }

func aclRuleFactory() gdata.EntryLike { return &AccessRule{} }

// QueryCalendars lists the calendars on the authenticated user's calendar
// list. q may be nil.
func (s *Service) QueryCalendars(ctx context.Context, q *CalendarQuery) (*gdata.Feed, error) {
	return s.Query(ctx, Domain, s.calendarListURI(), queryable(q), calendarFactory)
}

// QueryOwnCalendars lists only the calendars the user owns.
func (s *Service) QueryOwnCalendars(ctx context.Context, q *CalendarQuery) (*gdata.Feed, error) {
	if q == nil {
		q = NewCalendarQuery()
	}
	q.SetMinAccessRole(AccessRoleOwner)
	return s.QueryCalendars(ctx, q)
}

// QueryEvents lists the events of calendar, filtered by q (which may be
// nil).
func (s *Service) QueryEvents(ctx context.Context, calendar *Calendar, q *EventsQuery) (*gdata.Feed, error) {
	return s.Query(ctx, Domain, s.eventsURI(calendar.CalendarID()), queryable(q), eventFactory)
}

// InsertCalendarEvent creates event on calendar and returns the server's
// representation.
func (s *Service) InsertCalendarEvent(ctx context.Context, calendar *Calendar, event *Event) (*Event, error) {
	inserted, err := s.Insert(ctx, Domain, s.eventsURI(calendar.CalendarID()), event, eventFactory)
	if err != nil {
		return nil, err
	}
	return inserted.(*Event), nil
}

// UpdateEvent pushes event's state to the server and returns the new
// representation.
func (s *Service) UpdateEvent(ctx context.Context, event *Event) (*Event, error) {
	updated, err := s.Update(ctx, Domain, event, eventFactory)
	if err != nil {
		return nil, err
	}
	return updated.(*Event), nil
}

// DeleteEvent removes event.
func (s *Service) DeleteEvent(ctx context.Context, event *Event) error {
	return s.Delete(ctx, Domain, event)
}

// QueryAccessRules lists the access control rules of calendar.
func (s *Service) QueryAccessRules(ctx context.Context, calendar *Calendar) (*gdata.Feed, error) {
	return s.Query(ctx, Domain, s.aclURI(calendar.CalendarID()), nil, aclRuleFactory)
}

// InsertAccessRule grants rule on calendar.
func (s *Service) InsertAccessRule(ctx context.Context, calendar *Calendar, rule *AccessRule) (*AccessRule, error) {
	inserted, err := s.Insert(ctx, Domain, s.aclURI(calendar.CalendarID()), rule, aclRuleFactory)
	if err != nil {
		return nil, err
	}
	return inserted.(*AccessRule), nil
}

// queryable converts a possibly-nil concrete query into the interface
// without producing a non-nil interface holding a nil pointer.
func queryable[T any, PT interface {
	*T
	gdata.Queryable
}](q PT) gdata.Queryable {
	if q == nil {
		return nil
	}
	return q
}
