package calendar

import (
	"encoding/json"
	"time"

	gdata "github.com/godata-project/godata"
)

// Event transparency values.
const (
	TransparencyOpaque      = "opaque"
	TransparencyTransparent = "transparent"
)

// Event visibility values.
const (
	VisibilityDefault      = "default"
	VisibilityPublic       = "public"
	VisibilityPrivate      = "private"
	VisibilityConfidential = "confidential"
)

// Attendee response statuses.
const (
	ResponseNeedsAction = "needsAction"
	ResponseDeclined    = "declined"
	ResponseTentative   = "tentative"
	ResponseAccepted    = "accepted"
)

// EventTime is the start or end of an event: either a timed instant or a
// whole day. Whole-day times are kept at midnight UTC with IsDate set.
type EventTime struct {
	Time     time.Time
	IsDate   bool
	TimeZone string
}

// NewEventTime builds a timed instant.
func NewEventTime(t time.Time) EventTime { return EventTime{Time: t} }

// NewEventDate builds a whole-day time for the day containing t.
func NewEventDate(t time.Time) EventTime {
	y, m, d := t.Date()
	return EventTime{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), IsDate: true}
}

// IsZero reports whether the time is unset.
func (t EventTime) IsZero() bool { return t.Time.IsZero() }

func (t *EventTime) parseJSON(value json.RawMessage) error {
	var obj struct {
		Date     string `json:"date"`
		DateTime string `json:"dateTime"`
		TimeZone string `json:"timeZone"`
	}
	if err := json.Unmarshal(value, &obj); err != nil {
		return gdata.WrapError(gdata.KindProtocol, "malformed event time", err)
	}
	t.TimeZone = obj.TimeZone
	switch {
	case obj.DateTime != "":
		parsed, err := gdata.ParseTime(obj.DateTime)
		if err != nil {
			return err
		}
		t.Time = parsed
		t.IsDate = false
	case obj.Date != "":
		parsed, err := parseDate(obj.Date)
		if err != nil {
			return err
		}
		t.Time = parsed
		t.IsDate = true
	default:
		return gdata.NewError(gdata.KindProtocol, "event time carries neither date nor dateTime")
	}
	return nil
}

// parseDate reads a whole-day value at midnight UTC. The compact form
// without separators is accepted on input; output is always the canonical
// form.
func parseDate(s string) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("20060102", s, time.UTC); err == nil {
		return t, nil
	}
	return time.Time{}, gdata.NewError(gdata.KindProtocol, "invalid date value "+s)
}

func (t EventTime) jsonObject() map[string]any {
	obj := make(map[string]any)
	if t.IsDate {
		obj["date"] = t.Time.UTC().Format("2006-01-02")
	} else {
		obj["dateTime"] = gdata.FormatTime(t.Time)
	}
	if t.TimeZone != "" {
		obj["timeZone"] = t.TimeZone
	}
	return obj
}

// Attendee is one participant of an event.
type Attendee struct {
	// Email identifies the attendee.
	Email string
	// Name is the display name, if known.
	Name string
	// ResponseStatus is one of the Response constants.
	ResponseStatus string
	// Optional marks a non-required attendee.
	Optional bool
	// Organizer marks the event's organizer.
	Organizer bool
	// Resource marks a room or equipment rather than a person.
	Resource bool
}

func (a *Attendee) jsonObject() map[string]any {
	obj := map[string]any{"email": a.Email}
	if a.Name != "" {
		obj["displayName"] = a.Name
	}
	if a.ResponseStatus != "" {
		obj["responseStatus"] = a.ResponseStatus
	}
	if a.Optional {
		obj["optional"] = true
	}
	if a.Organizer {
		obj["organizer"] = true
	}
	if a.Resource {
		obj["resource"] = true
	}
	return obj
}

func attendeeFromJSON(value json.RawMessage) (*Attendee, error) {
	var obj struct {
		Email          string `json:"email"`
		DisplayName    string `json:"displayName"`
		ResponseStatus string `json:"responseStatus"`
		Optional       bool   `json:"optional"`
		Organizer      bool   `json:"organizer"`
		Resource       bool   `json:"resource"`
	}
	if err := json.Unmarshal(value, &obj); err != nil {
		return nil, gdata.WrapError(gdata.KindProtocol, "malformed attendee", err)
	}
	return &Attendee{
		Email:          obj.Email,
		Name:           obj.DisplayName,
		ResponseStatus: obj.ResponseStatus,
		Optional:       obj.Optional,
		Organizer:      obj.Organizer,
		Resource:       obj.Resource,
	}, nil
}

// Event is a calendar event. The entry title carries the event summary.
type Event struct {
	gdata.Entry

	// Status is "confirmed", "tentative" or "cancelled".
	Status string
	// Description is the long event description.
	Description string
	// Location is the event location as free text.
	Location string
	// Transparency and Visibility are the Transparency and Visibility
	// constants.
	Transparency string
	Visibility   string

	// Start and End bound the event; whole-day events use date values and
	// an exclusive end date.
	Start EventTime
	End   EventTime

	// Attendees are the participants, the organizer among them with its
	// Organizer flag set.
	Attendees []*Attendee

	// Recurrences are RRULE/EXRULE/RDATE/EXDATE lines for recurring events.
	Recurrences []string
	// ICalUID and Sequence mirror the iCalendar identity of the event.
	ICalUID  string
	Sequence int

	// GuestsCanModify, GuestsCanInviteOthers and GuestsCanSeeGuests are the
	// guest permission flags.
	GuestsCanModify       bool
	GuestsCanInviteOthers bool
	GuestsCanSeeGuests    bool
	// AnyoneCanAddSelf lets anyone add themselves to the event.
	AnyoneCanAddSelf bool

	// pendingOrganizer holds a parsed organizer member until the whole
	// object has been consumed; member order within an object carries no
	// meaning, so the merge with the attendee list waits for PostParseJSON.
	pendingOrganizer *Attendee
}

// NewEvent builds a local event with the given summary.
func NewEvent(summary string) *Event {
	e := &Event{}
	e.Title = summary
	return e
}

// AddAttendee appends a participant.
func (e *Event) AddAttendee(a *Attendee) { e.Attendees = append(e.Attendees, a) }

// Organizer returns the attendee flagged as organizer, or nil.
func (e *Event) Organizer() *Attendee {
	for _, a := range e.Attendees {
		if a.Organizer {
			return a
		}
	}
	return nil
}

// Kind returns the event discriminator.
func (e *Event) Kind() string { return "calendar#event" }

// ParseJSONMember handles the event members; the summary maps onto the
// entry title.
func (e *Event) ParseJSONMember(key string, value json.RawMessage) (bool, error) {
	switch key {
	case "summary":
		return true, gdata.JSONString(value, &e.Title)
	case "status":
		return true, gdata.JSONString(value, &e.Status)
	case "description":
		return true, gdata.JSONString(value, &e.Description)
	case "location":
		return true, gdata.JSONString(value, &e.Location)
	case "transparency":
		return true, gdata.JSONString(value, &e.Transparency)
	case "visibility":
		return true, gdata.JSONString(value, &e.Visibility)
	case "start":
		return true, e.Start.parseJSON(value)
	case "end":
		return true, e.End.parseJSON(value)
	case "attendees":
		var items []json.RawMessage
		if err := json.Unmarshal(value, &items); err != nil {
			return true, gdata.WrapError(gdata.KindProtocol, "malformed attendees array", err)
		}
		for _, item := range items {
			a, err := attendeeFromJSON(item)
			if err != nil {
				return true, err
			}
			e.Attendees = append(e.Attendees, a)
		}
		return true, nil
	case "organizer":
		a, err := attendeeFromJSON(value)
		if err != nil {
			return true, err
		}
		e.pendingOrganizer = a
		return true, nil
	case "recurrence":
		return true, jsonStringArray(value, &e.Recurrences)
	case "iCalUID":
		return true, gdata.JSONString(value, &e.ICalUID)
	case "sequence":
		return true, gdata.JSONInt(value, &e.Sequence)
	case "guestsCanModify":
		return true, gdata.JSONBool(value, &e.GuestsCanModify)
	case "guestsCanInviteOthers":
		return true, gdata.JSONBool(value, &e.GuestsCanInviteOthers)
	case "guestsCanSeeOtherGuests":
		return true, gdata.JSONBool(value, &e.GuestsCanSeeGuests)
	case "anyoneCanAddSelf":
		return true, gdata.JSONBool(value, &e.AnyoneCanAddSelf)
	case "title":
		// Events never carry "title" on the wire.
		return false, nil
	}
	return e.Entry.ParseJSONMember(key, value)
}

// PostParseJSON folds a parsed organizer member into the attendee list. The
// organizer usually also appears in the attendee list; only a standalone
// organizer object adds an attendee.
func (e *Event) PostParseJSON() error {
	if org := e.pendingOrganizer; org != nil {
		e.pendingOrganizer = nil
		merged := false
		for _, existing := range e.Attendees {
			if existing.Email == org.Email {
				existing.Organizer = true
				merged = true
				break
			}
		}
		if !merged {
			org.Organizer = true
			e.Attendees = append(e.Attendees, org)
		}
	}
	return e.Entry.PostParseJSON()
}

// JSONObject emits the event members. The entry title is emitted as
// "summary"; a "title" member never appears.
func (e *Event) JSONObject() map[string]any {
	obj := make(map[string]any)
	e.JSONIdentity(obj)
	if e.Title != "" {
		obj["summary"] = e.Title
	}
	if e.Status != "" {
		obj["status"] = e.Status
	}
	if e.Description != "" {
		obj["description"] = e.Description
	}
	if e.Location != "" {
		obj["location"] = e.Location
	}
	if e.Transparency != "" {
		obj["transparency"] = e.Transparency
	}
	if e.Visibility != "" {
		obj["visibility"] = e.Visibility
	}
	if !e.Start.IsZero() {
		obj["start"] = e.Start.jsonObject()
	}
	if !e.End.IsZero() {
		obj["end"] = e.End.jsonObject()
	}
	if len(e.Attendees) > 0 {
		attendees := make([]any, 0, len(e.Attendees))
		for _, a := range e.Attendees {
			attendees = append(attendees, a.jsonObject())
		}
		obj["attendees"] = attendees
	}
	if len(e.Recurrences) > 0 {
		obj["recurrence"] = e.Recurrences
	}
	if e.ICalUID != "" {
		obj["iCalUID"] = e.ICalUID
	}
	if e.Sequence > 0 {
		obj["sequence"] = e.Sequence
	}
	if e.GuestsCanModify {
		obj["guestsCanModify"] = true
	}
	if e.GuestsCanInviteOthers {
		obj["guestsCanInviteOthers"] = true
	}
	if e.GuestsCanSeeGuests {
		obj["guestsCanSeeOtherGuests"] = true
	}
	if e.AnyoneCanAddSelf {
		obj["anyoneCanAddSelf"] = true
	}
	return obj
}

func jsonStringArray(value json.RawMessage, out *[]string) error {
	var items []string
	if err := json.Unmarshal(value, &items); err != nil {
		return gdata.WrapError(gdata.KindProtocol, "malformed string array", err)
	}
	*out = append(*out, items...)
	return nil
}
