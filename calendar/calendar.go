package calendar

import (
	"encoding/json"

	gdata "github.com/godata-project/godata"
)

// Calendar access roles, most to least privileged.
const (
	AccessRoleOwner    = "owner"
	AccessRoleWriter   = "writer"
	AccessRoleReader   = "reader"
	AccessRoleFreeBusy = "freeBusyReader"
)

// Calendar is one entry of the user's calendar list.
type Calendar struct {
	gdata.Entry

	// Description is the calendar's free-form description.
	Description string
	// Location is the geographic location as free text.
	Location string
	// TimeZone is the calendar's IANA time zone name.
	TimeZone string
	// AccessRole is the authenticated user's role on this calendar.
	AccessRole string
	// Color is the calendar's display color as a #rrggbb value.
	Color string
	// Hidden and Selected mirror the calendar list display flags.
	Hidden   bool
	Selected bool
	// Primary marks the user's primary calendar.
	Primary bool
}

// CalendarID returns the identifier used in event and ACL collection URIs.
func (c *Calendar) CalendarID() string { return c.ID }

// Kind returns the calendar-list discriminator.
func (c *Calendar) Kind() string { return "calendar#calendarListEntry" }

// ParseJSONMember handles the calendar-list members; the title is carried
// by "summary".
func (c *Calendar) ParseJSONMember(key string, value json.RawMessage) (bool, error) {
	switch key {
	case "summary":
		return true, gdata.JSONString(value, &c.Title)
	case "description":
		return true, gdata.JSONString(value, &c.Description)
	case "location":
		return true, gdata.JSONString(value, &c.Location)
	case "timeZone":
		return true, gdata.JSONString(value, &c.TimeZone)
	case "accessRole":
		return true, gdata.JSONString(value, &c.AccessRole)
	case "backgroundColor":
		return true, gdata.JSONString(value, &c.Color)
	case "hidden":
		return true, gdata.JSONBool(value, &c.Hidden)
	case "selected":
		return true, gdata.JSONBool(value, &c.Selected)
	case "primary":
		return true, gdata.JSONBool(value, &c.Primary)
	case "title":
		// The calendar list never carries "title"; reject it rather than
		// silently shadowing "summary".
		return false, nil
	}
	return c.Entry.ParseJSONMember(key, value)
}

// JSONObject emits the calendar-list members. The title is emitted as
// "summary"; a "title" member never appears.
func (c *Calendar) JSONObject() map[string]any {
	obj := make(map[string]any)
	c.JSONIdentity(obj)
	if c.Title != "" {
		obj["summary"] = c.Title
	}
	if c.Description != "" {
		obj["description"] = c.Description
	}
	if c.Location != "" {
		obj["location"] = c.Location
	}
	if c.TimeZone != "" {
		obj["timeZone"] = c.TimeZone
	}
	if c.AccessRole != "" {
		obj["accessRole"] = c.AccessRole
	}
	if c.Color != "" {
		obj["backgroundColor"] = c.Color
	}
	if c.Hidden {
		obj["hidden"] = true
	}
	if c.Selected {
		obj["selected"] = true
	}
	if c.Primary {
		obj["primary"] = true
	}
	return obj
}
