package calendar

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gdata "github.com/godata-project/godata"
)

func TestService_QueryCalendars(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"kind": "calendar#calendarList",
			"items": [
				{"kind": "calendar#calendarListEntry", "id": "user@example.com", "summary": "Home", "accessRole": "owner", "primary": true},
				{"kind": "calendar#calendarListEntry", "id": "team@example.com", "summary": "Team", "accessRole": "reader"}
			]
		}`))
	}))
	defer server.Close()

	svc := NewService(nil)
	svc.SetBaseURI(server.URL)

	feed, err := svc.QueryCalendars(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "/users/me/calendarList", gotPath)
	require.Len(t, feed.Entries, 2)

	byID := map[string]*Calendar{}
	for _, e := range feed.Entries {
		cal := e.(*Calendar)
		byID[cal.CalendarID()] = cal
	}
	assert.Equal(t, "Home", byID["user@example.com"].Title)
	assert.True(t, byID["user@example.com"].Primary)
	assert.Equal(t, AccessRoleReader, byID["team@example.com"].AccessRole)
}

func TestService_QueryOwnCalendars(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"kind": "calendar#calendarList", "items": []}`))
	}))
	defer server.Close()

	svc := NewService(nil)
	svc.SetBaseURI(server.URL)

	_, err := svc.QueryOwnCalendars(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "minAccessRole=owner", gotQuery)
}

func TestService_QueryEvents(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{
			"kind": "calendar#events",
			"items": [{"kind": "calendar#event", "id": "evt1", "summary": "Tennis with Beth"}]
		}`))
	}))
	defer server.Close()

	svc := NewService(nil)
	svc.SetBaseURI(server.URL)

	cal := &Calendar{}
	cal.ID = "user@example.com"

	q := NewEventsQuery("tennis")
	q.SetSingleEvents(true)
	feed, err := svc.QueryEvents(context.Background(), cal, q)
	require.NoError(t, err)

	assert.Equal(t, "/calendars/user@example.com/events", gotPath)
	assert.Equal(t, "q=tennis&singleEvents=true&showDeleted=false", gotQuery)
	require.Len(t, feed.Entries, 1)
	assert.Equal(t, "Tennis with Beth", feed.Entries[0].(*Event).Title)
}

func TestService_InsertCalendarEvent(t *testing.T) {
	var gotMethod, gotContentType string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"kind": "calendar#event", "id": "evt42", "etag": "\"v1\"", "summary": "Tennis with Beth", "status": "confirmed"}`))
	}))
	defer server.Close()

	svc := NewService(nil)
	svc.SetBaseURI(server.URL)

	cal := &Calendar{}
	cal.ID = "user@example.com"

	event := NewEvent("Tennis with Beth")
	event.Start = NewEventTime(time.Date(2009, 4, 17, 15, 0, 0, 0, time.UTC))
	event.End = NewEventTime(time.Date(2009, 4, 17, 17, 0, 0, 0, time.UTC))

	inserted, err := svc.InsertCalendarEvent(context.Background(), cal, event)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Contains(t, gotContentType, "application/json")

	var sent map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &sent))
	assert.Equal(t, "calendar#event", sent["kind"])
	assert.Equal(t, "Tennis with Beth", sent["summary"])

	assert.Equal(t, "evt42", inserted.ID)
	assert.Equal(t, `"v1"`, inserted.ETag)
	assert.True(t, inserted.IsInserted())
}

func TestService_DeleteEvent(t *testing.T) {
	var gotMethod, gotIfMatch string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotIfMatch = r.Header.Get("If-Match")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	svc := NewService(nil)
	svc.SetBaseURI(server.URL)

	event := &Event{}
	event.ID = "evt42"
	event.ETag = `"v1"`
	event.Links = []gdata.Link{{Rel: gdata.RelEdit, Href: server.URL + "/calendars/user@example.com/events/evt42"}}
	event.MarkInserted()

	require.NoError(t, svc.DeleteEvent(context.Background(), event))
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, `"v1"`, gotIfMatch)
}

func TestService_QueryAccessRules(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{
			"kind": "calendar#acl",
			"items": [{"id": "user:beth@example.com", "role": "reader", "scope": {"type": "user", "value": "beth@example.com"}}]
		}`))
	}))
	defer server.Close()

	svc := NewService(nil)
	svc.SetBaseURI(server.URL)

	cal := &Calendar{}
	cal.ID = "user@example.com"

	feed, err := svc.QueryAccessRules(context.Background(), cal)
	require.NoError(t, err)
	assert.Equal(t, "/calendars/user@example.com/acl", gotPath)
	require.Len(t, feed.Entries, 1)

	rule := feed.Entries[0].(*AccessRule)
	assert.Equal(t, RoleReader, rule.Role)
	assert.Equal(t, "user", rule.ScopeType)
	assert.Equal(t, "beth@example.com", rule.ScopeValue)
}
