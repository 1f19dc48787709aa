package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	gdata "github.com/godata-project/godata"
	"github.com/godata-project/godata/calendar"
)

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "List calendars and manage events",
}

var calendarListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the calendars on your calendar list",
	RunE:  runCalendarList,
}

var (
	flagEventsQuery  string
	flagEventsMax    int
	flagEventsFuture bool
)

var calendarEventsCmd = &cobra.Command{
	Use:   "events <calendar-id>",
	Short: "List the events of a calendar",
	Args:  cobra.ExactArgs(1),
	RunE:  runCalendarEvents,
}

var (
	flagEventStart string
	flagEventEnd   string
)

var calendarAddCmd = &cobra.Command{
	Use:   "add-event <calendar-id> <summary>",
	Short: "Create an event",
	Args:  cobra.ExactArgs(2),
	RunE:  runCalendarAddEvent,
}

func init() {
	calendarEventsCmd.Flags().StringVarP(&flagEventsQuery, "query", "q", "", "Full-text search term")
	calendarEventsCmd.Flags().IntVar(&flagEventsMax, "max-results", 25, "Maximum number of events")
	calendarEventsCmd.Flags().BoolVar(&flagEventsFuture, "future", false, "Only future events")

	calendarAddCmd.Flags().StringVar(&flagEventStart, "start", "", "Event start (RFC 3339, or YYYY-MM-DD for whole days)")
	calendarAddCmd.Flags().StringVar(&flagEventEnd, "end", "", "Event end (same format as --start)")

	calendarCmd.AddCommand(calendarListCmd)
	calendarCmd.AddCommand(calendarEventsCmd)
	calendarCmd.AddCommand(calendarAddCmd)
	rootCmd.AddCommand(calendarCmd)
}

func newCalendarService() (*calendar.Service, error) {
	authorizer, err := requireAuthorizer()
	if err != nil {
		return nil, err
	}
	return calendar.NewServiceWithConfig(gdata.ServiceConfig{
		Authorizer: authorizer,
		Timeout:    cfg.ServiceTimeout("calendar"),
		Locale:     cfg.ServiceLocale("calendar"),
	}), nil
}

func runCalendarList(cmd *cobra.Command, _ []string) error {
	svc, err := newCalendarService()
	if err != nil {
		return err
	}
	feed, err := svc.QueryCalendars(cmd.Context(), nil)
	if err != nil {
		return err
	}
	for _, entry := range feed.Entries {
		c := entry.(*calendar.Calendar)
		marker := " "
		if c.Primary {
			marker = "*"
		}
		fmt.Printf("%s %-40s %s\n", marker, c.CalendarID(), c.Title)
	}
	return nil
}

func runCalendarEvents(cmd *cobra.Command, args []string) error {
	svc, err := newCalendarService()
	if err != nil {
		return err
	}
	target := &calendar.Calendar{}
	target.ID = args[0]

	q := calendar.NewEventsQuery(flagEventsQuery)
	q.SetMaxResults(flagEventsMax)
	q.SetOrderBy(calendar.OrderByStartTime)
	q.SetSingleEvents(true)
	if flagEventsFuture {
		q.SetFutureEvents(true)
	}

	feed, err := svc.QueryEvents(cmd.Context(), target, q)
	if err != nil {
		return err
	}
	for _, entry := range feed.Entries {
		e := entry.(*calendar.Event)
		when := ""
		if !e.Start.IsZero() {
			if e.Start.IsDate {
				when = e.Start.Time.Format("2006-01-02")
			} else {
				when = e.Start.Time.Local().Format("2006-01-02 15:04")
			}
		}
		fmt.Printf("%-17s %s\n", when, e.Title)
	}
	return nil
}

func runCalendarAddEvent(cmd *cobra.Command, args []string) error {
	svc, err := newCalendarService()
	if err != nil {
		return err
	}
	target := &calendar.Calendar{}
	target.ID = args[0]

	event := calendar.NewEvent(args[1])
	if flagEventStart != "" {
		start, err := parseEventFlag(flagEventStart)
		if err != nil {
			return err
		}
		event.Start = start
	}
	if flagEventEnd != "" {
		end, err := parseEventFlag(flagEventEnd)
		if err != nil {
			return err
		}
		event.End = end
	}

	inserted, err := svc.InsertCalendarEvent(cmd.Context(), target, event)
	if err != nil {
		return err
	}
	fmt.Printf("Created event %s\n", inserted.ID)
	return nil
}

func parseEventFlag(s string) (calendar.EventTime, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return calendar.NewEventTime(t), nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, time.UTC); err == nil {
		return calendar.NewEventDate(t), nil
	}
	return calendar.EventTime{}, fmt.Errorf("invalid time %q: use RFC 3339 or YYYY-MM-DD", s)
}
