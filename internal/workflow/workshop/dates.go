package workshop

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// dateContext describes the calendar situation for the prompts: today's
// date, the event date, and how many days remain.
type dateContext struct {
	Today     time.Time
	EventDate time.Time
	DaysUntil int
}

func newDateContext(now time.Time, eventDate string) (dateContext, error) {
	event, err := time.Parse(dateLayout, eventDate)
	if err != nil {
		return dateContext{}, fmt.Errorf("invalid event_date %q: %w", eventDate, err)
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	days := int(event.Sub(today).Hours() / 24)
	return dateContext{Today: today, EventDate: event, DaysUntil: days}, nil
}

// Prompt is the sentence threaded into every stage prompt.
func (d dateContext) Prompt() string {
	return fmt.Sprintf("Today is %s. The workshop is scheduled for %s.",
		d.Today.Format(dateLayout), d.EventDate.Format(dateLayout))
}

// Goal decorates the user's goal with the remaining lead time.
func (d dateContext) Goal(goal string) string {
	if d.DaysUntil > 0 {
		return fmt.Sprintf("%s in %d days", goal, d.DaysUntil)
	}
	return goal
}
