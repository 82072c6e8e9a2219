package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/zmemovies/rue-track/internal"
)

var eventLabels = map[internal.EventType]struct {
	icon  string
	label string
}{
	internal.EventPee:        {"💦", "Pee"},
	internal.EventPoop:       {"💩", "Poop"},
	internal.EventSleep:      {"😴", "Sleep"},
	internal.EventFood:       {"🍖", "Meal"},
	internal.EventWater:      {"💧", "Water"},
	internal.EventTraining:   {"🎓", "Training"},
	internal.EventPeeAttempt: {"🚪", "Out attempt"},
}

// ExportDay renders the shareable text log for the calendar day containing
// day: a header, the date, a blank line, then one line per event ascending
// by time.
func ExportDay(doc *internal.Document, day time.Time) string {
	lo := internal.MillisFromTime(dayStart(day))
	hi := internal.MillisFromTime(dayStart(day).AddDate(0, 0, 1))

	var b strings.Builder
	b.WriteString("Rue — Daily Log Export\n")
	b.WriteString(day.Format("Monday, January 2, 2006"))
	b.WriteString("\n\n")

	for _, ev := range doc.EventsByTime() {
		if ev.At < lo || ev.At >= hi {
			continue
		}
		entry, ok := eventLabels[ev.Type]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "%s — %s %s\n",
			ev.At.Time().In(day.Location()).Format("15:04"), entry.icon, entry.label)
	}
	return b.String()
}
