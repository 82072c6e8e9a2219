package service

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/zmemovies/rue-track/internal"
)

// dayStart returns midnight of the local calendar day containing t.
func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SuggestNextPee predicts the next pee time from yesterday's inter-pee
// intervals: collect yesterday's pee events, reduce the successive gaps
// with the configured method, and project that interval from today's most
// recent pee (or from now when none happened yet today). Advisory only.
// Returns false when yesterday has fewer than two pee events.
func SuggestNextPee(doc *internal.Document, now time.Time) (time.Time, bool) {
	todayStart := dayStart(now)
	yesterdayStart := todayStart.AddDate(0, 0, -1)
	winLo := internal.MillisFromTime(yesterdayStart)
	winHi := internal.MillisFromTime(todayStart)

	var times []internal.Millis
	for _, ev := range doc.Events {
		if ev.Type == internal.EventPee && ev.At >= winLo && ev.At < winHi {
			times = append(times, ev.At)
		}
	}
	if len(times) < 2 {
		return time.Time{}, false
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })

	intervals := make([]float64, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		intervals = append(intervals, float64(times[i]-times[i-1]))
	}

	var central float64
	switch doc.Settings.PeeSuggestionMethod {
	case internal.MethodMean:
		central = mean(intervals)
	default:
		central = median(intervals)
	}
	if math.IsNaN(central) || math.IsInf(central, 0) {
		return time.Time{}, false
	}

	anchor := now
	tomorrow := internal.MillisFromTime(todayStart.AddDate(0, 0, 1))
	var lastToday internal.Millis
	for _, ev := range doc.Events {
		if ev.Type == internal.EventPee && ev.At >= winHi && ev.At < tomorrow && ev.At > lastToday {
			lastToday = ev.At
		}
	}
	if lastToday.Valid() {
		anchor = lastToday.Time().In(now.Location())
	}

	return anchor.Add(time.Duration(math.Round(central)) * time.Millisecond), true
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(xs))
	copy(sorted, xs)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// RemainingMealsToday projects today's unconsumed meal slots. The Nth food
// event logged today consumes the Nth scheduled slot, earliest first; no
// proximity matching is attempted.
func RemainingMealsToday(doc *internal.Document, now time.Time) []time.Time {
	slots := mealSlots(doc.Settings.MealSchedule, now)
	if len(slots) == 0 {
		return nil
	}

	todayLo := internal.MillisFromTime(dayStart(now))
	todayHi := internal.MillisFromTime(dayStart(now).AddDate(0, 0, 1))
	eaten := 0
	for _, ev := range doc.Events {
		if ev.Type == internal.EventFood && ev.At >= todayLo && ev.At < todayHi {
			eaten++
		}
	}
	if eaten >= len(slots) {
		return nil
	}
	return slots[eaten:]
}

// mealSlots materializes the HH:MM schedule onto today's date, sorted
// ascending. Malformed entries are skipped.
func mealSlots(schedule internal.MealSchedule, now time.Time) []time.Time {
	y, m, d := now.Date()
	var slots []time.Time
	for _, raw := range schedule.Times {
		hh, mm, ok := parseHHMM(raw)
		if !ok {
			continue
		}
		slots = append(slots, time.Date(y, m, d, hh, mm, 0, 0, now.Location()))
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })
	return slots
}

func parseHHMM(s string) (int, int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, 0, false
	}
	hh, err := strconv.Atoi(parts[0])
	if err != nil || hh < 0 || hh > 23 {
		return 0, 0, false
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil || mm < 0 || mm > 59 {
		return 0, 0, false
	}
	return hh, mm, true
}
