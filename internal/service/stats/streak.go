package stats

import (
	"sort"
	"time"
)

// calcStreak derives the current and best runs of consecutive practice days
// from the distinct session dates. The current streak survives one missed day
// (practicing yesterday still counts); two or more idle days reset it to zero.
func calcStreak(dates []time.Time, now time.Time) (current, best int) {
	if len(dates) == 0 {
		return 0, 0
	}

	days := make(map[string]time.Time, len(dates))
	for _, d := range dates {
		day := d.UTC().Truncate(24 * time.Hour)
		days[day.Format("2006-01-02")] = day
	}
	ordered := make([]time.Time, 0, len(days))
	for _, day := range days {
		ordered = append(ordered, day)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Before(ordered[j]) })

	best, run := 1, 1
	for i := 1; i < len(ordered); i++ {
		diff := daysBetween(ordered[i-1], ordered[i])
		switch {
		case diff == 1:
			run++
			if run > best {
				best = run
			}
		case diff > 1:
			run = 1
		}
	}

	today := now.UTC().Truncate(24 * time.Hour)
	if daysBetween(ordered[len(ordered)-1], today) <= 1 {
		current = run
	}
	return current, best
}

func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
