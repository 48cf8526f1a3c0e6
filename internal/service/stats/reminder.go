package stats

import (
	"fmt"
	"hash/fnv"
	"time"
)

// Reminder window bounds (local time). The slot is hashed, not random, so
// the reminder lands at the same minute however often the job recomputes it.
const (
	reminderWindowStart   = 17
	reminderWindowMinutes = 180
)

// ReminderTime returns the deterministic reminder slot for the user on the
// given day: an hour in [17, 20) and a minute in [0, 60).
func ReminderTime(userID int64, day time.Time) (hour, minute int) {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%s", userID, day.UTC().Format("2006-01-02"))

	offset := int(h.Sum64() % reminderWindowMinutes)
	return reminderWindowStart + offset/60, offset % 60
}
