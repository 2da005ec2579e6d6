// Package progress contains the streak tracking rules of the engine.
// A streak counts consecutive calendar days with at least one completion.
package progress

import (
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK
// ══════════════════════════════════════════════════════════════════════════════

// Streak tracks a user's run of consecutive active days. The zero value is
// a user with no completions: current and best are 0, LastActiveDate is zero.
type Streak struct {
	// UserID is the tracked user.
	UserID string

	// CurrentStreak is the length of the ongoing run.
	CurrentStreak int

	// BestStreak is the longest run ever reached. Never decreases.
	BestStreak int

	// LastActiveDate is the most recent day counted into the streak.
	LastActiveDate time.Time

	// StreakStartDate is the first day of the current run.
	StreakStartDate time.Time
}

// NewStreak creates an empty streak tracker for a user.
func NewStreak(userID string) *Streak {
	return &Streak{
		UserID:          userID,
		CurrentStreak:   0,
		BestStreak:      0,
		LastActiveDate:  time.Time{},
		StreakStartDate: time.Time{},
	}
}

// Restore rebuilds a tracker from stored counters plus the most recent
// completion day. A zero lastActive with a non-zero streak is treated as
// an empty tracker.
func Restore(userID string, current, best int, lastActive time.Time) *Streak {
	if lastActive.IsZero() {
		return NewStreak(userID)
	}
	return &Streak{
		UserID:          userID,
		CurrentStreak:   current,
		BestStreak:      best,
		LastActiveDate:  dateOnly(lastActive),
		StreakStartDate: dateOnly(lastActive).AddDate(0, 0, -(current - 1)),
	}
}

// RecordCompletion counts a completion on the given day into the streak.
// The streak increments at most once per calendar day: the same day is a
// no-op, the next day extends the run, a gap resets it to 1.
func (s *Streak) RecordCompletion(date time.Time) {
	day := dateOnly(date)

	// First-ever completion starts the run.
	if s.LastActiveDate.IsZero() {
		s.CurrentStreak = 1
		s.BestStreak = 1
		s.LastActiveDate = day
		s.StreakStartDate = day
		return
	}

	daysDiff := int(day.Sub(s.LastActiveDate).Hours() / 24)

	switch daysDiff {
	case 0:
		// Same day, already counted.
		return
	case 1:
		s.CurrentStreak++
		if s.CurrentStreak > s.BestStreak {
			s.BestStreak = s.CurrentStreak
		}
	default:
		// Missed at least one day.
		s.CurrentStreak = 1
		if s.CurrentStreak > s.BestStreak {
			s.BestStreak = s.CurrentStreak
		}
		s.StreakStartDate = day
	}

	s.LastActiveDate = day
}

// IsBrokenAsOf reports whether the run has lapsed: the last active day is
// more than one day before today.
func (s *Streak) IsBrokenAsOf(today time.Time) bool {
	if s.LastActiveDate.IsZero() {
		return false
	}
	daysDiff := int(dateOnly(today).Sub(s.LastActiveDate).Hours() / 24)
	return daysDiff > 1
}

// LiveStreak derives the streak a reader should see as of today from the
// user's distinct completion days, most recent first. A run that ended
// before yesterday reads as 0 even if the stored counter still holds the
// old value.
func LiveStreak(days []time.Time, today time.Time) int {
	if len(days) == 0 {
		return 0
	}

	cursor := dateOnly(today)
	gap := int(cursor.Sub(dateOnly(days[0])).Hours() / 24)
	if gap > 1 {
		return 0
	}
	cursor = dateOnly(days[0])

	streak := 1
	for _, d := range days[1:] {
		day := dateOnly(d)
		diff := int(cursor.Sub(day).Hours() / 24)
		if diff == 0 {
			continue
		}
		if diff != 1 {
			break
		}
		streak++
		cursor = day
	}
	return streak
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
