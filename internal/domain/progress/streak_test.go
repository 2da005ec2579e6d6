package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestStreakFirstCompletion(t *testing.T) {
	s := NewStreak("user-1")
	s.RecordCompletion(day(2026, time.March, 1))

	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.BestStreak)
	assert.Equal(t, day(2026, time.March, 1), s.LastActiveDate)
}

func TestStreakConsecutiveDays(t *testing.T) {
	s := NewStreak("user-1")
	for i := 0; i < 5; i++ {
		s.RecordCompletion(day(2026, time.March, 1+i))
	}

	assert.Equal(t, 5, s.CurrentStreak)
	assert.Equal(t, 5, s.BestStreak)
}

func TestStreakSameDayIsNoOp(t *testing.T) {
	s := NewStreak("user-1")
	s.RecordCompletion(day(2026, time.March, 1))
	s.RecordCompletion(day(2026, time.March, 1))
	s.RecordCompletion(day(2026, time.March, 1).Add(14 * time.Hour))

	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.BestStreak)
}

func TestStreakGapResets(t *testing.T) {
	s := NewStreak("user-1")
	s.RecordCompletion(day(2026, time.March, 1))
	s.RecordCompletion(day(2026, time.March, 2))
	s.RecordCompletion(day(2026, time.March, 3))

	// Two-day gap: completion on D+2 after the last one.
	s.RecordCompletion(day(2026, time.March, 5))

	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 3, s.BestStreak, "best streak never decreases")
	assert.Equal(t, day(2026, time.March, 5), s.StreakStartDate)
}

func TestStreakResetRaisesBestFromZero(t *testing.T) {
	// A tracker restored with empty counters but a past anchor date takes
	// the reset branch on the next completion. Best must follow current
	// so current never exceeds best.
	s := Restore("user-1", 0, 0, day(2026, time.March, 8))
	s.RecordCompletion(day(2026, time.March, 10))

	assert.Equal(t, 1, s.CurrentStreak)
	assert.Equal(t, 1, s.BestStreak)
	assert.LessOrEqual(t, s.CurrentStreak, s.BestStreak)
}

func TestStreakBestNeverDecreases(t *testing.T) {
	s := NewStreak("user-1")
	s.RecordCompletion(day(2026, time.March, 1))
	s.RecordCompletion(day(2026, time.March, 2))
	s.RecordCompletion(day(2026, time.March, 10))
	s.RecordCompletion(day(2026, time.March, 11))
	s.RecordCompletion(day(2026, time.March, 12))

	assert.Equal(t, 3, s.CurrentStreak)
	assert.Equal(t, 3, s.BestStreak)
}

func TestStreakIsBrokenAsOf(t *testing.T) {
	s := NewStreak("user-1")
	assert.False(t, s.IsBrokenAsOf(day(2026, time.March, 10)))

	s.RecordCompletion(day(2026, time.March, 1))
	assert.False(t, s.IsBrokenAsOf(day(2026, time.March, 1)))
	assert.False(t, s.IsBrokenAsOf(day(2026, time.March, 2)))
	assert.True(t, s.IsBrokenAsOf(day(2026, time.March, 3)))
}

func TestRestore(t *testing.T) {
	s := Restore("user-1", 3, 7, day(2026, time.March, 5))
	assert.Equal(t, 3, s.CurrentStreak)
	assert.Equal(t, 7, s.BestStreak)
	assert.Equal(t, day(2026, time.March, 3), s.StreakStartDate)

	empty := Restore("user-1", 0, 0, time.Time{})
	assert.Equal(t, 0, empty.CurrentStreak)
}

func TestLiveStreak(t *testing.T) {
	today := day(2026, time.March, 10)

	tests := []struct {
		name string
		days []time.Time
		want int
	}{
		{"no completions", nil, 0},
		{"completed today only", []time.Time{day(2026, time.March, 10)}, 1},
		{"run ending today", []time.Time{
			day(2026, time.March, 10),
			day(2026, time.March, 9),
			day(2026, time.March, 8),
		}, 3},
		{"run ending yesterday still counts", []time.Time{
			day(2026, time.March, 9),
			day(2026, time.March, 8),
		}, 2},
		{"lapsed run reads as zero", []time.Time{
			day(2026, time.March, 7),
			day(2026, time.March, 6),
		}, 0},
		{"gap inside history stops the count", []time.Time{
			day(2026, time.March, 10),
			day(2026, time.March, 9),
			day(2026, time.March, 6),
		}, 2},
		{"duplicate days are ignored", []time.Time{
			day(2026, time.March, 10),
			day(2026, time.March, 10),
			day(2026, time.March, 9),
		}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LiveStreak(tt.days, today))
		})
	}
}
