package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestXPLevelThresholds(t *testing.T) {
	tests := []struct {
		xp    int
		level Level
	}{
		{0, 1},
		{50, 1},
		{99, 1},
		{100, 2}, // crossing the first threshold
		{105, 2},
		{299, 2},
		{300, 3}, // 100 + 200
		{599, 3},
		{600, 4}, // 100 + 200 + 300
		{1000, 5},
		{4500, 10}, // 100*10*9/2
		{4499, 9},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.level, XP(tt.xp).Level(), "xp=%d", tt.xp)
	}
}

func TestLevelRequiredXP(t *testing.T) {
	assert.Equal(t, 0, Level(1).RequiredXP())
	assert.Equal(t, 100, Level(2).RequiredXP())
	assert.Equal(t, 300, Level(3).RequiredXP())
	assert.Equal(t, 600, Level(4).RequiredXP())
	assert.Equal(t, 4500, Level(10).RequiredXP())
}

func TestLevelIsConsistentWithRequiredXP(t *testing.T) {
	// For any total, Level() is the unique L with
	// RequiredXP(L) <= total < RequiredXP(L+1).
	for total := 0; total <= 5000; total += 7 {
		l := XP(total).Level()
		assert.LessOrEqual(t, l.RequiredXP(), total, "total=%d", total)
		assert.Greater(t, (l + 1).RequiredXP(), total, "total=%d", total)
	}
}

func TestXPToNextLevel(t *testing.T) {
	assert.Equal(t, 100, XP(0).ToNextLevel())
	assert.Equal(t, 5, XP(95).ToNextLevel())
	assert.Equal(t, 195, XP(105).ToNextLevel())
}

func TestXPAddFloorsAtZero(t *testing.T) {
	assert.Equal(t, XP(0), XP(5).Add(-10))
	assert.Equal(t, XP(15), XP(5).Add(10))
}

func TestProgressToNextLevel(t *testing.T) {
	assert.Equal(t, 0, XP(0).ProgressToNextLevel())
	assert.Equal(t, 50, XP(50).ProgressToNextLevel())
	assert.Equal(t, 0, XP(100).ProgressToNextLevel())
	assert.Equal(t, 50, XP(200).ProgressToNextLevel())
}

func TestNewRating(t *testing.T) {
	for v := 1; v <= 5; v++ {
		r, err := NewRating(v)
		assert.NoError(t, err)
		assert.Equal(t, Rating(v), r)
	}

	_, err := NewRating(0)
	assert.ErrorIs(t, err, ErrValueOutOfRange)
	_, err = NewRating(6)
	assert.ErrorIs(t, err, ErrValueOutOfRange)
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, AverageRating(nil))
	assert.InDelta(t, 3.5, AverageRating([]Rating{3, 4}), 1e-9)
}

func TestNewUserID(t *testing.T) {
	id, err := NewUserID("  demo_user  ")
	assert.NoError(t, err)
	assert.Equal(t, UserID("demo_user"), id)

	_, err = NewUserID("   ")
	assert.ErrorIs(t, err, ErrInvalidID)
}
