package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func obs(statuses ...string) []Observation {
	history := make([]Observation, 0, len(statuses))
	at := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	for _, st := range statuses {
		history = append(history, Observation{Status: st, CapturedAt: at})
		at = at.Add(-24 * time.Hour)
	}
	return history
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		history  []Observation
		expected Level
	}{
		{
			name:     "empty history is low",
			history:  nil,
			expected: LevelLow,
		},
		{
			name:     "all present is low",
			history:  obs(StatusPresent, StatusPresent, StatusPresent, StatusPresent),
			expected: LevelLow,
		},
		{
			name:     "two trailing absences is high",
			history:  obs(StatusAbsent, StatusAbsent, StatusPresent, StatusPresent, StatusPresent, StatusPresent),
			expected: LevelHigh,
		},
		{
			name:     "absence ratio above 45 percent is high",
			history:  obs(StatusPresent, StatusAbsent, StatusPresent, StatusAbsent, StatusPresent, StatusAbsent, StatusPresent, StatusAbsent, StatusPresent, StatusAbsent, StatusPresent, StatusAbsent, StatusPresent, StatusAbsent, StatusPresent, StatusAbsent, StatusPresent, StatusAbsent, StatusPresent, StatusAbsent),
			expected: LevelHigh,
		},
		{
			name:     "absence ratio at 30 percent is medium",
			history:  obs(StatusPresent, StatusAbsent, StatusPresent, StatusPresent, StatusAbsent, StatusPresent, StatusPresent, StatusAbsent, StatusPresent, StatusPresent),
			expected: LevelMedium,
		},
		{
			name:     "late ratio at 35 percent is medium",
			history:  obs(StatusPresent, StatusLate, StatusPresent, StatusLate, StatusPresent, StatusLate, StatusPresent, StatusLate, StatusPresent, StatusPresent),
			expected: LevelMedium,
		},
		{
			name:     "single absence in long history is low",
			history:  obs(StatusPresent, StatusAbsent, StatusPresent, StatusPresent, StatusPresent, StatusPresent, StatusPresent, StatusPresent, StatusPresent, StatusPresent),
			expected: LevelLow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.history))
		})
	}
}

func TestSummarizeStreakStopsAtFirstNonAbsent(t *testing.T) {
	// Absences older than the most recent present must not reopen the streak.
	history := obs(StatusAbsent, StatusPresent, StatusAbsent, StatusAbsent, StatusAbsent)

	p := Summarize(history)

	assert.Equal(t, 5, p.Total)
	assert.Equal(t, 4, p.Absences)
	assert.Equal(t, 1, p.ConsecutiveAbsenceStreak)
}

func TestClassifyMonotonicInRecency(t *testing.T) {
	// A history with streak 1 that gains one more trailing absence must reach
	// at least high.
	base := obs(StatusAbsent, StatusPresent, StatusPresent, StatusPresent, StatusPresent, StatusPresent, StatusPresent)
	assert.Equal(t, 1, Summarize(base).ConsecutiveAbsenceStreak)
	assert.NotEqual(t, LevelHigh, Classify(base))

	extended := append([]Observation{{Status: StatusAbsent, CapturedAt: base[0].CapturedAt.Add(24 * time.Hour)}}, base...)
	assert.Equal(t, LevelHigh, Classify(extended))
}

func TestClassifyIdempotent(t *testing.T) {
	history := obs(StatusAbsent, StatusLate, StatusPresent, StatusAbsent)
	assert.Equal(t, Classify(history), Classify(history))
}
