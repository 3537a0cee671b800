package risk

import "time"

// Level is a derived classification of recent absence behaviour for one
// student in one subject. It is never persisted; it is recomputed from the
// attendance history every time a roster is assembled.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// Attendance status values mirrored from the canonical records. Kept local so
// the classifier stays a leaf package.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
)

// Lookback is the rolling history window the classifier is defined over.
const Lookback = 45 * 24 * time.Hour

// Observation is one attendance record projected to what the classifier needs.
type Observation struct {
	Status     string
	CapturedAt time.Time
}

// Profile holds the counters derived from a student's history window.
type Profile struct {
	Total                    int
	Absences                 int
	Late                     int
	ConsecutiveAbsenceStreak int
}

// Summarize folds a history, ordered most-recent-first, into a Profile. The
// streak counts trailing consecutive absences and stops at the first
// non-absent observation.
func Summarize(history []Observation) Profile {
	var p Profile
	streakOpen := true

	for _, obs := range history {
		p.Total++
		switch obs.Status {
		case StatusAbsent:
			p.Absences++
			if streakOpen {
				p.ConsecutiveAbsenceStreak++
			}
		case StatusLate:
			p.Late++
			streakOpen = false
		default:
			streakOpen = false
		}
	}

	return p
}

// Level classifies the profile. Thresholds evaluated in precedence order:
// high on a streak of 2+ or 45% absences, medium on 30% absences or 35%
// lates, low otherwise. Empty history is low.
func (p Profile) Level() Level {
	if p.Total == 0 {
		return LevelLow
	}

	absenceRatio := float64(p.Absences) / float64(p.Total)
	lateRatio := float64(p.Late) / float64(p.Total)

	if p.ConsecutiveAbsenceStreak >= 2 || absenceRatio >= 0.45 {
		return LevelHigh
	}
	if absenceRatio >= 0.30 || lateRatio >= 0.35 {
		return LevelMedium
	}
	return LevelLow
}

// Classify is the one-shot helper for callers that do not need the counters.
func Classify(history []Observation) Level {
	return Summarize(history).Level()
}
