package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// ScorePolicy holds the compatibility scoring weights. The defaults encode
// the clinic's ranking heuristic; they are injectable so the heuristic can be
// tuned without touching the search loop.
type ScorePolicy struct {
	Base             int
	SamePractitioner int

	// TimeProximityMax is the full bonus at identical time-of-day; it
	// decays TimeDecayPerHour points per hour of distance.
	TimeProximityMax int
	TimeDecayPerHour int

	// Date proximity tiers.
	NearDateBonus  int
	NearDateDays   int
	CloseDateBonus int
	CloseDateDays  int

	// PreferredHours (HH:MM) earn PreferredHourBonus and drive the
	// fallback expansion.
	PreferredHourBonus int
	PreferredHours     []string
}

// DefaultScorePolicy returns the standard weights.
func DefaultScorePolicy() ScorePolicy {
	return ScorePolicy{
		Base:               50,
		SamePractitioner:   30,
		TimeProximityMax:   20,
		TimeDecayPerHour:   2,
		NearDateBonus:      15,
		NearDateDays:       3,
		CloseDateBonus:     10,
		CloseDateDays:      7,
		PreferredHourBonus: 10,
		PreferredHours:     []string{"08:00", "09:00", "10:00", "14:00", "15:00", "16:00"},
	}
}

// Score ranks a candidate slot against the appointment being moved. Pure
// function of its inputs; result is clamped to [0, 100].
func (p ScorePolicy) Score(candidateDate time.Time, candidateTime string, candidatePractitioner uuid.UUID, original *Appointment) int {
	score := p.Base

	if candidatePractitioner == original.PractitionerID {
		score += p.SamePractitioner
	}

	candMin, err := ParseClock(candidateTime)
	if err == nil {
		origMin, oerr := ParseClock(original.StartTime)
		if oerr == nil {
			diff := candMin - origMin
			if diff < 0 {
				diff = -diff
			}
			// TimeDecayPerHour points per hour, accrued per minute.
			bonus := p.TimeProximityMax - diff*p.TimeDecayPerHour/60
			if bonus > 0 {
				score += bonus
			}
		}
	}

	switch days := daysApart(candidateDate, original.Date); {
	case days <= p.NearDateDays:
		score += p.NearDateBonus
	case days <= p.CloseDateDays:
		score += p.CloseDateBonus
	}

	for _, h := range p.PreferredHours {
		if h == candidateTime {
			score += p.PreferredHourBonus
			break
		}
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
