package scheduling

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rafaelminatto1/dudufisio-api/internal/domain/roster"
)

// PractitionerRoster resolves which clinicians can be assigned a slot and
// looks up individual practitioners for response payloads.
type PractitionerRoster interface {
	EligiblePractitioners(ctx context.Context, orgID string) ([]*roster.Practitioner, error)
	GetPractitioner(ctx context.Context, orgID string, id uuid.UUID) (*roster.Practitioner, error)
}

// SlotSearcher enumerates candidate (date, time, practitioner) triples,
// filters them through the conflict detector and ranks the survivors.
type SlotSearcher struct {
	detector *ConflictDetector
	roster   PractitionerRoster
	policy   ScorePolicy
	workers  int
}

func NewSlotSearcher(detector *ConflictDetector, r PractitionerRoster, policy ScorePolicy, workers int) *SlotSearcher {
	if workers < 1 {
		workers = 1
	}
	return &SlotSearcher{detector: detector, roster: r, policy: policy, workers: workers}
}

// FindSlots searches the Cartesian product of the preference sets. Conflict
// checks are independent store round-trips, so they fan out over a bounded
// worker pool. Results are sorted by score descending; ties break on earliest
// date, then earliest time, then practitioner id.
func (s *SlotSearcher) FindSlots(ctx context.Context, original *Appointment, dates []time.Time, times []string, samePractitioner bool) ([]AvailableSlot, error) {
	practitioners := []uuid.UUID{original.PractitionerID}
	if !samePractitioner {
		eligible, err := s.roster.EligiblePractitioners(ctx, original.OrgID)
		if err != nil {
			return nil, err
		}
		practitioners = practitioners[:0]
		for _, p := range eligible {
			practitioners = append(practitioners, p.ID)
		}
	}

	type candidate struct {
		date           time.Time
		clock          string
		startMin       int
		practitionerID uuid.UUID
	}
	var candidates []candidate
	for _, d := range dates {
		for _, t := range times {
			startMin, err := ParseClock(t)
			if err != nil {
				return nil, err
			}
			for _, pid := range practitioners {
				candidates = append(candidates, candidate{
					date: DayOf(d), clock: t, startMin: startMin, practitionerID: pid,
				})
			}
		}
	}

	var (
		mu       sync.Mutex
		wg       sync.WaitGroup
		firstErr error
		slots    []AvailableSlot
	)
	sem := make(chan struct{}, s.workers)

	for _, cand := range candidates {
		cand := cand
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			conflict, err := s.detector.HasConflict(ctx, original.OrgID, cand.practitionerID,
				cand.date, cand.startMin, cand.startMin+original.DurationMinutes, original.ID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			if conflict {
				return
			}
			slots = append(slots, AvailableSlot{
				Date:           cand.date,
				Time:           cand.clock,
				PractitionerID: cand.practitionerID,
				Score:          s.policy.Score(cand.date, cand.clock, cand.practitionerID, original),
			})
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Score != slots[j].Score {
			return slots[i].Score > slots[j].Score
		}
		if !slots[i].Date.Equal(slots[j].Date) {
			return slots[i].Date.Before(slots[j].Date)
		}
		if slots[i].Time != slots[j].Time {
			return slots[i].Time < slots[j].Time
		}
		return slots[i].PractitionerID.String() < slots[j].PractitionerID.String()
	})
	return slots, nil
}
