package services

import (
	"sort"
	"time"

	"dispatch/internal/core/domain/model/courier"
	"dispatch/internal/core/domain/model/kernel"
)

// Candidate pairs an eligible courier with its distance from a task's
// pickup point. Candidate sets are ephemeral: computed per broadcast call
// and never persisted.
type Candidate struct {
	Courier    *courier.Courier
	DistanceKm float64
}

// BroadcastPlanner is a domain service that shapes a task's broadcast: it
// widens the search radius and acceptance window for higher-priority tasks
// and ranks eligible couriers nearest-first.
//
// Ranking rules:
//   - only online, active couriers with a known location are considered
//   - candidates outside the effective radius are dropped
//   - ordering is strictly by ascending distance, ties broken by courier ID
//     so the ordering is deterministic for a fixed courier set
//
// An empty result is not an error; it signals the caller to widen the
// radius or escalate.
type BroadcastPlanner struct {
	// radiusBoostKmPerPriority widens the radius per priority step.
	radiusBoostKmPerPriority float64

	// windowBoostPerPriority lengthens the window per priority step.
	windowBoostPerPriority time.Duration

	// maxBoostSteps caps how many priority steps contribute boosts.
	maxBoostSteps int
}

// NewBroadcastPlanner creates a planner with the given per-priority-step
// boosts. Steps beyond maxBoostSteps add nothing, keeping runaway priorities
// from widening broadcasts without bound.
func NewBroadcastPlanner(radiusBoostKmPerPriority float64, windowBoostPerPriority time.Duration, maxBoostSteps int) BroadcastPlanner {
	return BroadcastPlanner{
		radiusBoostKmPerPriority: radiusBoostKmPerPriority,
		windowBoostPerPriority:   windowBoostPerPriority,
		maxBoostSteps:            maxBoostSteps,
	}
}

// boostSteps clamps priority into [0, maxBoostSteps].
func (p BroadcastPlanner) boostSteps(priority int) int {
	if priority < 0 {
		return 0
	}
	if p.maxBoostSteps > 0 && priority > p.maxBoostSteps {
		return p.maxBoostSteps
	}
	return priority
}

// EffectiveRadiusKm returns the search radius after the priority boost.
func (p BroadcastPlanner) EffectiveRadiusKm(baseKm float64, priority int) float64 {
	return baseKm + float64(p.boostSteps(priority))*p.radiusBoostKmPerPriority
}

// EffectiveWindow returns the acceptance window after the priority boost.
func (p BroadcastPlanner) EffectiveWindow(base time.Duration, priority int) time.Duration {
	return base + time.Duration(p.boostSteps(priority))*p.windowBoostPerPriority
}

// RankCandidates orders the eligible couriers by distance from pickup,
// dropping couriers beyond radiusKm and truncating to limit (0 means no
// limit). Each courier is validated; ineligible couriers are skipped, not
// errors.
func (p BroadcastPlanner) RankCandidates(
	pickup kernel.GeoPoint,
	couriers []*courier.Courier,
	radiusKm float64,
	limit int,
) ([]Candidate, error) {
	if err := pickup.Validate(); err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(couriers))
	for _, c := range couriers {
		if err := c.Validate(); err != nil {
			return nil, err
		}

		if !c.IsCandidate() {
			continue
		}

		distance, err := pickup.DistanceKm(*c.Location())
		if err != nil {
			return nil, err
		}

		if distance > radiusKm {
			continue
		}

		candidates = append(candidates, Candidate{Courier: c, DistanceKm: distance})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].DistanceKm != candidates[j].DistanceKm {
			return candidates[i].DistanceKm < candidates[j].DistanceKm
		}
		return candidates[i].Courier.ID().String() < candidates[j].Courier.ID().String()
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	return candidates, nil
}
