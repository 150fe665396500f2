// Package explosion tracks explosivo-wild (EW) eligibility across a
// cascade and executes the simultaneous 3x3 destruction those eligible
// EWs trigger once a cascade step finds no cluster. Area-of-effect
// destruction has no precedent in kero-chan-public-slot-game; this
// subsystem is new code built in that repo's small-struct-plus-map
// idiom for per-cascade trackers (freespins.Session,
// cascade.CascadeResult) — plain structs holding Go maps as sets, no
// external dependency, since nothing in the broader retrieval pack
// offers a spatial/AoE library that fits a 5x5 board.
package explosion

import (
	"sort"

	"github.com/slotmachine/cluster-engine/internal/game/cluster"
	"github.com/slotmachine/cluster-engine/internal/game/grid"
	"github.com/slotmachine/cluster-engine/internal/game/symbols"
	"github.com/slotmachine/cluster-engine/internal/invariant"
)

// Event summarizes one call to ExecuteExplosions.
type Event struct {
	Destroyed []grid.Position // positions cleared to Empty, row-major order
	Occurred  bool            // true iff any destruction actually happened
}

// Tracker is the per-round EW eligibility bookkeeper. in_winning_clusters
// persists across every cascade step of a spin and is only cleared by
// ResetCascadeState. landed_this_drop is recomputed from the grid by
// TrackLanded after every refill. spawned_this_cascade is cleared at
// every REEL_DROP (every refill), by ClearSpawned.
type Tracker struct {
	landedThisDrop     map[grid.Position]bool
	inWinningClusters  map[grid.Position]bool
	spawnedThisCascade map[grid.Position]bool
	collected          map[grid.Position]bool // positions already counted toward ewCollectedCount

	ewCollectedCount int
}

// NewTracker returns a Tracker with empty sets.
func NewTracker() *Tracker {
	return &Tracker{
		landedThisDrop:     make(map[grid.Position]bool),
		inWinningClusters:  make(map[grid.Position]bool),
		spawnedThisCascade: make(map[grid.Position]bool),
		collected:          make(map[grid.Position]bool),
	}
}

// TrackLanded recomputes landed_this_drop from the current grid: every
// live E_WILD cell that was not spawned this cascade. Call once after
// every refill.
func (t *Tracker) TrackLanded(g *grid.Grid) {
	landed := make(map[grid.Position]bool)
	for _, p := range g.PositionsOf(symbols.EWild) {
		if !t.spawnedThisCascade[p] {
			landed[p] = true
		}
	}
	t.landedThisDrop = landed
}

// TrackClusterEWs records every EW inside a just-detected (not yet
// cleared) winning cluster into in_winning_clusters, incrementing the
// session-wide EW collection count exactly once per EW. Call before
// the round engine clears winning cells.
func (t *Tracker) TrackClusterEWs(clusters []cluster.Cluster, g *grid.Grid) {
	for _, cl := range clusters {
		for _, p := range cl.Positions {
			if g.At(p) != symbols.EWild {
				continue
			}
			t.inWinningClusters[p] = true
			t.collectOnce(p)
		}
	}
}

// TrackSpawned records a wild-spawner-placed E_WILD so it is excluded
// from landed_this_drop for the remainder of this cascade step.
func (t *Tracker) TrackSpawned(p grid.Position) {
	t.spawnedThisCascade[p] = true
}

// ShouldCheckExplosions reports whether the cascade should check for
// explosions: only when the most recent cluster detection pass found
// nothing, since explosions are the cascade's last resort before it
// terminates.
func ShouldCheckExplosions(clustersFound int) bool {
	return clustersFound == 0
}

func (t *Tracker) collectOnce(p grid.Position) {
	if t.collected[p] {
		return
	}
	t.collected[p] = true
	t.ewCollectedCount++
}

// EligiblePositions returns the EWs currently eligible to explode:
// live cells in landed_this_drop, plus the remembered positions of
// EWs already removed via in_winning_clusters, excluding anything
// spawned this cascade.
func (t *Tracker) EligiblePositions() []grid.Position {
	eligible := make(map[grid.Position]bool)
	for p := range t.landedThisDrop {
		eligible[p] = true
	}
	for p := range t.inWinningClusters {
		eligible[p] = true
	}
	for p := range t.spawnedThisCascade {
		delete(eligible, p)
	}
	out := make([]grid.Position, 0, len(eligible))
	for p := range eligible {
		out = append(out, p)
	}
	sortPositions(out)
	return out
}

// ExecuteExplosions fires every eligible EW's 3x3 area simultaneously.
// Eligible EWs that have not yet been counted toward ew_collected_count
// are counted now, whether or not the explosion destroys anything.
func (t *Tracker) ExecuteExplosions(g *grid.Grid) Event {
	eligible := t.EligiblePositions()
	if len(eligible) == 0 {
		return Event{}
	}

	for _, p := range eligible {
		t.collectOnce(p)
	}

	destruction := make(map[grid.Position]bool)
	for _, p := range eligible {
		for dr := -1; dr <= 1; dr++ {
			for dc := -1; dc <= 1; dc++ {
				cand := grid.Position{Row: p.Row + dr, Col: p.Col + dc}
				if cand.InBounds() {
					destruction[cand] = true
				}
			}
		}
	}

	var final []grid.Position
	for p := range destruction {
		if symbols.IsLowPay(g.At(p)) {
			final = append(final, p)
		}
	}
	invariant.Check(len(final) <= len(destruction), "destruction filter grew the candidate set")
	sortPositions(final)

	if len(final) == 0 {
		return Event{Occurred: false}
	}

	g.Remove(final)
	return Event{Destroyed: final, Occurred: true}
}

// ClearSpawned empties spawned_this_cascade at every REEL_DROP
// (every refill), so an EW the spawner placed in an earlier cascade
// step becomes eligible the moment the grid is next refilled.
func (t *Tracker) ClearSpawned() {
	t.spawnedThisCascade = make(map[grid.Position]bool)
}

// ResetCascadeState clears the three tracked position sets and the
// per-position collection dedupe at the boundary between one round's
// cascade run and the next. ew_collected_count itself is NOT reset; it
// is a session-wide counter the caller reads and carries forward
// (e.g. into FreeSpinsState.ew_collected_total).
func (t *Tracker) ResetCascadeState() {
	t.landedThisDrop = make(map[grid.Position]bool)
	t.inWinningClusters = make(map[grid.Position]bool)
	t.spawnedThisCascade = make(map[grid.Position]bool)
	t.collected = make(map[grid.Position]bool)
}

// EWCollectedCount returns the session-wide EW collection count
// accumulated so far.
func (t *Tracker) EWCollectedCount() int { return t.ewCollectedCount }

func sortPositions(positions []grid.Position) {
	sort.Slice(positions, func(i, j int) bool {
		if positions[i].Row != positions[j].Row {
			return positions[i].Row < positions[j].Row
		}
		return positions[i].Col < positions[j].Col
	})
}
