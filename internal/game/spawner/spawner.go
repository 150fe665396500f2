// Package spawner implements post-win wild spawning: after the round
// engine clears a cascade step's winning cells, the spawner places one
// WILD or E_WILD per cluster inside that cluster's original footprint.
// Grounded in kero-chan-public-slot-game's
// removeWinningSymbols/gold-to-wild transformation in
// cascade_engine.go (a winning gold-variant cell becomes a WILD in
// place rather than emptying) — this generalizes "winning cell
// sometimes becomes a wild" into an explicit two-step draw-then-
// placement spawner, reusing the rng.DrawSymbol weighted-draw idiom
// the grid refill already uses.
package spawner

import (
	"sort"

	"github.com/slotmachine/cluster-engine/internal/game/cluster"
	"github.com/slotmachine/cluster-engine/internal/game/grid"
	"github.com/slotmachine/cluster-engine/internal/game/rng"
	"github.com/slotmachine/cluster-engine/internal/game/symbols"
)

// Result records the outcome of one cluster's spawn attempt.
type Result struct {
	ClusterIndex int
	Symbol       symbols.Symbol // the drawn symbol, always recorded even on forfeit
	Position     grid.Position
	Forfeited    bool
}

// Spawn processes clusters in the order given (the round engine passes
// them in the cluster detector's deterministic order) against a grid
// that already has its winning cells cleared to Empty. It mutates g in
// place for every non-forfeited spawn.
func Spawn(g *grid.Grid, clusters []cluster.Cluster, spawnProbabilities map[symbols.Symbol]float64, stream rng.Stream) []Result {
	claimed := make(map[grid.Position]bool)
	results := make([]Result, len(clusters))

	for i, cl := range clusters {
		// Unconditional draw: every cluster consumes exactly one RNG
		// weighted-choice call, whether or not the spawn can land.
		sym := rng.DrawSymbol(stream, spawnProbabilities)

		candidates := make([]grid.Position, 0, len(cl.Positions))
		for _, p := range cl.Positions {
			if g.At(p) == symbols.Empty && !claimed[p] {
				candidates = append(candidates, p)
			}
		}
		sort.Slice(candidates, func(a, b int) bool {
			if candidates[a].Row != candidates[b].Row {
				return candidates[a].Row < candidates[b].Row
			}
			return candidates[a].Col < candidates[b].Col
		})

		if len(candidates) == 0 {
			results[i] = Result{ClusterIndex: i, Symbol: sym, Forfeited: true}
			continue
		}

		chosen := candidates[stream.Bounded(len(candidates))]
		g.Set(chosen, sym)
		claimed[chosen] = true
		results[i] = Result{ClusterIndex: i, Symbol: sym, Position: chosen}
	}

	return results
}
