// Package round implements the Round Engine: the nine-state cascade
// machine that drives one paid spin (and any free-spins session it
// triggers) by composing the grid, cluster detector, wild spawner,
// explosion engine, multiplier trail, and free-spins session. Grounded
// in kero-chan-public-slot-game's internal/game/cascade.ExecuteCascades
// (the cascade-to-win-to-gravity-to-refill loop shape) and
// internal/game/engine.GameEngine (the outer per-spin orchestrator that
// owns cascades, scatter counting, and free-spin hand-off); that
// package's simple "loop until no wins" is replaced here with the full
// state machine this engine's cascade semantics require, since a
// ways-pays reel game has no explosion or EW-collection concept.
package round

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/slotmachine/cluster-engine/internal/game/cluster"
	"github.com/slotmachine/cluster-engine/internal/game/config"
	"github.com/slotmachine/cluster-engine/internal/game/explosion"
	"github.com/slotmachine/cluster-engine/internal/game/freespins"
	"github.com/slotmachine/cluster-engine/internal/game/grid"
	"github.com/slotmachine/cluster-engine/internal/game/multiplier"
	"github.com/slotmachine/cluster-engine/internal/game/rng"
	"github.com/slotmachine/cluster-engine/internal/game/spawner"
	"github.com/slotmachine/cluster-engine/internal/game/symbols"
)

// Mode selects how a round is entered.
type Mode int

const (
	// BaseGame is an ordinary paid spin.
	BaseGame Mode = iota
	// FeatureBuy enters the free-spins feature directly, skipping the
	// base-game cascade loop.
	FeatureBuy
)

// Options are the caller-supplied inputs to one round.
type Options struct {
	Mode    Mode
	BaseBet float64
	BetPlus config.BetPlus
}

// CascadeStep records one iteration of the cascade loop for inclusion
// in a RoundResult's replay trail.
type CascadeStep struct {
	CascadeNumber     int
	ClustersFound     int
	Win               float64
	Multiplier        int
	ExplosionOccurred bool
	ExplosionCells    []grid.Position
	ScattersOnDrop    int
}

// FreeSpinSummary is the terminal snapshot of a completed free-spins
// session, embedded in the RoundResult that triggered it.
type FreeSpinSummary struct {
	ID                   uuid.UUID
	SpinsCompleted       int
	FinalBaseLevelIndex  int
	EWCollectedTotal     int
	SessionWin           float64
	MaxWinHit            bool
}

// RoundResult is the complete outcome of one paid round.
type RoundResult struct {
	ID                    uuid.UUID
	TotalWinUnits         float64
	MultiplierProgression []int
	Cascades              []CascadeStep
	FreeSpinSession       *FreeSpinSummary
	MaxWinHit             bool
}

// Run executes one paid round to completion: the base-game cascade
// loop (unless options.Mode is FeatureBuy, which skips straight to the
// free-spins session), followed by a free-spins session if one was
// triggered or bought. cfg and stream are borrowed references; every
// other piece of state is owned by the round for its duration. logger
// may be nil, which silences all round-level logging.
func Run(cfg *config.Config, stream rng.Stream, options Options, logger *zerolog.Logger) (*RoundResult, error) {
	if options.BaseBet < 0 {
		return nil, fmt.Errorf("round: %w", config.ErrNegativeBet)
	}
	if _, err := cfg.BetPlusModifier(options.BetPlus); err != nil {
		return nil, fmt.Errorf("round: %w", err)
	}

	result := &RoundResult{ID: uuid.New()}
	maxWinUnits := cfg.MaxWinMultiple() * options.BaseBet

	if options.Mode == FeatureBuy {
		fs := freespins.NewState(10)
		fsMaxWinHit := runFreeSpins(cfg, stream, options.BaseBet, maxWinUnits, fs, logger)
		result.TotalWinUnits = fs.SessionWin
		result.MaxWinHit = fsMaxWinHit
		result.FreeSpinSession = summarize(fs, fsMaxWinHit)
		return result, nil
	}

	g := grid.New()
	tracker := explosion.NewTracker()
	trail := multiplier.NewBaseGameTrail(cfg)
	weights := cfg.EffectiveWeights(cfg.WeightsBaseGame(), options.BetPlus)

	cascades, win, scatterTriggerCount, maxWinHit := runCascadeLoop(g, cfg, stream, weights, trail, tracker, options.BaseBet, maxWinUnits, logger, "base")

	result.Cascades = cascades
	result.TotalWinUnits = win
	result.MultiplierProgression = trailProgression(cascades)
	result.MaxWinHit = maxWinHit

	if maxWinHit {
		return result, nil
	}

	trigger := freespins.CheckTrigger(scatterTriggerCount)
	if trigger.Triggered {
		fs := freespins.NewState(trigger.SpinsAwarded)
		logEvent(logger, "free_spins_entered", map[string]interface{}{
			"scatter_count": trigger.ScatterCount,
			"spins_awarded": trigger.SpinsAwarded,
		})
		fsMaxWinHit := runFreeSpins(cfg, stream, options.BaseBet, maxWinUnits-win, fs, logger)
		result.TotalWinUnits += fs.SessionWin
		result.FreeSpinSession = summarize(fs, fsMaxWinHit)
		result.MaxWinHit = fsMaxWinHit
	}

	return result, nil
}

// runFreeSpins drives the free-spins subroutine to completion, mutating
// fs in place, and reports whether the session ended on the max-win cap.
func runFreeSpins(cfg *config.Config, stream rng.Stream, baseBet, winBudget float64, fs *freespins.State, logger *zerolog.Logger) bool {
	for fs.SpinsRemaining > 0 {
		fs.ApplyPendingUpgrades(cfg.MaxBaseLevelIndex())

		g := grid.New()
		tracker := explosion.NewTracker()
		trail := multiplier.NewFreeSpinsTrail(cfg, fs.BaseLevelIndex)
		weights := cfg.WeightsFreeSpins()

		remainingBudget := winBudget - fs.SessionWin
		steps, spinWin, scattersThisSpin, maxWinHit := runCascadeLoop(g, cfg, stream, weights, trail, tracker, baseBet, remainingBudget, logger, "free_spins")
		// The loop only latches counts of 3 or more; a retrigger also
		// fires on 2, so fall back to the first drop that showed 2+.
		if scattersThisSpin == 0 {
			for _, s := range steps {
				if s.ScattersOnDrop >= 2 {
					scattersThisSpin = s.ScattersOnDrop
					break
				}
			}
		}

		fs.AddWin(spinWin)
		fs.AddEWCollected(tracker.EWCollectedCount())

		if maxWinHit {
			fs.CancelPendingUpgrades()
			fs.SpinsRemaining = 0
			logEvent(logger, "max_win_hit", map[string]interface{}{"phase": "free_spins"})
			return true
		}

		retrigger := freespins.CheckRetrigger(scattersThisSpin)
		if retrigger.Triggered {
			fs.Retrigger(retrigger.SpinsAwarded)
			logEvent(logger, "free_spins_retrigger", map[string]interface{}{
				"scatter_count": retrigger.ScatterCount,
				"spins_awarded": retrigger.SpinsAwarded,
			})
		}

		fs.ConsumeSpin()
	}
	return false
}

// runCascadeLoop runs the cascade state machine for one spin (base
// game or one free spin) to completion. Each iteration is one cascade
// step rooted at a single REEL_DROP: refill, scatter count, cluster
// detection, then either PROCESS_WINS or CHECK_EXPLOSIONS, never both
// in the same step. A winning step always leads to a fresh REEL_DROP,
// since the holes it opened still need refilling and re-detecting;
// CHECK_EXPLOSIONS only runs on a step where detection found nothing,
// and the loop terminates the first time such a step destroys
// nothing either.
func runCascadeLoop(
	g *grid.Grid,
	cfg *config.Config,
	stream rng.Stream,
	weights map[symbols.Symbol]float64,
	trail *multiplier.Trail,
	tracker *explosion.Tracker,
	baseBet, winBudget float64,
	logger *zerolog.Logger,
	phase string,
) (steps []CascadeStep, totalWin float64, latchedScatterCount int, maxWinHit bool) {
	cascadeNumber := 0

	for {
		cascadeNumber++
		g.Refill(weights, stream)
		tracker.ClearSpawned()
		tracker.TrackLanded(g)

		scatterCount := g.Count(symbols.Scatter)
		if latchedScatterCount == 0 && scatterCount >= 3 {
			latchedScatterCount = scatterCount
		}

		clusters := cluster.Detect(g)
		step := CascadeStep{CascadeNumber: cascadeNumber, ClustersFound: len(clusters), Multiplier: trail.Current(), ScattersOnDrop: scatterCount}

		if len(clusters) > 0 {
			stepWin := computeWin(cfg, clusters, trail.Current(), baseBet)

			if totalWin+stepWin >= winBudget {
				step.Win = winBudget - totalWin
				totalWin = winBudget
				maxWinHit = true
				steps = append(steps, step)
				logEvent(logger, "max_win_hit", map[string]interface{}{"phase": phase, "cascade": cascadeNumber})
				return steps, totalWin, latchedScatterCount, maxWinHit
			}

			totalWin += stepWin
			step.Win = stepWin

			applyWins(g, cfg, clusters, tracker, stream)
			trail.Advance()
			step.Multiplier = trail.Current()
			steps = append(steps, step)
			logEvent(logger, "cascade_win", map[string]interface{}{"phase": phase, "cascade": cascadeNumber, "clusters": len(clusters), "win": stepWin})
			continue
		}

		if explosion.ShouldCheckExplosions(len(clusters)) {
			ev := tracker.ExecuteExplosions(g)
			if ev.Occurred {
				g.ApplyGravity()
				trail.Advance()
				step.ExplosionOccurred = true
				step.ExplosionCells = ev.Destroyed
				step.Multiplier = trail.Current()
				steps = append(steps, step)
				logEvent(logger, "explosion", map[string]interface{}{"phase": phase, "cascade": cascadeNumber, "cells_destroyed": len(ev.Destroyed)})
				continue
			}
		}

		steps = append(steps, step)
		return steps, totalWin, latchedScatterCount, maxWinHit
	}
}

// computeWin totals the payout for a cascade step's clusters at the
// current multiplier, without mutating the grid or any tracker.
func computeWin(cfg *config.Config, clusters []cluster.Cluster, currentMultiplier int, baseBet float64) float64 {
	var win float64
	for _, cl := range clusters {
		win += cfg.Payout(cl.SymbolKind, cl.Size) * float64(currentMultiplier) * baseBet
	}
	return win
}

// applyWins records cluster EWs with the explosion tracker, clears the
// winning cells, spawns replacement wilds within their footprints, and
// reapplies gravity. Called only once a step's win is known not to
// cross the max-win cap.
func applyWins(g *grid.Grid, cfg *config.Config, clusters []cluster.Cluster, tracker *explosion.Tracker, stream rng.Stream) {
	tracker.TrackClusterEWs(clusters, g)

	for _, cl := range clusters {
		g.Remove(cl.Positions)
	}

	spawnResults := spawner.Spawn(g, clusters, cfg.WildSpawnProbabilities(), stream)
	for _, r := range spawnResults {
		if !r.Forfeited {
			tracker.TrackSpawned(r.Position)
		}
	}

	g.ApplyGravity()
}

func summarize(fs *freespins.State, maxWinHit bool) *FreeSpinSummary {
	return &FreeSpinSummary{
		ID:                   fs.ID,
		SpinsCompleted:       fs.SpinsCompleted,
		FinalBaseLevelIndex:  fs.BaseLevelIndex,
		EWCollectedTotal:     fs.EWCollectedTotal,
		SessionWin:           fs.SessionWin,
		MaxWinHit:            maxWinHit,
	}
}

func trailProgression(steps []CascadeStep) []int {
	out := make([]int, len(steps))
	for i, s := range steps {
		out[i] = s.Multiplier
	}
	return out
}

func logEvent(logger *zerolog.Logger, name string, fields map[string]interface{}) {
	if logger == nil {
		return
	}
	evt := logger.Info().Str("event", name)
	for k, v := range fields {
		evt = evt.Interface(k, v)
	}
	evt.Msg(name)
}
