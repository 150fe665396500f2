package round

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotmachine/cluster-engine/internal/game/cluster"
	"github.com/slotmachine/cluster-engine/internal/game/config"
	"github.com/slotmachine/cluster-engine/internal/game/explosion"
	"github.com/slotmachine/cluster-engine/internal/game/grid"
	"github.com/slotmachine/cluster-engine/internal/game/multiplier"
	"github.com/slotmachine/cluster-engine/internal/game/rng"
	"github.com/slotmachine/cluster-engine/internal/game/symbols"
)

// noWinGrid tiles the board with a 5-color Latin square so no two
// orthogonal neighbors ever share a symbol: zero clusters are possible,
// and there is no EMPTY cell, so Refill draws nothing.
func noWinGrid() *grid.Grid {
	palette := []symbols.Symbol{symbols.Pink, symbols.Green, symbols.Blue, symbols.Orange, symbols.Cyan}
	g := grid.New()
	for r := 0; r < grid.Rows; r++ {
		for c := 0; c < grid.Cols; c++ {
			g.Set(grid.Position{Row: r, Col: c}, palette[(r+c)%len(palette)])
		}
	}
	return g
}

func TestRun_RejectsNegativeBet(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := Run(cfg, rng.NewHKDFStreamRNG(1), Options{BaseBet: -1}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrNegativeBet))
}

func TestRun_RejectsUnknownBetPlus(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := Run(cfg, rng.NewHKDFStreamRNG(1), Options{BaseBet: 1, BetPlus: config.BetPlus(99)}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrUnknownBetPlus))
}

func TestRun_Deterministic(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := Options{BaseBet: 1, BetPlus: config.BetPlusNone}

	r1, err1 := Run(cfg, rng.NewHKDFStreamRNG(777), opts, nil)
	r2, err2 := Run(cfg, rng.NewHKDFStreamRNG(777), opts, nil)
	require.NoError(t, err1)
	require.NoError(t, err2)

	assert.Equal(t, r1.TotalWinUnits, r2.TotalWinUnits)
	assert.Equal(t, r1.Cascades, r2.Cascades)
	assert.Equal(t, r1.MaxWinHit, r2.MaxWinHit)
}

func TestRun_DifferentSeedsCanDiverge(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := Options{BaseBet: 1, BetPlus: config.BetPlusNone}

	seen := make(map[float64]bool)
	for seed := uint64(1); seed <= 50; seed++ {
		r, err := Run(cfg, rng.NewHKDFStreamRNG(seed), opts, nil)
		require.NoError(t, err)
		seen[r.TotalWinUnits] = true
	}
	assert.Greater(t, len(seen), 1, "50 distinct seeds should not all produce an identical total win")
}

func TestRun_NeverExceedsMaxWinCap(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := Options{BaseBet: 1, BetPlus: config.BetPlusNone}
	capUnits := cfg.MaxWinMultiple() * opts.BaseBet

	for seed := uint64(1); seed <= 200; seed++ {
		r, err := Run(cfg, rng.NewHKDFStreamRNG(seed), opts, nil)
		require.NoError(t, err)
		assert.LessOrEqual(t, r.TotalWinUnits, capUnits+1e-9, "seed %d", seed)
		if r.MaxWinHit {
			assert.InDelta(t, capUnits, r.TotalWinUnits, 1e-6, "seed %d", seed)
		}
	}
}

func TestRun_FeatureBuySkipsBaseGameCascades(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := Options{Mode: FeatureBuy, BaseBet: 1, BetPlus: config.BetPlusNone}

	r, err := Run(cfg, rng.NewHKDFStreamRNG(5), opts, nil)
	require.NoError(t, err)
	assert.Empty(t, r.Cascades, "feature buy must not run a base-game cascade loop")
	require.NotNil(t, r.FreeSpinSession)
	assert.Greater(t, r.FreeSpinSession.SpinsCompleted, 0)
}

// S1 — a drop with no possible cluster and no EW present terminates
// the cascade loop immediately with zero win.
func TestRunCascadeLoop_NoWinNoExplosionTerminatesImmediately(t *testing.T) {
	cfg := config.DefaultConfig()
	g := noWinGrid()
	tracker := explosion.NewTracker()
	trail := multiplier.NewBaseGameTrail(cfg)

	steps, win, scatters, maxWinHit := runCascadeLoop(g, cfg, rng.NewHKDFStreamRNG(1), cfg.WeightsBaseGame(), trail, tracker, 1, cfg.MaxWinMultiple(), nil, "test")

	require.Len(t, steps, 1)
	assert.Equal(t, 0, steps[0].ClustersFound)
	assert.False(t, steps[0].ExplosionOccurred)
	assert.Equal(t, 0.0, win)
	assert.Equal(t, 0, scatters)
	assert.False(t, maxWinHit)
}

// S4 — an EW inside a winning cluster is cleared by the win immediately
// (counted toward ew_collected_count right away), but its explosion
// does not fire in the same step: a winning step always proceeds
// straight to the next REEL_DROP, so the explosion can only happen on
// a later step once cluster detection finds nothing.
func TestRunCascadeLoop_EWInWinningClusterExplodesOnLaterStep(t *testing.T) {
	cfg := config.DefaultConfig()

	sawLaterExplosion := false

	for seed := uint64(1); seed <= 200; seed++ {
		g := noWinGrid()

		winning := []grid.Position{{Row: 2, Col: 2}, {Row: 1, Col: 1}, {Row: 1, Col: 2}, {Row: 1, Col: 3}, {Row: 2, Col: 3}}
		for _, p := range winning[1:] {
			g.Set(p, symbols.Cyan)
		}
		g.Set(winning[0], symbols.EWild) // the cluster's wild member

		// Counted right away: applying this step's win alone collects
		// exactly the cluster's own EW.
		first := explosion.NewTracker()
		applyWins(g.Clone(), cfg, cluster.Detect(g), first, rng.NewHKDFStreamRNG(seed))
		assert.Equal(t, 1, first.EWCollectedCount(), "seed %d", seed)

		tracker := explosion.NewTracker()
		trail := multiplier.NewBaseGameTrail(cfg)

		steps, win, _, maxWinHit := runCascadeLoop(g, cfg, rng.NewHKDFStreamRNG(seed), cfg.WeightsBaseGame(), trail, tracker, 1, cfg.MaxWinMultiple(), nil, "test")

		require.False(t, maxWinHit, "seed %d", seed)
		require.GreaterOrEqual(t, len(steps), 1, "seed %d", seed)
		assert.Equal(t, 1, steps[0].ClustersFound, "seed %d", seed)
		assert.Greater(t, win, 0.0, "seed %d", seed)
		assert.False(t, steps[0].ExplosionOccurred, "seed %d: a winning step never checks for explosions in the same step", seed)

		for _, s := range steps[1:] {
			if s.ExplosionOccurred {
				sawLaterExplosion = true
				break
			}
		}
	}

	assert.True(t, sawLaterExplosion, "across 200 seeds, the cluster's own EW should explode on a subsequent no-cluster step at least once")
}

// S5 — whatever the wild spawner places this cascade step is excluded
// from explosion eligibility: an E_WILD landing via spawn must not
// appear in the tracker's eligible set immediately after applyWins.
func TestApplyWins_SpawnedPositionsAreNeverEligible(t *testing.T) {
	cfg := config.DefaultConfig()
	winning := []grid.Position{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 0}, {Row: 1, Col: 1}}

	for seed := uint64(1); seed <= 50; seed++ {
		g := noWinGrid()
		for _, p := range winning {
			g.Set(p, symbols.Cyan)
		}
		tracker := explosion.NewTracker()
		clusters := cluster.Detect(g)
		require.Len(t, clusters, 1)

		applyWins(g, cfg, clusters, tracker, rng.NewHKDFStreamRNG(seed))

		eligible := tracker.EligiblePositions()
		for _, p := range winning {
			if g.At(p) == symbols.EWild {
				assert.NotContains(t, eligible, p, "seed %d: a freshly spawned E_WILD must not be explosion-eligible this cascade", seed)
			}
		}
	}
}

// S6 — a free-spins session persists EW collection and retriggers
// across its whole run: over enough seeds, some sessions collect
// enough EWs to apply at least one base-level upgrade, and some
// collect enough scatters mid-session to run more spins than the
// entry award alone would grant.
func TestRun_FreeSpinsSessionAccumulatesUpgradesAndRetriggers(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := Options{Mode: FeatureBuy, BaseBet: 1, BetPlus: config.BetPlusNone}

	sawUpgrade := false
	sawExtraSpins := false
	entryAward := 10

	for seed := uint64(1); seed <= 300; seed++ {
		r, err := Run(cfg, rng.NewHKDFStreamRNG(seed), opts, nil)
		require.NoError(t, err)
		require.NotNil(t, r.FreeSpinSession)

		if r.FreeSpinSession.FinalBaseLevelIndex > 0 {
			sawUpgrade = true
		}
		if r.FreeSpinSession.SpinsCompleted > entryAward {
			sawExtraSpins = true
		}
	}

	assert.True(t, sawUpgrade, "300 feature-buy sessions should include at least one base-level upgrade from EW collection")
	assert.True(t, sawExtraSpins, "300 feature-buy sessions should include at least one retrigger or upgrade-granted extra spin")
}

// Two disjoint clusters win in the same step: both are paid, and the
// multiplier advances exactly once for that step. The winning step
// never checks for explosions itself. (Spawn forfeits are covered by
// the spawner's own tests.)
func TestRunCascadeLoop_TwoClusterStepAdvancesMultiplierOnce(t *testing.T) {
	cfg := config.DefaultConfig()
	g := noWinGrid()

	clusterA := []grid.Position{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 0}, {Row: 1, Col: 1}}
	for _, p := range clusterA {
		g.Set(p, symbols.Cyan)
	}
	clusterB := []grid.Position{{Row: 3, Col: 3}, {Row: 3, Col: 4}, {Row: 4, Col: 3}, {Row: 4, Col: 4}, {Row: 2, Col: 4}}
	for _, p := range clusterB {
		g.Set(p, symbols.Blue)
	}

	tracker := explosion.NewTracker()
	trail := multiplier.NewBaseGameTrail(cfg)

	steps, win, _, maxWinHit := runCascadeLoop(g, cfg, rng.NewHKDFStreamRNG(3), cfg.WeightsBaseGame(), trail, tracker, 1, cfg.MaxWinMultiple(), nil, "test")

	require.False(t, maxWinHit)
	require.GreaterOrEqual(t, len(steps), 1)
	assert.Equal(t, 2, steps[0].ClustersFound)
	assert.Greater(t, win, 0.0)
	assert.False(t, steps[0].ExplosionOccurred, "a winning step never checks for explosions in the same step")
	assert.Equal(t, 2, steps[0].Multiplier, "the multiplier advances by one for the winning step, however many clusters it paid")
}
