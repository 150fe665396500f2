// Package config builds the immutable value object the round engine
// borrows for the lifetime of a round: symbol weight tables, the
// paytable, and the feature parameters that govern wild spawning,
// max-win, and the free-spins feature. Grounded in
// kero-chan-public-slot-game's internal/game/symbols weight/paytable
// tables and its fail-fast, sentinel-error domain style
// (domain/*/errors.go); DefaultConfig reproduces this game's weight and
// paytable numbers the same way that repo's package-level tables
// reproduce its own reel weights.
package config

import (
	"fmt"
	"sort"

	"github.com/slotmachine/cluster-engine/internal/game/symbols"
)

// BetPlus identifies a bet-modifier surcharge a player can opt into
// before a round; it both scales the wager and reweights scatter
// frequency to raise the free-spins hit rate.
type BetPlus int

const (
	// BetPlusNone is the default, unmodified wager.
	BetPlusNone BetPlus = iota
	BetPlusX1_5
	BetPlusX2
	BetPlusX3
)

// BetPlusModifier is the pair of multipliers a BetPlus option applies:
// the wager surcharge and the scatter-weight boost used to recompute
// an effective base-game weight table for that round.
type BetPlusModifier struct {
	BetMultiplier           float64
	ScatterWeightMultiplier float64
}

// minClusterSize is the floor Config.Payout clamps cluster sizes to;
// sizes below 5 never pay and never reach the paytable.
const minClusterSize = 5

// maxClusterSize is the ceiling cluster sizes clamp to for payout
// lookup; the true position set is kept by the caller regardless.
const maxClusterSize = 15

// paytableRow holds one paying symbol's payout multiples for cluster
// sizes minClusterSize..maxClusterSize, indexed 0-based from
// minClusterSize.
type paytableRow [maxClusterSize - minClusterSize + 1]float64

// Config is an immutable snapshot of every tunable the round engine
// consults. Construct it with New or DefaultConfig; both validate
// before returning, so a *Config in hand is always well-formed.
type Config struct {
	weightsBaseGame   map[symbols.Symbol]float64
	weightsFreeSpins  map[symbols.Symbol]float64
	paytable          map[symbols.Symbol]paytableRow
	maxWinMultiple    float64
	wildSpawnProbs    map[symbols.Symbol]float64
	featureBuyCost    float64
	betPlusModifiers  map[BetPlus]BetPlusModifier
	baseGameTrail     []int
	freeSpinBaseLevel []int
}

// New validates the supplied tables and returns an immutable Config.
// All map arguments are copied; mutating the caller's maps afterward
// has no effect on the returned Config.
func New(
	weightsBaseGame, weightsFreeSpins map[symbols.Symbol]float64,
	paytable map[symbols.Symbol]paytableRow,
	maxWinMultiple float64,
	wildSpawnProbs map[symbols.Symbol]float64,
	featureBuyCost float64,
	betPlusModifiers map[BetPlus]BetPlusModifier,
) (*Config, error) {
	c := &Config{
		weightsBaseGame:   cloneWeights(weightsBaseGame),
		weightsFreeSpins:  cloneWeights(weightsFreeSpins),
		paytable:          clonePaytable(paytable),
		maxWinMultiple:    maxWinMultiple,
		wildSpawnProbs:    cloneWeights(wildSpawnProbs),
		featureBuyCost:    featureBuyCost,
		betPlusModifiers:  cloneBetPlus(betPlusModifiers),
		baseGameTrail:     []int{1, 2, 4, 8, 16, 32},
		freeSpinBaseLevel: []int{1, 2, 4, 8, 16, 32},
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func cloneWeights(m map[symbols.Symbol]float64) map[symbols.Symbol]float64 {
	out := make(map[symbols.Symbol]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func clonePaytable(m map[symbols.Symbol]paytableRow) map[symbols.Symbol]paytableRow {
	out := make(map[symbols.Symbol]paytableRow, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneBetPlus(m map[BetPlus]BetPlusModifier) map[BetPlus]BetPlusModifier {
	out := make(map[BetPlus]BetPlusModifier, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (c *Config) validate() error {
	if len(c.weightsBaseGame) != len(c.weightsFreeSpins) {
		return ErrWeightKeyMismatch
	}
	catalog := make(map[symbols.Symbol]bool)
	for _, s := range symbols.AllSymbols() {
		catalog[s] = true
	}
	for sym, w := range c.weightsBaseGame {
		if !catalog[sym] {
			return fmt.Errorf("%w: %s", ErrWeightNotSubsetOfCatalog, sym)
		}
		if w <= 0 {
			return fmt.Errorf("%w: base game %s = %v", ErrNonPositiveWeight, sym, w)
		}
		fsWeight, ok := c.weightsFreeSpins[sym]
		if !ok {
			return fmt.Errorf("%w: %s missing from free spins table", ErrWeightKeyMismatch, sym)
		}
		if fsWeight <= 0 {
			return fmt.Errorf("%w: free spins %s = %v", ErrNonPositiveWeight, sym, fsWeight)
		}
	}

	spawnSum := 0.0
	for sym, p := range c.wildSpawnProbs {
		if !symbols.IsWild(sym) {
			return fmt.Errorf("config: wild spawn probability named for non-wild symbol %s", sym)
		}
		spawnSum += p
	}
	if spawnSum < 0.999999 || spawnSum > 1.000001 {
		return fmt.Errorf("%w: got %v", ErrSpawnProbabilitiesInvalid, spawnSum)
	}

	for sym, row := range c.paytable {
		if !symbols.IsPaying(sym) {
			return fmt.Errorf("config: paytable entry for non-paying symbol %s", sym)
		}
		for i := 1; i < len(row); i++ {
			if row[i] < row[i-1] {
				return fmt.Errorf("%w: %s size %d < size %d", ErrPaytableNotMonotonic, sym, i+minClusterSize, i+minClusterSize-1)
			}
		}
	}
	for _, lowPay := range symbols.LowPaySymbols() {
		lowRow, ok := c.paytable[lowPay]
		if !ok {
			continue
		}
		ladyRow, ok := c.paytable[symbols.Lady]
		if !ok {
			continue
		}
		for i := range lowRow {
			if ladyRow[i] <= lowRow[i] {
				return fmt.Errorf("%w: lady=%v %s=%v at size %d", ErrPaytableOrdering, ladyRow[i], lowPay, lowRow[i], i+minClusterSize)
			}
		}
	}
	return nil
}

// WeightsBaseGame returns the base-game weight table. The returned map
// must not be mutated by the caller.
func (c *Config) WeightsBaseGame() map[symbols.Symbol]float64 { return c.weightsBaseGame }

// WeightsFreeSpins returns the free-spins weight table. The returned
// map must not be mutated by the caller.
func (c *Config) WeightsFreeSpins() map[symbols.Symbol]float64 { return c.weightsFreeSpins }

// EffectiveWeights applies a BetPlus's scatter-weight surcharge to the
// base weight table, returning a fresh map. base is the table (base
// game or free spins) to scale.
func (c *Config) EffectiveWeights(base map[symbols.Symbol]float64, betPlus BetPlus) map[symbols.Symbol]float64 {
	modifier := c.betPlusModifiers[betPlus]
	if modifier.ScatterWeightMultiplier == 0 {
		modifier.ScatterWeightMultiplier = 1
	}
	out := cloneWeights(base)
	if w, ok := out[symbols.Scatter]; ok {
		out[symbols.Scatter] = w * modifier.ScatterWeightMultiplier
	}
	return out
}

// WildSpawnProbabilities returns the {WILD, E_WILD} spawn weight table.
func (c *Config) WildSpawnProbabilities() map[symbols.Symbol]float64 { return c.wildSpawnProbs }

// MaxWinMultiple returns the max-win cap expressed as a multiple of
// base bet.
func (c *Config) MaxWinMultiple() float64 { return c.maxWinMultiple }

// FeatureBuyCost returns the flat cost (in bet multiples) of buying
// directly into the free-spins feature.
func (c *Config) FeatureBuyCost() float64 { return c.featureBuyCost }

// BaseGameTrail returns the six-entry base-game cascade multiplier
// trail, [1,2,4,8,16,32].
func (c *Config) BaseGameTrail() []int { return append([]int(nil), c.baseGameTrail...) }

// FreeSpinsTrail returns the six-entry free-spins multiplier trail
// derived from baseLevelIndex (an index into {1,2,4,8,16,32}): six
// successive doublings of that base level, [b, 2b, 4b, ..., 32b].
func (c *Config) FreeSpinsTrail(baseLevelIndex int) []int {
	baseLevelIndex = clampInt(baseLevelIndex, 0, len(c.freeSpinBaseLevel)-1)
	b := c.freeSpinBaseLevel[baseLevelIndex]
	trail := make([]int, 6)
	for i := range trail {
		trail[i] = b << uint(i)
	}
	return trail
}

// MaxBaseLevelIndex is the highest valid free-spins base_level_index
// (base level 32x).
func (c *Config) MaxBaseLevelIndex() int { return len(c.freeSpinBaseLevel) - 1 }

// Payout returns the payout multiple of base bet for a cluster of sym
// at size, clamping size into [5,15]. Returns 0 for a non-paying
// symbol or one absent from the paytable.
func (c *Config) Payout(sym symbols.Symbol, size int) float64 {
	row, ok := c.paytable[sym]
	if !ok {
		return 0
	}
	size = clampInt(size, minClusterSize, maxClusterSize)
	return row[size-minClusterSize]
}

// BetPlusModifier returns the wager/scatter-weight multiplier pair for
// a BetPlus option, or an error if the option is unrecognized.
func (c *Config) BetPlusModifier(bp BetPlus) (BetPlusModifier, error) {
	m, ok := c.betPlusModifiers[bp]
	if !ok {
		return BetPlusModifier{}, fmt.Errorf("%w: %d", ErrUnknownBetPlus, bp)
	}
	return m, nil
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sortedPayingSymbols is a small helper kept for callers (and tests)
// that want deterministic iteration over the paytable.
func (c *Config) sortedPayingSymbols() []symbols.Symbol {
	out := make([]symbols.Symbol, 0, len(c.paytable))
	for s := range c.paytable {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// newPaytableRow builds a paytableRow from 11 values for sizes 5..15.
func newPaytableRow(values ...float64) paytableRow {
	var row paytableRow
	copy(row[:], values)
	return row
}

// DefaultConfig builds the game's default weight and paytable numbers
// under its deterministic weight-table contract.
func DefaultConfig() *Config {
	weightsBaseGame := map[symbols.Symbol]float64{
		symbols.Lady:    3,
		symbols.Pink:    14,
		symbols.Green:   16,
		symbols.Blue:    18,
		symbols.Orange:  20,
		symbols.Cyan:    22,
		symbols.Wild:    12,
		symbols.EWild:   8,
		symbols.Scatter: 7,
	}
	// Free spins: WILD x1.5, E_WILD x2 relative to base game, with the
	// paying symbols and scatter rebalanced down so every weight stays
	// positive and EW collection averages 3-5 per 10 spins.
	weightsFreeSpins := map[symbols.Symbol]float64{
		symbols.Lady:    3,
		symbols.Pink:    11,
		symbols.Green:   12,
		symbols.Blue:    13,
		symbols.Orange:  14,
		symbols.Cyan:    15,
		symbols.Wild:    18, // 12 * 1.5
		symbols.EWild:   16, // 8 * 2
		symbols.Scatter: 5,
	}

	paytable := map[symbols.Symbol]paytableRow{
		symbols.Lady:   newPaytableRow(5, 7.5, 10, 15, 20, 30, 40, 60, 80, 100, 150),
		symbols.Pink:   newPaytableRow(1.0, 1.5, 2.0, 3.0, 4.0, 6.0, 8.0, 12.0, 16.0, 20.0, 30.0),
		symbols.Green:  newPaytableRow(0.8, 1.2, 1.6, 2.4, 3.2, 4.8, 6.4, 9.6, 12.8, 16.0, 24.0),
		symbols.Blue:   newPaytableRow(0.6, 0.9, 1.2, 1.8, 2.4, 3.6, 4.8, 7.2, 9.6, 12.0, 18.0),
		symbols.Orange: newPaytableRow(0.4, 0.6, 0.8, 1.2, 1.6, 2.4, 3.2, 4.8, 6.4, 8.0, 12.0),
		symbols.Cyan:   newPaytableRow(0.2, 0.3, 0.4, 0.6, 0.8, 1.2, 1.6, 2.4, 3.2, 4.0, 6.0),
	}

	wildSpawnProbs := map[symbols.Symbol]float64{
		symbols.Wild:  0.5,
		symbols.EWild: 0.5,
	}

	betPlusModifiers := map[BetPlus]BetPlusModifier{
		BetPlusNone: {BetMultiplier: 1.0, ScatterWeightMultiplier: 1.0},
		BetPlusX1_5: {BetMultiplier: 1.5, ScatterWeightMultiplier: 1.25},
		BetPlusX2:   {BetMultiplier: 2.0, ScatterWeightMultiplier: 1.5},
		BetPlusX3:   {BetMultiplier: 3.0, ScatterWeightMultiplier: 2.0},
	}

	cfg, err := New(weightsBaseGame, weightsFreeSpins, paytable, 7500, wildSpawnProbs, 75, betPlusModifiers)
	if err != nil {
		// DefaultConfig is exercised by every test in the package; a
		// validation failure here is a programming error in this file,
		// not a runtime condition any caller can recover from.
		panic(fmt.Errorf("config: DefaultConfig is invalid: %w", err))
	}
	return cfg
}
