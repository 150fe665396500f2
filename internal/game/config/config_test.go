package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotmachine/cluster-engine/internal/game/symbols"
)

func validTables() (map[symbols.Symbol]float64, map[symbols.Symbol]float64, map[symbols.Symbol]paytableRow, map[symbols.Symbol]float64, map[BetPlus]BetPlusModifier) {
	bg := map[symbols.Symbol]float64{
		symbols.Lady: 3, symbols.Pink: 14, symbols.Green: 16, symbols.Blue: 18,
		symbols.Orange: 20, symbols.Cyan: 22, symbols.Wild: 12, symbols.EWild: 8, symbols.Scatter: 7,
	}
	fs := map[symbols.Symbol]float64{
		symbols.Lady: 3, symbols.Pink: 11, symbols.Green: 12, symbols.Blue: 13,
		symbols.Orange: 14, symbols.Cyan: 15, symbols.Wild: 18, symbols.EWild: 16, symbols.Scatter: 5,
	}
	pay := map[symbols.Symbol]paytableRow{
		symbols.Lady: newPaytableRow(5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15),
		symbols.Pink: newPaytableRow(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11),
	}
	spawn := map[symbols.Symbol]float64{symbols.Wild: 0.5, symbols.EWild: 0.5}
	betPlus := map[BetPlus]BetPlusModifier{BetPlusNone: {1, 1}}
	return bg, fs, pay, spawn, betPlus
}

func TestDefaultConfig_Constructs(t *testing.T) {
	require.NotPanics(t, func() { DefaultConfig() })
	cfg := DefaultConfig()
	assert.Equal(t, 7500.0, cfg.MaxWinMultiple())
	assert.Equal(t, 75.0, cfg.FeatureBuyCost())
}

func TestNew_RejectsWeightKeyMismatch(t *testing.T) {
	bg, fs, pay, spawn, bp := validTables()
	delete(fs, symbols.Scatter)
	_, err := New(bg, fs, pay, 7500, spawn, 75, bp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWeightKeyMismatch))
}

func TestNew_RejectsNonPositiveWeight(t *testing.T) {
	bg, fs, pay, spawn, bp := validTables()
	bg[symbols.Pink] = 0
	_, err := New(bg, fs, pay, 7500, spawn, 75, bp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNonPositiveWeight))
}

func TestNew_RejectsBadSpawnProbabilities(t *testing.T) {
	bg, fs, pay, _, bp := validTables()
	badSpawn := map[symbols.Symbol]float64{symbols.Wild: 0.5, symbols.EWild: 0.6}
	_, err := New(bg, fs, pay, 7500, badSpawn, 75, bp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSpawnProbabilitiesInvalid))
}

func TestNew_RejectsNonMonotonicPaytable(t *testing.T) {
	bg, fs, pay, spawn, bp := validTables()
	badRow := newPaytableRow(5, 6, 7, 1, 9, 10, 11, 12, 13, 14, 15)
	pay[symbols.Lady] = badRow
	_, err := New(bg, fs, pay, 7500, spawn, 75, bp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPaytableNotMonotonic))
}

func TestNew_RejectsLadyNotOutpacingLowPay(t *testing.T) {
	bg, fs, pay, spawn, bp := validTables()
	pay[symbols.Lady] = newPaytableRow(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11)
	_, err := New(bg, fs, pay, 7500, spawn, 75, bp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPaytableOrdering))
}

func TestPayout_ClampsSize(t *testing.T) {
	cfg := DefaultConfig()
	at15 := cfg.Payout(symbols.Pink, 15)
	assert.Equal(t, at15, cfg.Payout(symbols.Pink, 40))
	assert.Equal(t, cfg.Payout(symbols.Pink, 5), cfg.Payout(symbols.Pink, 2))
}

func TestPayout_UnknownSymbolIsZero(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 0.0, cfg.Payout(symbols.Wild, 10))
	assert.Equal(t, 0.0, cfg.Payout(symbols.Scatter, 10))
}

func TestFreeSpinsTrail_DoublesFromBaseLevel(t *testing.T) {
	cfg := DefaultConfig()
	trail := cfg.FreeSpinsTrail(1) // base level 2
	assert.Equal(t, []int{2, 4, 8, 16, 32, 64}, trail)
}

func TestFreeSpinsTrail_ClampsIndex(t *testing.T) {
	cfg := DefaultConfig()
	trail := cfg.FreeSpinsTrail(99)
	assert.Equal(t, []int{32, 64, 128, 256, 512, 1024}, trail)
}

func TestBaseGameTrail(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, []int{1, 2, 4, 8, 16, 32}, cfg.BaseGameTrail())
}

func TestBetPlusModifier_UnknownIsError(t *testing.T) {
	cfg := DefaultConfig()
	_, err := cfg.BetPlusModifier(BetPlus(99))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownBetPlus))
}

func TestEffectiveWeights_ScalesScatterOnly(t *testing.T) {
	cfg := DefaultConfig()
	base := cfg.WeightsBaseGame()
	scaled := cfg.EffectiveWeights(base, BetPlusX2)
	assert.Equal(t, base[symbols.Scatter]*1.5, scaled[symbols.Scatter])
	assert.Equal(t, base[symbols.Lady], scaled[symbols.Lady])
}
