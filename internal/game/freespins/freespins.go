// Package freespins tracks a free-spins bonus session: the spins
// counter, the persistent base-level upgrade ledger EW collection
// feeds, and session winnings. Grounded in
// kero-chan-public-slot-game's domain/freespins session model
// (FreeSpinsSession: ScatterCount, TotalSpinsAwarded, SpinsCompleted,
// RemainingSpins, TotalWon) and its internal/game/freespins.CheckTrigger
// shape, adapted from a gorm-persisted row into a plain in-memory
// struct the round engine threads through a single spin sequence — no
// database in this module, so no repository layer survives.
package freespins

import "github.com/google/uuid"

// TriggerResult is the outcome of checking whether a base-game scatter
// count awards free spins.
type TriggerResult struct {
	Triggered    bool
	ScatterCount int
	SpinsAwarded int
}

// CheckTrigger evaluates a base-game scatter count against the
// free-spins trigger rule: 3 scatters award 10 spins, each additional
// scatter beyond 3 adds 2 more.
func CheckTrigger(scatterCount int) TriggerResult {
	if scatterCount < 3 {
		return TriggerResult{ScatterCount: scatterCount}
	}
	return TriggerResult{
		Triggered:    true,
		ScatterCount: scatterCount,
		SpinsAwarded: 10 + (scatterCount-3)*2,
	}
}

// RetriggerResult is the outcome of checking whether a scatter count
// landing during an active free-spins session awards additional spins.
type RetriggerResult struct {
	Triggered    bool
	ScatterCount int
	SpinsAwarded int
}

// CheckRetrigger evaluates a scatter count landing during free spins.
// 2 scatters award 3 spins, 3 award 5, 4 award 7; 5 or more award 7
// plus 2 per scatter beyond 4, uncapped.
func CheckRetrigger(scatterCount int) RetriggerResult {
	switch {
	case scatterCount >= 5:
		return RetriggerResult{true, scatterCount, 7 + (scatterCount-4)*2}
	case scatterCount == 4:
		return RetriggerResult{true, scatterCount, 7}
	case scatterCount == 3:
		return RetriggerResult{true, scatterCount, 5}
	case scatterCount == 2:
		return RetriggerResult{true, scatterCount, 3}
	default:
		return RetriggerResult{ScatterCount: scatterCount}
	}
}

// State is one free-spins session's persistent bookkeeping. The round
// engine owns one State for the lifetime of the bonus and threads it
// through every spin.
type State struct {
	ID uuid.UUID

	SpinsRemaining int
	SpinsCompleted int

	// BaseLevelIndex indexes into the six-entry free-spins base level
	// table; it only ever increases, by one per applied upgrade, and
	// caps at maxBaseLevelIndex.
	BaseLevelIndex int

	EWCollectedTotal int
	PendingUpgrades  int
	ewSinceUpgrade   int

	SessionWin float64
}

// NewState starts a session with spinsAwarded spins at base level 0.
func NewState(spinsAwarded int) *State {
	return &State{ID: uuid.New(), SpinsRemaining: spinsAwarded}
}

// AddEWCollected folds n newly collected explosivo wilds into the
// upgrade ledger: every third EW becomes one pending upgrade.
func (s *State) AddEWCollected(n int) {
	if n <= 0 {
		return
	}
	s.EWCollectedTotal += n
	s.ewSinceUpgrade += n
	for s.ewSinceUpgrade >= 3 {
		s.ewSinceUpgrade -= 3
		s.PendingUpgrades++
	}
}

// ApplyPendingUpgrades converts every pending upgrade into one
// base-level step (capped at maxBaseLevelIndex) and one extra spin.
// The round engine calls this only at a spin boundary, never mid-spin.
func (s *State) ApplyPendingUpgrades(maxBaseLevelIndex int) {
	for s.PendingUpgrades > 0 {
		s.PendingUpgrades--
		if s.BaseLevelIndex < maxBaseLevelIndex {
			s.BaseLevelIndex++
		}
		s.SpinsRemaining++
	}
}

// CancelPendingUpgrades discards upgrades accumulated but not yet
// applied. The round engine calls this when a round terminates on the
// max-win cap, which forfeits every deferred feature.
func (s *State) CancelPendingUpgrades() {
	s.PendingUpgrades = 0
	s.ewSinceUpgrade = 0
}

// Retrigger adds spinsAwarded additional spins from a mid-session
// retrigger.
func (s *State) Retrigger(spinsAwarded int) {
	s.SpinsRemaining += spinsAwarded
}

// ConsumeSpin marks one spin as completed, decrementing the remaining
// count. It reports whether further spins remain after this one.
func (s *State) ConsumeSpin() bool {
	if s.SpinsRemaining <= 0 {
		return false
	}
	s.SpinsRemaining--
	s.SpinsCompleted++
	return s.SpinsRemaining > 0
}

// AddWin accumulates a spin's payout into the session total.
func (s *State) AddWin(amount float64) {
	s.SessionWin += amount
}
