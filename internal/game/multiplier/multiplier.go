// Package multiplier tracks the progressive per-round cascade
// multiplier trail. Grounded in kero-chan-public-slot-game's
// GetMultiplier / CalculateMultiplierProgression shape (a small
// stateless lookup over a cascade position), generalized here into a
// stateful Trail since the free-spins trail is config-driven (it
// derives its six steps from a persistent base level) rather than a
// fixed formula.
package multiplier

import "github.com/slotmachine/cluster-engine/internal/game/config"

// Trail is a saturating sequence of multiplier values indexed by
// cascade step. It never regresses and never wraps past its last
// entry.
type Trail struct {
	steps    []int
	position int
}

// NewBaseGameTrail returns the fixed base-game trail, [1,2,4,8,16,32].
func NewBaseGameTrail(cfg *config.Config) *Trail {
	return &Trail{steps: cfg.BaseGameTrail()}
}

// NewFreeSpinsTrail returns the free-spins trail derived from the
// current persistent base level.
func NewFreeSpinsTrail(cfg *config.Config, baseLevelIndex int) *Trail {
	return &Trail{steps: cfg.FreeSpinsTrail(baseLevelIndex)}
}

// Current returns the multiplier for the current cascade step.
func (t *Trail) Current() int {
	return t.steps[t.position]
}

// Advance moves to the next step, saturating at the trail's last
// entry. Call once per cascade step that produced a win or an
// explosion.
func (t *Trail) Advance() {
	if t.position < len(t.steps)-1 {
		t.position++
	}
}

// Position returns the zero-based index of the current step.
func (t *Trail) Position() int { return t.position }

// Reset returns the trail to its first step, for reuse across
// independent rounds.
func (t *Trail) Reset() { t.position = 0 }
