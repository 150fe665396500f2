// Package grid implements the 5x5 cell board that every other engine
// subsystem reads and mutates: gravity, weighted refill, and the small
// lookup helpers the cluster detector, wild spawner, and explosion
// engine all need. Grounded in the gravity/refill pass of
// internal/game/cascade/cascade_engine.go (dropSymbols/fillEmptyPositions)
// but reworked from that package's per-reel-strip advancement (a
// ways-game mechanic) into direct per-cell weighted sampling, since this
// board has no reel strips to advance.
package grid

import (
	"fmt"

	"github.com/slotmachine/cluster-engine/internal/game/rng"
	"github.com/slotmachine/cluster-engine/internal/game/symbols"
)

const (
	Rows = 5
	Cols = 5
)

// Position is a single grid cell address. Row 0 is the top; gravity
// moves symbols toward increasing row.
type Position struct {
	Row, Col int
}

// InBounds reports whether p addresses a real cell.
func (p Position) InBounds() bool {
	return p.Row >= 0 && p.Row < Rows && p.Col >= 0 && p.Col < Cols
}

// Grid is a fixed 5x5 board of symbols.
type Grid struct {
	cells [Rows][Cols]symbols.Symbol
}

// New returns a grid with every cell Empty.
func New() *Grid {
	g := &Grid{}
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			g.cells[r][c] = symbols.Empty
		}
	}
	return g
}

// Clone returns an independent copy of g.
func (g *Grid) Clone() *Grid {
	out := &Grid{}
	out.cells = g.cells
	return out
}

// At returns the symbol at p. Panics if p is out of bounds, matching
// the invariant that the board is always exactly 5x5 and callers never
// address outside it.
func (g *Grid) At(p Position) symbols.Symbol {
	if !p.InBounds() {
		panic(fmt.Errorf("grid: position %v out of bounds", p))
	}
	return g.cells[p.Row][p.Col]
}

// Set writes sym into cell p.
func (g *Grid) Set(p Position, sym symbols.Symbol) {
	if !p.InBounds() {
		panic(fmt.Errorf("grid: position %v out of bounds", p))
	}
	g.cells[p.Row][p.Col] = sym
}

// Remove clears every position in positions to Empty.
func (g *Grid) Remove(positions []Position) {
	for _, p := range positions {
		g.Set(p, symbols.Empty)
	}
}

// Count returns how many cells currently hold sym.
func (g *Grid) Count(sym symbols.Symbol) int {
	n := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if g.cells[r][c] == sym {
				n++
			}
		}
	}
	return n
}

// PositionsOf returns every cell currently holding sym, in row-major order.
func (g *Grid) PositionsOf(sym symbols.Symbol) []Position {
	return g.CellsMatching(func(s symbols.Symbol) bool { return s == sym })
}

// CellsMatching returns every position whose symbol satisfies predicate,
// in row-major order.
func (g *Grid) CellsMatching(predicate func(symbols.Symbol) bool) []Position {
	var out []Position
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if predicate(g.cells[r][c]) {
				out = append(out, Position{Row: r, Col: c})
			}
		}
	}
	return out
}

// ApplyGravity compacts each column's non-empty cells downward,
// preserving their relative order, and backfills the freed cells above
// with Empty. No symbol ever moves between columns.
func (g *Grid) ApplyGravity() {
	for c := 0; c < Cols; c++ {
		write := Rows - 1
		for r := Rows - 1; r >= 0; r-- {
			if g.cells[r][c] != symbols.Empty {
				g.cells[write][c] = g.cells[r][c]
				write--
			}
		}
		for r := write; r >= 0; r-- {
			g.cells[r][c] = symbols.Empty
		}
	}
}

// Refill replaces every Empty cell with a symbol drawn independently via
// stream.Weighted(weights), in top-to-bottom, left-to-right cell order.
// Draws are independent per cell, but the fill order fixes which RNG
// draw lands in which cell, which is what makes a refill reproducible.
func (g *Grid) Refill(weights map[symbols.Symbol]float64, stream rng.Stream) {
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if g.cells[r][c] == symbols.Empty {
				g.cells[r][c] = rng.DrawSymbol(stream, weights)
			}
		}
	}
}

// Neighbors4 returns the up-to-four orthogonal neighbors of p that are
// in bounds, in a fixed (right, down, left, up) order so callers that
// iterate neighbors get deterministic traversal.
func Neighbors4(p Position) []Position {
	candidates := []Position{
		{Row: p.Row, Col: p.Col + 1},
		{Row: p.Row + 1, Col: p.Col},
		{Row: p.Row, Col: p.Col - 1},
		{Row: p.Row - 1, Col: p.Col},
	}
	out := candidates[:0]
	for _, cand := range candidates {
		if cand.InBounds() {
			out = append(out, cand)
		}
	}
	return out
}
