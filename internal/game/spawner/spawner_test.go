package spawner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slotmachine/cluster-engine/internal/game/cluster"
	"github.com/slotmachine/cluster-engine/internal/game/grid"
	"github.com/slotmachine/cluster-engine/internal/game/rng"
	"github.com/slotmachine/cluster-engine/internal/game/symbols"
)

var probs = map[symbols.Symbol]float64{symbols.Wild: 0.5, symbols.EWild: 0.5}

func TestSpawn_LandsWithinFootprint(t *testing.T) {
	g := grid.New()
	cl := cluster.Cluster{
		SymbolKind: symbols.Pink,
		Positions:  []grid.Position{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 0}, {Row: 1, Col: 1}},
		Size:       5,
	}
	g.Remove(cl.Positions)

	stream := rng.NewHKDFStreamRNG(1)
	results := Spawn(g, []cluster.Cluster{cl}, probs, stream)

	require.Len(t, results, 1)
	require.False(t, results[0].Forfeited)
	assert.Contains(t, cl.Positions, results[0].Position)
	assert.True(t, symbols.IsWild(g.At(results[0].Position)))
}

func TestSpawn_ForfeitsWhenFootprintFull(t *testing.T) {
	g := grid.New()
	cl := cluster.Cluster{
		SymbolKind: symbols.Pink,
		Positions:  []grid.Position{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 0}, {Row: 1, Col: 1}},
		Size:       5,
	}
	for _, p := range cl.Positions {
		g.Set(p, symbols.Lady) // every cell already occupied, none Empty
	}

	stream := rng.NewHKDFStreamRNG(1)
	results := Spawn(g, []cluster.Cluster{cl}, probs, stream)

	require.Len(t, results, 1)
	assert.True(t, results[0].Forfeited)
	assert.NotEqual(t, symbols.Symbol(""), results[0].Symbol, "a symbol is still drawn even on forfeit")
}

func TestSpawn_LaterClusterCannotClaimEarlierClustersCell(t *testing.T) {
	g := grid.New()
	shared := grid.Position{Row: 2, Col: 2}
	clA := cluster.Cluster{SymbolKind: symbols.Pink, Positions: []grid.Position{shared}}
	clB := cluster.Cluster{SymbolKind: symbols.Blue, Positions: []grid.Position{shared}}
	g.Remove([]grid.Position{shared})

	stream := rng.NewHKDFStreamRNG(2)
	results := Spawn(g, []cluster.Cluster{clA, clB}, probs, stream)

	require.Len(t, results, 2)
	assert.False(t, results[0].Forfeited)
	assert.True(t, results[1].Forfeited, "second cluster's only candidate was already claimed")
}

func TestSpawn_Deterministic(t *testing.T) {
	g1, g2 := grid.New(), grid.New()
	cl := cluster.Cluster{
		SymbolKind: symbols.Pink,
		Positions:  []grid.Position{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 0, Col: 2}, {Row: 1, Col: 0}, {Row: 1, Col: 1}},
	}
	g1.Remove(cl.Positions)
	g2.Remove(cl.Positions)

	r1 := Spawn(g1, []cluster.Cluster{cl}, probs, rng.NewHKDFStreamRNG(42))
	r2 := Spawn(g2, []cluster.Cluster{cl}, probs, rng.NewHKDFStreamRNG(42))
	assert.Equal(t, r1, r2)
}
