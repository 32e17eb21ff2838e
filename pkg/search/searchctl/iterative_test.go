package searchctl_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"

	"github.com/mbryant/corvid/pkg/board"
	"github.com/mbryant/corvid/pkg/eval"
	"github.com/mbryant/corvid/pkg/search/searchctl"
	"github.com/mbryant/corvid/pkg/tt"
)

func mustPosition(t *testing.T, fen string) *board.Position {
	t.Helper()
	pos, err := board.NewPosition(fen)
	if err != nil {
		t.Fatalf("invalid fen %q: %v", fen, err)
	}
	return pos
}

func TestIterativeStopsAtDepthLimit(t *testing.T) {
	pos := mustPosition(t, board.Initial)
	table := tt.NewSized(1 << 20)
	searching := atomic.NewBool(true)

	it := &searchctl.Iterative{}
	result := it.Run(pos, eval.Standard{}, table, searching, 3, nil, 0, false, nil)

	assert.Equal(t, 3, result.Depth)
	assert.False(t, result.Node.BestMove.IsZero())
}

func TestIterativeStopsOnTerminalNode(t *testing.T) {
	// Mate in one: the iterative driver should stop well before any
	// depth limit once it hits a terminal node.
	pos := mustPosition(t, "q3k3/8/8/8/8/8/6PP/7K b - - 0 1")
	table := tt.NewSized(1 << 20)
	searching := atomic.NewBool(true)

	it := &searchctl.Iterative{}
	result := it.Run(pos, eval.Standard{}, table, searching, 50, nil, 0, false, nil)

	assert.True(t, result.Node.Terminal)
	assert.Less(t, result.Depth, 50)
}

func TestIterativeRespectsCancellation(t *testing.T) {
	pos := mustPosition(t, board.Initial)
	table := tt.NewSized(1 << 20)
	searching := atomic.NewBool(false)

	it := &searchctl.Iterative{}
	result := it.Run(pos, eval.Standard{}, table, searching, 10, nil, 0, false, nil)

	// No iteration ever completed: depth stays at its zero value and no
	// best move was ever recorded.
	assert.Equal(t, 0, result.Depth)
	assert.True(t, result.Node.BestMove.IsZero())
}

func TestIterativeSetsSearchingFalseOnCompletion(t *testing.T) {
	pos := mustPosition(t, board.Initial)
	table := tt.NewSized(1 << 20)
	searching := atomic.NewBool(true)

	it := &searchctl.Iterative{}
	it.Run(pos, eval.Standard{}, table, searching, 2, nil, 0, false, nil)

	assert.False(t, searching.Load())
}

func TestIterativeDebugInvokesOnInfoPerIteration(t *testing.T) {
	pos := mustPosition(t, board.Initial)
	table := tt.NewSized(1 << 20)
	searching := atomic.NewBool(true)

	var updates []searchctl.Update
	it := &searchctl.Iterative{}
	it.Run(pos, eval.Standard{}, table, searching, 3, nil, 0, true, func(u searchctl.Update) {
		updates = append(updates, u)
	})

	assert.Len(t, updates, 3)
	for i, u := range updates {
		assert.Equal(t, i+1, u.Depth)
	}
}

func TestExtractPVStopsAtMissingEntry(t *testing.T) {
	pos := mustPosition(t, board.Initial)
	table := tt.NewSized(1 << 20)

	pv := searchctl.ExtractPV(pos, table, 5)
	assert.Empty(t, pv)
}

func TestExtractPVFollowsStoredBestMoves(t *testing.T) {
	pos := mustPosition(t, board.Initial)
	table := tt.NewSized(1 << 20)
	searching := atomic.NewBool(true)

	it := &searchctl.Iterative{}
	result := it.Run(pos, eval.Standard{}, table, searching, 2, nil, 0, false, nil)

	pv := searchctl.ExtractPV(pos, table, result.Depth)
	assert.NotEmpty(t, pv)
	assert.True(t, pv[0].Equals(result.Node.BestMove))
}
