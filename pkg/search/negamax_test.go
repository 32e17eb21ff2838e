package search_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/atomic"

	"github.com/mbryant/corvid/pkg/board"
	"github.com/mbryant/corvid/pkg/eval"
	"github.com/mbryant/corvid/pkg/search"
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

func newSearcher(t *testing.T) (*search.Searcher, *atomic.Bool) {
	t.Helper()
	searching := atomic.NewBool(true)
	table := tt.NewSized(1 << 20)
	return search.NewSearcher(eval.Standard{}, table, searching, nil, 0), searching
}

func TestNegamaxFindsMateInOne(t *testing.T) {
	// Black to move: Qa8-a1# is a back-rank mate, White's king boxed in by
	// its own pawns on g2/h2.
	pos := mustPosition(t, "q3k3/8/8/8/8/8/6PP/7K b - - 0 1")
	s, _ := newSearcher(t)

	node, err := s.Negamax(pos, 2, eval.MinScore, eval.MaxScore, pos.Turn().Unit(), pos.Hash())
	assert.NoError(t, err)
	assert.True(t, node.HasMate)
	assert.False(t, node.BestMove.IsZero())

	// The move found must actually be legal in the position.
	found := false
	for _, m := range pos.LegalMoves() {
		if m.Equals(node.BestMove) {
			found = true
		}
	}
	assert.True(t, found)
}

func TestNegamaxInsufficientMaterialIsDrawn(t *testing.T) {
	pos := mustPosition(t, "8/8/8/8/3k4/8/3K4/8 w - - 0 1")
	s, _ := newSearcher(t)

	node, err := s.Negamax(pos, 4, eval.MinScore, eval.MaxScore, pos.Turn().Unit(), pos.Hash())
	assert.NoError(t, err)
	assert.Equal(t, eval.Score(0), node.Score)
	assert.True(t, node.Terminal)
	assert.False(t, node.HasMate)
}

func TestNegamaxBestMoveIsAlwaysLegal(t *testing.T) {
	pos := mustPosition(t, board.Initial)
	s, _ := newSearcher(t)

	node, err := s.Negamax(pos, 3, eval.MinScore, eval.MaxScore, pos.Turn().Unit(), pos.Hash())
	assert.NoError(t, err)
	assert.False(t, node.BestMove.IsZero())

	found := false
	for _, m := range pos.LegalMoves() {
		if m.Equals(node.BestMove) {
			found = true
		}
	}
	assert.True(t, found)
}

func TestNegamaxCancellationReturnsErrCancelled(t *testing.T) {
	pos := mustPosition(t, board.Initial)
	searching := atomic.NewBool(false)
	table := tt.NewSized(1 << 20)
	s := search.NewSearcher(eval.Standard{}, table, searching, nil, 0)

	_, err := s.Negamax(pos, 3, eval.MinScore, eval.MaxScore, pos.Turn().Unit(), pos.Hash())
	assert.ErrorIs(t, err, search.ErrCancelled)
}

func TestNegamaxStalemateIsDrawn(t *testing.T) {
	// Classic stalemate: Black king on a8 has no legal moves, not in check.
	pos := mustPosition(t, "k7/8/1Q6/8/8/8/8/7K b - - 0 1")
	s, _ := newSearcher(t)

	node, err := s.Negamax(pos, 2, eval.MinScore, eval.MaxScore, pos.Turn().Unit(), pos.Hash())
	assert.NoError(t, err)
	assert.Equal(t, eval.Score(0), node.Score)
	assert.True(t, node.Terminal)
	assert.False(t, node.HasMate)
}

func TestNegamaxScoreIsZeroSumAcrossRecursion(t *testing.T) {
	// Sanity check on the negamax sign convention: scoring the same position
	// from each side's perspective at depth 0 must negate.
	pos := mustPosition(t, "4k3/8/8/8/8/8/8/3QK3 w - - 0 1")
	s1, _ := newSearcher(t)
	node1, err := s1.Negamax(pos, 0, eval.MinScore, eval.MaxScore, pos.Turn().Unit(), pos.Hash())
	assert.NoError(t, err)

	s2, _ := newSearcher(t)
	node2, err := s2.Negamax(pos, 0, eval.MinScore, eval.MaxScore, -pos.Turn().Unit(), pos.Hash())
	assert.NoError(t, err)

	assert.Equal(t, node1.Score, -node2.Score)
}

func TestNegamaxRepetitionIsDrawnAfterThreshold(t *testing.T) {
	// Rooks on the board so this has sufficient material: the insufficient-
	// material check at step 3 must not be what's drawing this position,
	// otherwise the repetition scan at step 7 is never exercised.
	pos := mustPosition(t, "4k2r/8/8/8/8/8/8/4K2R w - - 0 1")
	hash := pos.Hash()

	history := make([]board.ZobristHash, 0, 8)
	for i := 0; i < 3; i++ {
		history = append(history, hash)
	}

	searching := atomic.NewBool(true)
	table := tt.NewSized(1 << 20)
	// 8 matches the searcher's repetition-check floor (plies since the last
	// irreversible move); below it the history scan in step 7 never runs.
	s := search.NewSearcher(eval.Standard{}, table, searching, history, 8)

	node, err := s.Negamax(pos, 2, eval.MinScore, eval.MaxScore, pos.Turn().Unit(), hash)
	assert.NoError(t, err)
	assert.Equal(t, eval.Score(0), node.Score)
	assert.True(t, node.Terminal)
}
