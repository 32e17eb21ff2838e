// Package searchctl implements the iterative-deepening driver (component D):
// depth-by-depth re-invocation of the negamax searcher with cancellation,
// principal-variation extraction, and the info/bestmove reporting hooks the
// UCI layer renders into protocol lines.
package searchctl

import (
	"time"

	"go.uber.org/atomic"

	"github.com/mbryant/corvid/pkg/board"
	"github.com/mbryant/corvid/pkg/eval"
	"github.com/mbryant/corvid/pkg/search"
	"github.com/mbryant/corvid/pkg/tt"
)

// rootAlpha/rootBeta bound the root search window. These are deliberately
// narrower than the +/-30000 score envelope the engine otherwise works in —
// a literal choice carried from the source design, not a bug.
const (
	rootAlpha eval.Score = -10000
	rootBeta  eval.Score = 10000
)

// maxPly is the hard depth ceiling; the depth counter is conceptually 8-bit.
const maxPly = 255

// Update reports one completed iteration, for rendering as a UCI info line.
type Update struct {
	Depth   int
	Node    tt.Node
	PV      []board.Move
	Nodes   uint64
	Elapsed time.Duration
}

// Result is the final outcome of an iterative search: the deepest fully
// completed iteration and its principal variation.
type Result struct {
	Node    tt.Node
	PV      []board.Move
	Depth   int
	Elapsed time.Duration
}

// Iterative runs iterative-deepening negamax until the searching flag drops
// or a depth/mate/terminal stopping condition is reached.
type Iterative struct{}

// Run is the entry point invoked on the search worker goroutine. pos is the
// worker's own clone of the position; history and pliesSinceIrreversible are
// the worker's own copies (see §5 of the concurrency model this mirrors).
// maxDepth of zero means no explicit limit (capped at maxPly). onInfo, when
// non-nil, is called once per completed iteration iff debug is on.
func (it *Iterative) Run(pos *board.Position, e eval.Evaluator, table *tt.Table, searching *atomic.Bool, maxDepth int, history []board.ZobristHash, pliesSinceIrreversible int, debug bool, onInfo func(Update)) Result {
	limit := maxPly
	if maxDepth > 0 && maxDepth < limit {
		limit = maxDepth
	}

	color := pos.Turn().Unit()
	hash := pos.Hash()
	s := search.NewSearcher(e, table, searching, history, pliesSinceIrreversible)

	start := time.Now()

	var lastCompleted tt.Node
	var lastDepth int
	var lastPV []board.Move

	for d := 1; d <= limit; d++ {
		if !searching.Load() {
			break
		}

		s.Nodes = 0
		node, err := s.Negamax(pos, d, rootAlpha, rootBeta, color, hash)
		if err != nil {
			break // Cancelled: last_completed stands.
		}

		lastCompleted = node
		lastDepth = d

		if debug {
			lastPV = ExtractPV(pos, table, d)
			if onInfo != nil {
				onInfo(Update{
					Depth:   d,
					Node:    node,
					PV:      lastPV,
					Nodes:   s.Nodes,
					Elapsed: time.Since(start),
				})
			}
		}

		if node.Terminal {
			break
		}
	}

	searching.Store(false)

	if lastPV == nil {
		lastPV = ExtractPV(pos, table, lastDepth)
	}

	return Result{
		Node:    lastCompleted,
		PV:      lastPV,
		Depth:   lastDepth,
		Elapsed: time.Since(start),
	}
}

// ExtractPV walks the transposition table's best-move pointers from root, up
// to depth steps, stopping at the first missing, stale, or illegal entry.
func ExtractPV(root *board.Position, table *tt.Table, depth int) []board.Move {
	var pv []board.Move
	cur := root
	for i := 0; i < depth; i++ {
		node, ok := table.Lookup(cur.Hash())
		if !ok || node.Hash != cur.Hash() || node.BestMove.IsZero() {
			break
		}
		if !isLegal(cur, node.BestMove) {
			break
		}
		pv = append(pv, node.BestMove)
		cur = cur.ApplyClone(node.BestMove)
	}
	return pv
}

func isLegal(pos *board.Position, m board.Move) bool {
	for _, legal := range pos.LegalMoves() {
		if legal.Equals(m) {
			return true
		}
	}
	return false
}
