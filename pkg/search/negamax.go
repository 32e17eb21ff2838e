// Package search implements the negamax searcher (component C): fail-hard
// alpha-beta over a position, backed by an Evaluator (pkg/eval) and a Table
// (pkg/tt). The iterative-deepening driver lives in pkg/search/searchctl.
package search

import (
	"errors"

	"go.uber.org/atomic"

	"github.com/mbryant/corvid/pkg/board"
	"github.com/mbryant/corvid/pkg/eval"
	"github.com/mbryant/corvid/pkg/tt"
)

// ErrCancelled is returned up the recursion the instant the shared searching
// flag drops. The driver discards any node built on top of it.
var ErrCancelled = errors.New("search cancelled")

// repetitionThreshold is the plies-since-irreversible floor before the
// position-history scan in step 7 is even attempted.
const repetitionThreshold = 8

// fiftyMoveClock is the halfmove-clock value at which the fifty-move rule
// applies.
const fiftyMoveClock = 100

// checkmateScore is the score assigned to a side that has just been mated.
const checkmateScore eval.Score = -20000

// Searcher holds everything one in-flight negamax tree needs beyond the
// position itself: the evaluator, the shared table, the cancellation flag,
// and the mutable position-history/irreversible-counter the recursion pushes
// and pops as it descends. A Searcher is single-use: construct one per
// worker invocation, never share across concurrent searches.
type Searcher struct {
	Eval      eval.Evaluator
	TT        *tt.Table
	Searching *atomic.Bool

	Nodes uint64

	history                []board.ZobristHash
	pliesSinceIrreversible int
}

// NewSearcher builds a Searcher seeded with the position-history snapshot
// and irreversible-ply counter the caller has accumulated so far (from
// ucinewgame/position replay). The slice is copied; the caller's copy is
// never mutated.
func NewSearcher(e eval.Evaluator, table *tt.Table, searching *atomic.Bool, history []board.ZobristHash, pliesSinceIrreversible int) *Searcher {
	h := make([]board.ZobristHash, len(history))
	copy(h, history)
	return &Searcher{
		Eval:                   e,
		TT:                     table,
		Searching:              searching,
		history:                h,
		pliesSinceIrreversible: pliesSinceIrreversible,
	}
}

// Negamax runs fail-hard alpha-beta negamax rooted at pos to the given
// depth, returning ErrCancelled the instant the shared flag drops.
func (s *Searcher) Negamax(pos *board.Position, depth int, alpha, beta eval.Score, color int, hash board.ZobristHash) (tt.Node, error) {
	if !s.Searching.Load() {
		return tt.Node{}, ErrCancelled
	}
	s.Nodes++

	node := tt.Node{
		Hash:     hash,
		Depth:    depth,
		Bound:    tt.Upper,
		Score:    0,
		Terminal: true,
	}

	if pos.HasInsufficientMaterial() {
		return node, nil
	}

	moves := pos.LegalMoves()

	if len(moves) == 0 {
		if pos.IsChecked() {
			node.Score = checkmateScore
			node.MateInPlies = 0
			node.HasMate = true
		}
		return node, nil
	}

	if pos.HalfmoveClock() >= fiftyMoveClock {
		return node, nil
	}

	if s.pliesSinceIrreversible >= repetitionThreshold {
		matches := 0
		for _, h := range s.history {
			if h == hash {
				matches++
			}
		}
		if matches > 2 {
			return node, nil
		}
	}

	var ttBestMove board.Move
	if stored, ok := s.TT.Lookup(hash); ok && stored.Hash == hash {
		ttBestMove = stored.BestMove
		if stored.Depth >= depth {
			node = stored
			switch stored.Bound {
			case tt.Exact:
				return node, nil
			case tt.Lower:
				if stored.Score > alpha {
					alpha = stored.Score
				}
			case tt.Upper:
				if stored.Score < beta {
					beta = stored.Score
				}
			}
			if alpha >= beta {
				return node, nil
			}
			// Otherwise node keeps the stored copy's Depth/Bound/Terminal
			// fields into the full search below unless the loop changes them;
			// Score, BestMove and the mate fields are overwritten by the first
			// move searched. The two early returns above hand back the stored
			// node verbatim, mate distance included, even when it came from a
			// deeper search: this is the known TT/mate-bound staleness.
		}
	}

	if depth == 0 {
		node.Score = eval.Score(color) * s.Eval.Evaluate(pos)
		node.Terminal = false
		return node, nil
	}

	orderMoves(moves, pos, ttBestMove)

	node.Score = eval.MinScore
	for _, m := range moves {
		child := pos.ApplyClone(m)
		childHash := child.Hash()

		irreversible := pos.IsIrreversible(m)
		prevPlies := s.pliesSinceIrreversible
		if irreversible {
			s.pliesSinceIrreversible = 0
		} else {
			s.pliesSinceIrreversible++
		}
		s.history = append(s.history, childHash)

		childNode, err := s.Negamax(child, depth-1, beta.Negate(), alpha.Negate(), -color, childHash)

		s.history = s.history[:len(s.history)-1]
		s.pliesSinceIrreversible = prevPlies

		if err != nil {
			return tt.Node{}, err
		}

		if !childNode.Terminal {
			node.Terminal = false
		}

		childScore := childNode.Score.Negate()
		if childScore > node.Score {
			node.Score = childScore
			node.BestMove = m

			if node.Score > alpha {
				alpha = node.Score
				node.Bound = tt.Exact
			}

			switch {
			case !childNode.HasMate:
				node.HasMate = false
			case childNode.MateInPlies == 0:
				node.MateInPlies = 1
				node.HasMate = true
				node.Terminal = true
			case childNode.MateInPlies > 0:
				node.MateInPlies = -(childNode.MateInPlies + 1)
				node.HasMate = true
				node.Terminal = true
			default: // childNode.MateInPlies < 0
				node.MateInPlies = -childNode.MateInPlies + 1
				node.HasMate = true
				node.Terminal = true
			}
		}

		if node.Score >= beta {
			node.Bound = tt.Lower
			break
		}
	}

	if s.Searching.Load() {
		s.TT.Store(hash, node)
	}

	return node, nil
}

// orderMoves reorders moves in place per §4.C step 10: the transposition
// best-move hint (if still legal) goes first, then a single partial
// selection-sort pass promotes the first capture-or-promotion found at each
// remaining index ahead of quiet moves. This is deliberately not a full sort
// or MVV-LVA — the asymmetry is load-bearing for test determinism.
func orderMoves(moves []board.Move, pos *board.Position, ttBestMove board.Move) {
	if !ttBestMove.IsZero() {
		for i, m := range moves {
			if m.Equals(ttBestMove) {
				moves[0], moves[i] = moves[i], moves[0]
				break
			}
		}
	}

	for i := 1; i < len(moves); i++ {
		for j := i; j < len(moves); j++ {
			if pos.IsCapture(moves[j]) || moves[j].IsPromotion() {
				moves[i], moves[j] = moves[j], moves[i]
				break
			}
		}
	}
}
