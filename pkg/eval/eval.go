// Package eval implements the static positional evaluator (component A):
// material, bishop-pair and piece-square tables, scored in centipawns from
// White's perspective. Pure: same inputs, same output, no allocation.
package eval

import (
	"github.com/mbryant/corvid/pkg/board"
)

// Score is a signed centipawn value, bounded to +/-30000 to leave headroom for
// mate-distance bookkeeping (kept separate, see pkg/search) and to avoid
// overflow on negation during negamax recursion.
type Score int16

const (
	// Mate is the absolute score assigned to "mated right now" — chosen well
	// away from any realistic positional evaluation, and comfortably inside
	// the +/-30000 score envelope.
	Mate Score = 20000
	// Max/Min bound the score envelope. Both negate without overflow
	// (-30000 and 30000 fit an int16); only the int16 minimum itself must
	// never be passed down through negation.
	MaxScore Score = 30000
	MinScore Score = -30000
)

// Negate flips the sign for the negamax convention.
func (s Score) Negate() Score {
	return -s
}

// Evaluator is a static position evaluator.
type Evaluator interface {
	// Evaluate returns the position score in centipawns, White-positive.
	Evaluate(pos *board.Position) Score
}

// Material piece values in centipawns.
const (
	pawnValue   = 100
	knightValue = 320
	bishopValue = 320
	rookValue   = 500
	queenValue  = 900

	bishopPairBonus = 50
)

func nominalValue(p board.Piece) Score {
	switch p {
	case board.Pawn:
		return pawnValue
	case board.Knight:
		return knightValue
	case board.Bishop:
		return bishopValue
	case board.Rook:
		return rookValue
	case board.Queen:
		return queenValue
	default:
		return 0
	}
}

// Standard is the default evaluator: material + bishop pair + piece-square
// tables, all computed from White's perspective.
type Standard struct{}

// Evaluate implements Evaluator.
func (Standard) Evaluate(pos *board.Position) Score {
	return Evaluate(pos)
}

// Evaluate is the package-level convenience form of Standard{}.Evaluate.
func Evaluate(pos *board.Position) Score {
	var score Score

	for _, piece := range []board.Piece{board.Pawn, board.Knight, board.Bishop, board.Rook, board.Queen} {
		white := pos.PieceCount(board.White, piece)
		black := pos.PieceCount(board.Black, piece)
		score += Score(white-black) * nominalValue(piece)
	}

	whiteBishops := pos.PieceCount(board.White, board.Bishop)
	blackBishops := pos.PieceCount(board.Black, board.Bishop)
	if whiteBishops == 2 {
		score += bishopPairBonus
	}
	if blackBishops == 2 {
		score -= bishopPairBonus
	}

	for sq := 0; sq < 64; sq++ {
		c, p, ok := pos.SquareContent(sq)
		if !ok {
			continue
		}
		switch c {
		case board.White:
			score += pieceSquareValue(p, flipForWhite(sq))
		case board.Black:
			// flipForWhite(sq ^ 56) == sq (rank-mirroring twice cancels), so a
			// black piece's own-perspective index is just the raw square.
			score -= pieceSquareValue(p, sq)
		}
	}

	return score
}

// flipForWhite converts a square index in the library's a1=0..h8=63 layout
// into the index used by the literal, White-perspective piece-square tables
// below, where entry 0 is a8 (the table is listed rank 8 down to rank 1).
func flipForWhite(sq int) int {
	rank := sq / 8
	file := sq % 8
	return (7-rank)*8 + file
}

func pieceSquareValue(p board.Piece, idx int) Score {
	switch p {
	case board.Pawn:
		return Score(pawnPST[idx])
	case board.Knight:
		return Score(knightPST[idx])
	case board.Bishop:
		return Score(bishopPST[idx])
	case board.Rook:
		return Score(rookPST[idx])
	case board.Queen:
		return Score(queenPST[idx])
	case board.King:
		return Score(kingPST[idx])
	default:
		return 0
	}
}
