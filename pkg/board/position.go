package board

import (
	"fmt"
	"math/bits"

	"github.com/dylhunn/dragontoothmg"
)

// Initial is the FEN of the standard chess starting position.
const Initial = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Position is an immutable-by-value chess position: side to move, legal
// moves, draw predicates, halfmove clock and Zobrist hash. All mutation
// happens through ApplyClone, which returns a new Position; the receiver is
// left untouched.
type Position struct {
	b *dragontoothmg.Board
}

// NewPosition parses a 6-field FEN string into a Position.
func NewPosition(fen string) (*Position, error) {
	b, err := dragontoothmg.ParseFen(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid fen %q: %w", fen, err)
	}
	return &Position{b: &b}, nil
}

// Turn returns the side to move.
func (p *Position) Turn() Color {
	if p.b.Wtomove {
		return White
	}
	return Black
}

// LegalMoves enumerates every legal move in the position.
func (p *Position) LegalMoves() []Move {
	raw := p.b.GenerateLegalMoves()
	ret := make([]Move, len(raw))
	for i, m := range raw {
		ret[i] = Move{m: m}
	}
	return ret
}

// IsChecked returns true iff the side to move is in check.
func (p *Position) IsChecked() bool {
	return p.b.OurKingInCheck()
}

// HasInsufficientMaterial returns true iff neither side has enough material to
// force checkmate (KvK, KvK+B, KvK+N, or same-colored-bishop endings). Upstream
// dragontoothmg has no such predicate, so this walks the bitboards directly.
func (p *Position) HasInsufficientMaterial() bool {
	w, b := p.b.White, p.b.Black

	if (w.Queens|w.Rooks|w.Pawns) != 0 || (b.Queens|b.Rooks|b.Pawns) != 0 {
		return false
	}

	if w.All == w.Kings && b.All == b.Kings {
		return true // king vs king
	}
	if (w.All == (w.Kings|w.Bishops) && b.All == b.Kings) ||
		(b.All == (b.Kings|b.Bishops) && w.All == w.Kings) {
		return true // king and bishop vs king
	}
	if (w.All == (w.Kings|w.Knights) && b.All == b.Kings) ||
		(b.All == (b.Kings|b.Knights) && w.All == w.Kings) {
		return true // king and knight vs king
	}
	if w.Bishops != 0 && b.Bishops != 0 &&
		w.Bishops&(w.Bishops-1) == 0 && b.Bishops&(b.Bishops-1) == 0 &&
		w.All == (w.Kings|w.Bishops) && b.All == (b.Kings|b.Bishops) {
		// Only one bishop each: a draw iff they're on the same square color.
		wSq := bits.TrailingZeros64(w.Bishops)
		bSq := bits.TrailingZeros64(b.Bishops)
		if (wSq/8+wSq%8)%2 == (bSq/8+bSq%8)%2 {
			return true
		}
	}
	return false
}

// HalfmoveClock is the number of plies since the last capture or pawn move.
func (p *Position) HalfmoveClock() int {
	return int(p.b.Halfmoveclock)
}

// Hash returns the Zobrist fingerprint of the position.
func (p *Position) Hash() ZobristHash {
	return ZobristHash(p.b.Hash())
}

// IsIrreversible returns true iff the move is a capture, a pawn move, or
// changes castling rights (king or rook move) — the three conditions that
// reset the fifty-move and repetition windows.
func (p *Position) IsIrreversible(m Move) bool {
	own, opp := p.sides()

	from := m.m.From()
	to := m.m.To()
	fromBit := uint64(1) << from
	toBit := uint64(1) << to

	if opp.All&toBit != 0 {
		return true // direct capture
	}
	if own.Pawns&fromBit != 0 {
		return true // pawn push, jump or en passant capture
	}

	kingside, queenside := p.b.WhiteCanCastleKingside(), p.b.WhiteCanCastleQueenside()
	var kingsideRook, queensideRook uint8 = 7, 0 // h1, a1
	if !p.b.Wtomove {
		kingside, queenside = p.b.BlackCanCastleKingside(), p.b.BlackCanCastleQueenside()
		kingsideRook, queensideRook = 63, 56 // h8, a8
	}
	if own.Kings&fromBit != 0 {
		return kingside || queenside // king move forfeits any castling right still held
	}
	if own.Rooks&fromBit != 0 {
		// rook leaving its home square forfeits that side's castling right
		return (kingside && from == kingsideRook) || (queenside && from == queensideRook)
	}
	return false
}

// IsCapture returns true iff the move captures a piece, including en passant.
func (p *Position) IsCapture(m Move) bool {
	own, opp := p.sides()
	from := m.m.From()
	to := m.m.To()
	if opp.All&(uint64(1)<<to) != 0 {
		return true
	}
	return own.Pawns&(uint64(1)<<from) != 0 && from%8 != to%8
}

func (p *Position) hasCastlingRights() bool {
	return p.b.WhiteCanCastleKingside() || p.b.WhiteCanCastleQueenside() ||
		p.b.BlackCanCastleKingside() || p.b.BlackCanCastleQueenside()
}

func (p *Position) sides() (own, opp dragontoothmg.Bitboards) {
	if p.b.Wtomove {
		return p.b.White, p.b.Black
	}
	return p.b.Black, p.b.White
}

// PieceCount returns the number of pieces of the given color and type on the board.
func (p *Position) PieceCount(c Color, pc Piece) int {
	return bits.OnesCount64(p.bitboardFor(c, pc))
}

// SquareContent returns the color and piece occupying the given square
// (0 = a1 .. 63 = h8), or ok=false if the square is empty.
func (p *Position) SquareContent(sq int) (Color, Piece, bool) {
	bit := uint64(1) << uint(sq)
	for _, c := range []Color{White, Black} {
		for _, pc := range []Piece{Pawn, Knight, Bishop, Rook, Queen, King} {
			if p.bitboardFor(c, pc)&bit != 0 {
				return c, pc, true
			}
		}
	}
	return 0, 0, false
}

func (p *Position) bitboardFor(c Color, pc Piece) uint64 {
	bb := p.b.White
	if c == Black {
		bb = p.b.Black
	}
	switch pc {
	case Pawn:
		return bb.Pawns
	case Knight:
		return bb.Knights
	case Bishop:
		return bb.Bishops
	case Rook:
		return bb.Rooks
	case Queen:
		return bb.Queens
	case King:
		return bb.Kings
	default:
		return 0
	}
}

// ApplyClone returns a new Position with the move applied, leaving the
// receiver untouched. The move must be legal in the receiver. Upstream
// dragontoothmg has no Clone method; Board is a plain value type, so a
// shallow value copy followed by Apply is a full, independent clone.
func (p *Position) ApplyClone(m Move) *Position {
	clone := *p.b
	_ = clone.Apply(m.m)
	return &Position{b: &clone}
}

// FEN serialises the position back to Forsyth-Edwards notation.
func (p *Position) FEN() string {
	return p.b.ToFen()
}

func (p *Position) String() string {
	return fmt.Sprintf("%v (turn=%v hash=%x halfmove=%v)", p.FEN(), p.Turn(), p.Hash(), p.HalfmoveClock())
}
