// Package board adapts github.com/dylhunn/dragontoothmg into the narrow
// position/move surface the search core needs: legal move enumeration,
// Zobrist hashing, draw predicates and UCI move notation. Move generation,
// legality and hashing themselves are the external chess rules library's
// job, not this package's.
package board

import (
	"fmt"

	"github.com/dylhunn/dragontoothmg"
)

// Color is the side to move.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// Unit returns the signed evaluation sign for the color: +1 for White, -1 for Black.
func (c Color) Unit() int {
	if c == White {
		return 1
	}
	return -1
}

func (c Color) String() string {
	if c == White {
		return "w"
	}
	return "b"
}

// Piece mirrors dragontoothmg.Piece, re-exported so callers don't import it directly.
type Piece = dragontoothmg.Piece

const (
	NoPiece Piece = dragontoothmg.Nothing
	Pawn    Piece = dragontoothmg.Pawn
	Knight  Piece = dragontoothmg.Knight
	Bishop  Piece = dragontoothmg.Bishop
	Rook    Piece = dragontoothmg.Rook
	Queen   Piece = dragontoothmg.Queen
	King    Piece = dragontoothmg.King
)

// ZobristHash is a 64-bit position fingerprint.
type ZobristHash uint64

// Move wraps the underlying engine move (which itself encodes the promotion
// piece), for equality, promotion and UCI serialisation.
type Move struct {
	m dragontoothmg.Move
}

// ParseMove parses long algebraic UCI notation, e.g. "e2e4" or "a7a8q".
func ParseMove(s string) (Move, error) {
	if len(s) < 4 || len(s) > 5 {
		return Move{}, fmt.Errorf("invalid move: %q", s)
	}
	m, err := dragontoothmg.ParseMove(s)
	if err != nil {
		return Move{}, fmt.Errorf("invalid move %q: %w", s, err)
	}
	return Move{m: m}, nil
}

func (mv Move) Equals(o Move) bool {
	return mv.m == o.m
}

// IsPromotion returns true iff the move promotes a pawn.
func (mv Move) IsPromotion() bool {
	return mv.m.Promote() != dragontoothmg.Nothing
}

func (mv Move) Promotion() Piece {
	return mv.m.Promote()
}

// String serialises the move in long algebraic UCI notation, e.g. "e2e4", "a7a8q".
func (mv Move) String() string {
	return mv.m.String()
}

func (mv Move) IsZero() bool {
	return mv.m == dragontoothmg.Move(0)
}
