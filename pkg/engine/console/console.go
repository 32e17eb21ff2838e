// Package console implements a plain-text interactive driver for
// debugging the engine outside of a UCI GUI.
package console

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/seekerror/stdlib/pkg/util/iox"

	"github.com/mbryant/corvid/pkg/board"
	"github.com/mbryant/corvid/pkg/engine"
	"github.com/mbryant/corvid/pkg/search/searchctl"
)

const ProtocolName = "console"

// Driver implements a console driver for debugging.
type Driver struct {
	iox.AsyncCloser

	e   *engine.Engine
	out chan<- string
}

func NewDriver(ctx context.Context, e *engine.Engine, in <-chan string) (*Driver, <-chan string) {
	out := make(chan string, 100)
	d := &Driver{AsyncCloser: iox.NewAsyncCloser(), e: e, out: out}
	go d.process(ctx, in)

	return d, out
}

func (d *Driver) process(ctx context.Context, in <-chan string) {
	defer d.Close()
	defer close(d.out)

	logw.Infof(ctx, "Console protocol initialized")

	d.out <- fmt.Sprintf("engine %v (%v)", d.e.Name(), d.e.Author())
	d.printBoard()

	for line := range in {
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch strings.ToLower(cmd) {
		case "reset", "r":
			d.e.Stop(ctx)
			d.e.Wait()

			fenStr := board.Initial
			rest := args
			if len(args) >= 6 && args[0] != "moves" {
				fenStr = strings.Join(args[0:6], " ")
				rest = args[6:]
			}
			if err := d.e.SetPosition(ctx, fenStr); err != nil {
				logw.Errorf(ctx, "Invalid position: %v", line)
				continue
			}
			replay := false
			for _, arg := range rest {
				if arg == "moves" {
					replay = true
					continue
				}
				if !replay {
					continue
				}
				if err := d.e.Move(ctx, arg); err != nil {
					logw.Errorf(ctx, "Invalid move %q: %v", arg, err)
					break
				}
			}
			d.printBoard()

		case "print", "p":
			d.printBoard()

		case "analyze", "a":
			d.e.Stop(ctx)
			d.e.Wait()

			var depth lang.Optional[uint]
			if len(args) > 0 {
				n, _ := strconv.Atoi(args[0])
				depth = lang.Some(uint(n))
			}

			err := d.e.Go(ctx, engine.SearchParams{
				DepthLimit: depth,
				Debug:      true,
				OnInfo: func(u searchctl.Update) {
					d.out <- formatUpdate(u)
				},
			}, func(r searchctl.Result) {
				d.out <- fmt.Sprintf("bestmove %v", formatBestMove(r))
			})
			if err != nil {
				logw.Errorf(ctx, "Analyze failed: %v", err)
			}

		case "depth", "d":
			if len(args) > 0 {
				n, _ := strconv.Atoi(args[0])
				d.e.SetDepth(uint(n))
			}

		case "hash":
			if len(args) > 0 {
				n, _ := strconv.Atoi(args[0])
				d.e.SetHash(uint(n))
			}

		case "halt", "stop":
			d.e.Stop(ctx)
			d.e.Wait()

		case "quit", "exit", "q":
			d.e.Stop(ctx)
			d.e.Wait()
			return

		default:
			// Assume move if not a recognized command.

			d.e.Stop(ctx)
			d.e.Wait()
			if err := d.e.Move(ctx, cmd); err != nil {
				d.out <- fmt.Sprintf("invalid move: %q", cmd)
			} else {
				d.printBoard()
			}
		}
	}

	logw.Infof(ctx, "Input stream closed. Exiting")
}

func formatBestMove(r searchctl.Result) string {
	if r.Node.BestMove.IsZero() {
		return "0000"
	}
	return r.Node.BestMove.String()
}

func formatUpdate(u searchctl.Update) string {
	moves := make([]string, len(u.PV))
	for i, m := range u.PV {
		moves[i] = m.String()
	}
	return fmt.Sprintf("depth %v score %v nodes %v time %v pv %v", u.Depth, u.Node.Score, u.Nodes, u.Elapsed, strings.Join(moves, " "))
}

const (
	files      = "    a   b   c   d   e   f   g   h"
	horizontal = "  ---------------------------------"
	vertical   = " | "
)

func (d *Driver) printBoard() {
	pos := d.e.Board()

	d.out <- ""
	d.out <- files
	d.out <- horizontal

	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.Reset()
		sb.WriteString(strconv.Itoa(rank + 1))
		sb.WriteString(vertical)
		for file := 0; file < 8; file++ {
			sq := rank*8 + file
			if c, p, ok := pos.SquareContent(sq); ok {
				sb.WriteString(printPiece(c, p))
			} else {
				sb.WriteString(" ")
			}
			sb.WriteString(vertical)
		}
		d.out <- sb.String()
		d.out <- horizontal
	}
	d.out <- files
	d.out <- ""
	d.out <- fmt.Sprintf("fen: %v", pos.FEN())
	d.out <- fmt.Sprintf("turn: %v, hash: 0x%x", pos.Turn(), pos.Hash())
	d.out <- ""
}

func printPiece(c board.Color, p board.Piece) string {
	var s string
	switch p {
	case board.Pawn:
		s = "p"
	case board.Knight:
		s = "n"
	case board.Bishop:
		s = "b"
	case board.Rook:
		s = "r"
	case board.Queen:
		s = "q"
	case board.King:
		s = "k"
	default:
		s = "?"
	}
	if c == board.White {
		return strings.ToUpper(s)
	}
	return s
}
