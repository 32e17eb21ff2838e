// Package uci contains a driver for using the engine under the UCI protocol.
//
// See: http://wbec-ridderkerk.nl/html/UCIProtocol.html
package uci

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"
	"github.com/seekerror/stdlib/pkg/util/iox"

	"github.com/mbryant/corvid/pkg/board"
	"github.com/mbryant/corvid/pkg/engine"
	"github.com/mbryant/corvid/pkg/search/searchctl"
	"github.com/mbryant/corvid/pkg/tt"
)

const ProtocolName = "uci"

// Driver implements a UCI driver for an engine. It is activated if sent "uci".
type Driver struct {
	e   *engine.Engine
	out chan<- string

	debug bool
	quit  iox.AsyncCloser
}

func NewDriver(ctx context.Context, e *engine.Engine, in <-chan string) (*Driver, <-chan string) {
	out := make(chan string, 100)
	d := &Driver{
		e:    e,
		out:  out,
		quit: iox.NewAsyncCloser(),
	}
	go d.process(ctx, in)

	return d, out
}

func (d *Driver) Closed() <-chan struct{} {
	return d.quit.Closed()
}

func (d *Driver) process(ctx context.Context, in <-chan string) {
	defer d.quit.Close()
	defer close(d.out)

	logw.Infof(ctx, "UCI protocol initialized")

	d.out <- fmt.Sprintf("id name %v", d.e.Name())
	d.out <- fmt.Sprintf("id author %v", d.e.Author())
	d.out <- "uciok"

	for line := range in {
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch strings.ToLower(cmd) {
		case "isready":
			d.out <- "readyok"

		case "debug":
			if len(args) > 0 {
				d.debug = args[0] == "on"
			}

		case "setoption", "register":
			// No configurable options beyond Hash/Depth, set via flags at boot.

		case "ucinewgame":
			d.e.Stop(ctx)
			d.e.Wait()
			if err := d.e.NewGame(ctx); err != nil {
				logw.Errorf(ctx, "ucinewgame failed: %v", err)
			}

		case "position":
			d.handlePosition(ctx, line, args)

		case "go":
			d.handleGo(ctx, args)

		case "stop":
			d.e.Stop(ctx)

		case "ponderhit":
			// Pondering is not distinguished from a normal search in this engine.

		case "quit":
			d.e.Stop(ctx)
			d.e.Wait()
			return

		default:
			logw.Warningf(ctx, "Unknown command %q: %v", cmd, args)
		}
	}
	logw.Infof(ctx, "Input stream closed. Exiting")
}

func (d *Driver) handlePosition(ctx context.Context, line string, args []string) {
	d.e.Stop(ctx)
	d.e.Wait()

	fenStr := board.Initial
	rest := args
	switch {
	case len(args) >= 7 && args[0] == "fen":
		fenStr = strings.Join(args[1:7], " ")
		rest = args[7:]
	case len(args) >= 1 && args[0] == "startpos":
		rest = args[1:]
	}

	if err := d.e.SetPosition(ctx, fenStr); err != nil {
		logw.Errorf(ctx, "Invalid position: %v: %v", line, err)
		return
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
			logw.Errorf(ctx, "Invalid position move %q: %v: %v", arg, line, err)
			return
		}
	}
}

func (d *Driver) handleGo(ctx context.Context, args []string) {
	d.e.Stop(ctx)
	d.e.Wait()

	turn := d.e.Board().Turn()

	var wtime, btime, winc, binc, movetime time.Duration
	var depth lang.Optional[uint]
	infinite := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "wtime", "btime", "winc", "binc", "movetime", "depth":
			if i+1 >= len(args) {
				logw.Errorf(ctx, "No argument for %v", args[i])
				return
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil {
				logw.Errorf(ctx, "Invalid argument for %v: %v", args[i], err)
				return
			}
			switch args[i] {
			case "wtime":
				wtime = time.Duration(n) * time.Millisecond
			case "btime":
				btime = time.Duration(n) * time.Millisecond
			case "winc":
				winc = time.Duration(n) * time.Millisecond
			case "binc":
				binc = time.Duration(n) * time.Millisecond
			case "movetime":
				movetime = time.Duration(n) * time.Millisecond
			case "depth":
				depth = lang.Some(uint(n))
			}
			i++

		case "infinite":
			infinite = true

		default:
			// searchmoves, ponder, movestogo, nodes, mate: not implemented, ignored.
		}
	}

	params := engine.SearchParams{
		DepthLimit: depth,
		MoveTime:   movetime,
		Infinite:   infinite,
		Debug:      d.debug,
		OnInfo: func(u searchctl.Update) {
			d.out <- formatInfo(u)
		},
	}
	if turn == board.White {
		params.Remaining, params.Increment = wtime, winc
	} else {
		params.Remaining, params.Increment = btime, binc
	}

	if err := d.e.Go(ctx, params, func(r searchctl.Result) {
		d.out <- fmt.Sprintf("bestmove %v", formatBestMove(r))
	}); err != nil {
		logw.Errorf(ctx, "go failed: %v", err)
	}
}

func formatBestMove(r searchctl.Result) string {
	if r.Node.BestMove.IsZero() {
		return "0000"
	}
	return r.Node.BestMove.String()
}

func formatInfo(u searchctl.Update) string {
	parts := []string{"info", fmt.Sprintf("depth %v", u.Depth)}

	if u.Node.HasMate {
		parts = append(parts, fmt.Sprintf("score mate %v", mateMoves(u.Node)))
	} else {
		parts = append(parts, fmt.Sprintf("score cp %v", int(u.Node.Score)))
	}

	parts = append(parts, fmt.Sprintf("time %v", u.Elapsed.Milliseconds()))
	parts = append(parts, fmt.Sprintf("nodes %v", u.Nodes))
	if u.Elapsed > 0 {
		nps := uint64(float64(u.Nodes) / u.Elapsed.Seconds())
		parts = append(parts, fmt.Sprintf("nps %v", nps))
	}
	if len(u.PV) > 0 {
		moves := make([]string, len(u.PV))
		for i, m := range u.PV {
			moves[i] = m.String()
		}
		parts = append(parts, "pv "+strings.Join(moves, " "))
	}

	return strings.Join(parts, " ")
}

// mateMoves converts a plies-to-mate value into UCI's signed move count,
// rounded up: positive means the side to move delivers mate.
func mateMoves(n tt.Node) int {
	if n.MateInPlies == 0 {
		return 0
	}
	abs := n.MateInPlies
	if abs < 0 {
		abs = -abs
	}
	moves := (abs + 1) / 2
	if n.MateInPlies < 0 {
		moves = -moves
	}
	return moves
}
