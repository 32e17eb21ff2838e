// Command corvid is a UCI chess engine: iterative-deepening alpha-beta
// negamax over a transposition table, with a plain-text console mode for
// debugging outside of a GUI.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/seekerror/logw"

	"github.com/mbryant/corvid/pkg/engine"
	"github.com/mbryant/corvid/pkg/engine/console"
	"github.com/mbryant/corvid/pkg/engine/uci"
)

var (
	depth = flag.Uint("depth", 0, "Default search depth limit in plies (0 = no limit)")
	hash  = flag.Uint("hash", 0, "Transposition table size in MB (0 = default size)")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: corvid [options]

corvid is a UCI chess engine.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	e := engine.New(ctx, "corvid", "mbryant", engine.WithOptions(engine.Options{
		Depth: *depth,
		Hash:  *hash,
	}))

	in := engine.ReadStdinLines(ctx)
	switch <-in {
	case uci.ProtocolName:
		driver, out := uci.NewDriver(ctx, e, in)
		go engine.WriteStdoutLines(ctx, out)

		<-driver.Closed()

	case console.ProtocolName:
		driver, out := console.NewDriver(ctx, e, in)
		go engine.WriteStdoutLines(ctx, out)

		<-driver.Closed()

	default:
		flag.Usage()
		logw.Exitf(ctx, "Protocol not supported")
	}
}
