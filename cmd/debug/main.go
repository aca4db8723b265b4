package main

import (
	"flag"
	"fmt"
	"os"

	"checkers/internal/checkers"
	"checkers/internal/engine"
)

func main() {
	fen := flag.String("pos", "", "position to inspect, e.g. \"8/8/8/8/3b4/2r5/8/8 r\"; empty means the start")
	flipped := flag.Bool("flipped", false, "play on the flipped colour complex")
	flag.Parse()

	pos, side := checkers.NewInitialPosition(), checkers.Red
	if *fen != "" {
		var err error
		pos, side, err = checkers.DecodePosition(*fen)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
	rules := checkers.DefaultRules()
	if *flipped {
		rules = rules.WithComplex(checkers.FlippedComplex)
	}
	if err := pos.Validate(rules.Complex); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	fmt.Println("FEN:", pos.Encode(side))
	fmt.Println("Basic eval:", engine.EvaluateBasic(pos), "Advanced eval:", engine.EvaluateAdvanced(pos, rules.Complex, true))
	fmt.Println("Phase:", engine.PhaseOf(pos))

	pseudo := pos.GeneratePseudoMovesForSide(side, rules.Complex)
	legal := pos.GenerateLegalMoves(side, rules)
	fmt.Println("Pseudo legal moves:", len(pseudo))
	fmt.Println("Legal moves:", len(legal))
	for _, m := range legal {
		fmt.Println("  ", m.Notation())
	}
}
