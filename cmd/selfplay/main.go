package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"time"

	"checkers/internal/checkers"
	"checkers/internal/engine"
)

func main() {
	depth := flag.Int("depth", 4, "search depth")
	maxMoves := flag.Int("maxmoves", 80, "max plies to play")
	noMobility := flag.Bool("no-mobility", false, "drop the mobility term from the evaluator")
	games := flag.Int("games", 0, "play a match of this many games between -depth and -opp-depth instead")
	oppDepth := flag.Int("opp-depth", 2, "opponent depth in match mode")
	pprofAddr := flag.String("pprof", "", "serve pprof on this address, e.g. localhost:6060")
	flag.Parse()

	log.SetPrefix("[selfplay] ")

	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof listening on %s", *pprofAddr)
			if err := http.ListenAndServe(*pprofAddr, nil); err != nil {
				log.Printf("pprof failed: %v", err)
			}
		}()
	}

	e := engine.NewEngine()
	e.Mobility = !*noMobility

	if *games > 0 {
		runMatch(e, *games, *depth, *oppDepth, *maxMoves)
		return
	}

	pos := checkers.NewInitialPosition()
	side := checkers.Red
	rules := checkers.DefaultRules()

	for i := 0; i < *maxMoves; i++ {
		log.Printf("--- Ply %d, Side: %v, %s ---", i+1, side, pos.Encode(side))

		start := time.Now()
		res, err := e.Search(context.Background(), pos, side, engine.SearchConfig{Depth: *depth, Rules: rules})
		if err != nil {
			log.Fatalf("search failed: %v", err)
		}
		duration := time.Since(start)

		if res.BestMove == nil {
			log.Printf("Game over: %s has no moves, %s wins.", side, side.Opponent())
			break
		}

		fmt.Printf("BestMove: %s, Score: %d, Eval: %d, Nodes: %d, Time: %v, NPS: %d\n",
			res.BestMove.Notation(), res.Ranked[0].Score, res.Evaluation, res.Nodes, duration,
			int64(float64(res.Nodes)/duration.Seconds()))
		fmt.Println("  ", res.Explanation)

		newPos, ok := pos.ApplyMove(*res.BestMove)
		if !ok {
			log.Fatalf("Failed to apply move %s", res.BestMove.Notation())
		}
		pos, side = newPos, side.Opponent()
	}

	nodes, searches := e.Stats()
	log.Printf("Selfplay finished: %d searches, %d nodes.", searches, nodes)
}
