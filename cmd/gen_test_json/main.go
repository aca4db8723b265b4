package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"checkers/internal/checkers"
)

// TestCase is one position from a random game with everything the browser
// move generator needs to reproduce the legal move list.
type TestCase struct {
	Position   *checkers.Position `json:"position"`
	Player     checkers.Side      `json:"player"`
	Rules      checkers.Rules     `json:"rules"`
	Encoded    string             `json:"encoded"`
	LegalMoves []checkers.Move    `json:"legalMoves"`
	Notation   []string           `json:"notation"`
}

func main() {
	numGames := flag.Int("games", 10, "random games to play")
	maxMoves := flag.Int("maxmoves", 200, "ply limit per game")
	seed := flag.Int64("seed", 0, "random seed, 0 means time based")
	out := flag.String("out", "move_gen_test_data.json", "output file")
	flag.Parse()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	var testCases []TestCase
	for g := 0; g < *numGames; g++ {
		rules := checkers.Rules{
			ForceTake:          rng.Intn(4) != 0,
			ForceMultipleTakes: rng.Intn(2) == 0,
		}
		pos := checkers.NewInitialPosition()
		// every other game is laid out on the flipped complex
		if g%2 == 1 {
			pos = pos.RemapColorComplex(checkers.StandardComplex)
			rules.Complex = checkers.FlippedComplex
		}
		side := checkers.Red

		for ply := 0; ply < *maxMoves; ply++ {
			legalMoves := pos.GenerateLegalMoves(side, rules)
			notation := make([]string, len(legalMoves))
			for i, m := range legalMoves {
				notation[i] = m.Notation()
			}
			testCases = append(testCases, TestCase{
				Position:   pos,
				Player:     side,
				Rules:      rules,
				Encoded:    pos.Encode(side),
				LegalMoves: legalMoves,
				Notation:   notation,
			})
			if len(legalMoves) == 0 {
				break
			}

			chosen := legalMoves[rng.Intn(len(legalMoves))]
			next, ok := pos.ApplyMove(chosen)
			if !ok {
				log.Fatalf("apply %s failed in game %d", chosen.Notation(), g+1)
			}
			pos, side = next, side.Opponent()
		}
	}

	file, err := json.MarshalIndent(testCases, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	if err := os.WriteFile(*out, file, 0o644); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Generated %d test cases from %d random games (seed %d) to %s\n", len(testCases), *numGames, *seed, *out)
}
