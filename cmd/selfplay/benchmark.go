package main

import (
	"context"
	"fmt"
	"log"

	"checkers/internal/checkers"
	"checkers/internal/engine"
)

type PlayerConfig struct {
	Name string
	Cfg  engine.SearchConfig
}

// runMatch plays games between two depths, swapping colours every game.
func runMatch(e *engine.Engine, totalGames, depth, oppDepth, maxMoves int) {
	rules := checkers.DefaultRules()
	playerA := PlayerConfig{
		Name: fmt.Sprintf("Alpha-Beta (Depth %d)", depth),
		Cfg:  engine.SearchConfig{Depth: depth, Rules: rules},
	}
	playerB := PlayerConfig{
		Name: fmt.Sprintf("Alpha-Beta (Depth %d)", oppDepth),
		Cfg:  engine.SearchConfig{Depth: oppDepth, Rules: rules},
	}

	aWins, bWins, draws := 0, 0, 0
	for g := 0; g < totalGames; g++ {
		red, black := playerA, playerB
		if g%2 == 1 {
			red, black = playerB, playerA
		}

		fmt.Printf("\n=== Game %d: Red [%s] vs Black [%s] ===\n", g+1, red.Name, black.Name)
		winner := playGame(e, red, black, maxMoves)

		switch winner {
		case checkers.Red, checkers.Black:
			aWon := (winner == checkers.Red) == (g%2 == 0)
			if aWon {
				aWins++
				fmt.Printf("Result: %s wins\n", playerA.Name)
			} else {
				bWins++
				fmt.Printf("Result: %s wins\n", playerB.Name)
			}
		default:
			draws++
			fmt.Println("Result: draw")
		}
	}

	fmt.Printf("\n=== Final Score ===\n")
	fmt.Printf("%s: %d\n", playerA.Name, aWins)
	fmt.Printf("%s: %d\n", playerB.Name, bWins)
	fmt.Printf("Draws: %d\n", draws)
}

// playGame returns the winner, or NoSide for a draw by move limit.
func playGame(e *engine.Engine, red, black PlayerConfig, maxMoves int) checkers.Side {
	pos := checkers.NewInitialPosition()
	side := checkers.Red

	for i := 0; i < maxMoves; i++ {
		cfg := red.Cfg
		if side == checkers.Black {
			cfg = black.Cfg
		}

		res, err := e.Search(context.Background(), pos, side, cfg)
		if err != nil {
			log.Printf("search failed at ply %d: %v", i+1, err)
			return checkers.NoSide
		}
		if res.BestMove == nil {
			// side to move is stuck and loses
			return side.Opponent()
		}

		next, ok := pos.ApplyMove(*res.BestMove)
		if !ok {
			log.Printf("invalid move %s", res.BestMove.Notation())
			return checkers.NoSide
		}
		pos, side = next, side.Opponent()
	}
	return checkers.NoSide
}
