package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/tatianab/chaotic-adventures/internal/app"
	"github.com/tatianab/chaotic-adventures/internal/chance"
	"github.com/tatianab/chaotic-adventures/internal/config"
	"github.com/tatianab/chaotic-adventures/internal/engine"
	"github.com/tatianab/chaotic-adventures/internal/tier"
)

const maxTurns = 10

func main() {
	name := flag.String("name", "Simulated Sam", "player name")
	chaos := flag.Int("chaos", 7, "chaos level (1-10)")
	turns := flag.Int("turns", maxTurns, "maximum number of turns")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	game, err := app.New(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("Failed to create game: %v", err)
	}
	defer game.Close()

	// The simulated player picks choices with its own seeded source.
	player := chance.New(game.Seed + 1)

	fmt.Printf("--- Narrator: %+v ---\n\n", game.Chain.Info())
	res, err := game.Engine.Start(ctx, *name, *chaos)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	fmt.Printf("%s\n\n", res.Text)

	gameOver := false
	for turn := 1; turn <= *turns; turn++ {
		fmt.Printf("--- Turn %d ---\n", turn)
		for i, c := range res.Choices {
			fmt.Printf("  %d. %s\n", i+1, c)
		}
		idx := player.IntN(len(res.Choices))
		fmt.Printf("Player chooses: %s\n\n", res.Choices[idx])

		res, err = game.Engine.Resolve(ctx, idx)
		if err != nil {
			log.Fatalf("Failed to resolve turn: %v", err)
		}
		fmt.Printf("%s\n\n", res.Text)
		for _, effect := range res.Expired {
			fmt.Printf("(effect faded: %s)\n", effect)
		}

		for {
			up, err := game.Engine.RedeemUpgrade()
			if errors.Is(err, tier.ErrNoUpgradeCredit) || errors.Is(err, tier.ErrMaxTier) {
				break
			}
			if err != nil {
				log.Fatalf("Failed to upgrade: %v", err)
			}
			fmt.Printf("*** Narrator upgraded: %s -> %s ***\n\n", up.OldTier, up.NewTier)
		}

		if res.Outcome == engine.OutcomeGameOver {
			gameOver = true
			fmt.Println("The adventure ended early.")
			break
		}
	}

	fmt.Println("--- Summary ---")
	sum, err := game.Engine.Summarize(ctx, gameOver, "")
	if err != nil {
		log.Fatalf("Failed to summarize: %v", err)
	}
	fmt.Println(sum.Text)
	fmt.Println("\nMemorable elements:")
	for _, m := range sum.Memories {
		fmt.Printf("- %s\n", m.Text)
	}
	fmt.Printf("\nMemories saved: %v\n", sum.Persisted)

	info, _ := game.Engine.TierInfo()
	fmt.Printf("Final tier: %s (%d points)\n", info.Tier, info.Points)
	fmt.Printf("Usage: %+v\n", game.Chain.UsageStats())
}
