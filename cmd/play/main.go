package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Clark-Hu/movie-budget-game/internal/apiclient"
	"github.com/Clark-Hu/movie-budget-game/internal/game"
)

func main() {
	var (
		server  = flag.String("server", "http://localhost:5001/api", "base URL of the game API")
		mode    = flag.String("mode", string(game.ModePopular), "starting mode: popular, discover or daily")
		timeout = flag.Duration("timeout", 15*time.Second, "per-request timeout")
	)
	flag.Parse()

	startMode, err := game.ParseMode(*mode)
	if err != nil {
		log.Fatalf("invalid -mode: %v", err)
	}

	client, err := apiclient.New(*server, *timeout)
	if err != nil {
		log.Fatalf("init api client: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := newPlayer(game.NewSession(client), os.Stdin, os.Stdout)
	if err := p.run(ctx, startMode); err != nil {
		log.Fatalf("play: %v", err)
	}
}
