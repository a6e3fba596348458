package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/undeconstructed/machi/server"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("bad config")
	}

	rules, err := cfg.Rules()
	if err != nil {
		log.Fatal().Err(err).Msg("bad rules")
	}

	log.Info().
		Str("activation", string(rules.Activation)).
		Str("exit", string(rules.Exit)).
		Bool("rejectUnknown", rules.RejectUnknown).
		Msg("rules")

	srv := server.NewServer(cfg, rules)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = srv.Run(ctx)
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info().Err(err).Msg("server return")
	if err != nil {
		os.Exit(1)
	}
}
