package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/undeconstructed/machi/client"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s <user> [server]\n", os.Args[0])
		os.Exit(2)
	}
	user := os.Args[1]
	addr := "localhost:1234"
	if len(os.Args) > 2 {
		addr = os.Args[2]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	c, err := client.Dial(ctx, addr, user)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect")
	}
	defer c.Close()

	l, err := client.NewReadline(user)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot start readline")
	}
	defer l.Close()

	if err := c.Repl(l); err != nil {
		log.Error().Err(err).Msg("client return")
	}
}
