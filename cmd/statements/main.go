package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path"

	"github.com/google/subcommands"

	"github.com/jask/statements/internal/cli"
	"github.com/jask/statements/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cli.NewApp(cfg).Register(commander)

	flag.Parse()
	status := commander.Execute(ctx)
	stop()
	os.Exit(int(status))
}
