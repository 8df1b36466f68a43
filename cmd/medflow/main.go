package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/Skotchmaster/medflow/internal/cli"
)

func main() {
	_ = godotenv.Load(".env")

	cfg, args, err := cli.ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	app, err := cli.NewApp(cfg, os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "medflow: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintf(os.Stderr, "medflow: %v\n", err)
		os.Exit(1)
	}
}
