package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/fatih/color"

	"github.com/cabraviva/knorry/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.Run(ctx, os.Args[1:], os.Stdout); err != nil {
		color.Red("knorry: %s", err)
		stop()
		os.Exit(1)
	}
}
