package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/reoring/csvmodel/backends"
	"github.com/reoring/csvmodel/cli"
	"github.com/reoring/csvmodel/model"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.Command(cli.Options{
		Registry: backends.New(model.Default),
		Version:  version,
	})
	err := cmd.Run(ctx, os.Args)
	stop()
	switch {
	case err == nil:
	case errors.Is(err, cli.ErrFailed):
		os.Exit(1)
	default:
		fmt.Fprintf(os.Stderr, "csvmodel: %v\n", err)
		os.Exit(2)
	}
}
