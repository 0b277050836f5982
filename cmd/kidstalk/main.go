package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/wozobuyshop/Kidstalk3/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := app.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
