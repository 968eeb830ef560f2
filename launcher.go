package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/multigameinc/launcher/cmd"
	"github.com/multigameinc/launcher/internal/console"
)

func main() {
	console.Attach()
	console.SetTitle("MultiGameInc Launcher")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cmd.Execute(ctx)
	stop()
	os.Exit(code)
}
