package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/movierec-backend/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Stderr)
	stop()
	os.Exit(code)
}

// run returns the process exit code. Init failures go to stderr since no
// logger exists yet.
func run(ctx context.Context, stderr io.Writer) int {
	application, err := app.New(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "init app: %v\n", err)
		return 1
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		application.Log.Error("server stopped", "error", err)
		return 1
	}
	application.Log.Info("server stopped")
	return 0
}
