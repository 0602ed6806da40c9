package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/movierec-backend/internal/app"
	"github.com/yungbote/movierec-backend/internal/services"
)

func main() {
	var opts services.BackfillOptions
	flag.BoolVar(&opts.Force, "force", false, "re-embed movies that already have an embedding")
	flag.IntVar(&opts.BatchSize, "batch", 64, "movies per embedding request (max 128)")
	flag.IntVar(&opts.Concurrency, "concurrency", 4, "batches embedded in parallel")
	flag.IntVar(&opts.Limit, "limit", 0, "limit number of movies scanned")
	flag.BoolVar(&opts.EnsureCollection, "ensure-collection", true, "create the vector collection and payload indexes first")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	report, err := application.Services.Backfill.Backfill(ctx, opts)
	out, _ := json.Marshal(report)
	fmt.Println(string(out))
	if err != nil {
		application.Log.Error("embedding backfill failed", "error", err)
		application.Close()
		os.Exit(1)
	}
}
