package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yungbote/contracts-backend/internal/app"
)

// main boots the store: config, schema migration, cache and tracing. It then
// reports what is stored and exits.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Printf("Failed to init app: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()
	a.Start()

	reportCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	names, err := a.Services.Contract.ListNames(reportCtx, 100)
	if err != nil {
		a.Log.Error("Listing contracts failed", "error", err)
		return
	}
	a.Log.Info("Contract store ready", "driver", a.Cfg.DB.Driver, "contracts", len(names))
	for _, name := range names {
		c, err := a.Services.Contract.LoadByName(reportCtx, name)
		if err != nil {
			a.Log.Warn("Contract failed to load", "name", name, "error", err)
			continue
		}
		a.Log.Info("Contract",
			"name", c.Name(),
			"version", c.Version(),
			"total_cost", c.TotalCost().String(),
			"deliveries", len(c.Deliveries()),
			"line_items", len(c.LineItems()),
		)
	}

	if a.Metrics != nil {
		_ = a.Metrics.CollectDBStats(a.DB)
		_ = a.Metrics.WritePrometheus(os.Stdout)
	}
}
