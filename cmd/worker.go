package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run the payment reconciliation worker",
	Long: `Periodically re-verifies pending payments against the gateway.
Settles charges whose webhook or callback never arrived and marks
abandoned checkouts as failed.`,
	Run: func(cmd *cobra.Command, args []string) {
		startReconcileWorker()
	},
}

// Payments younger than this are left alone: their callback or webhook is
// probably still on the way.
const reconcileMinAge = 10 * time.Minute

func startReconcileWorker() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	interval := deps.Config.Payments.ReconcileInterval
	batch := deps.Config.Payments.ReconcileBatch

	slog.Info("reconciliation worker started",
		"interval", interval,
		"batch", batch)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run once at startup, then on the interval.
	deps.PaymentService.ReconcilePending(ctx, reconcileMinAge, batch)

	for {
		select {
		case <-ticker.C:
			deps.PaymentService.ReconcilePending(ctx, reconcileMinAge, batch)
		case <-ctx.Done():
			slog.Info("reconciliation worker stopping")
			return
		}
	}
}
