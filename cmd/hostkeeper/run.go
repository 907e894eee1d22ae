package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cmkops/hostkeeper/internal/engine"
)

var runDryRun bool

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one full provisioning cycle",
		Long: `Run one full provisioning cycle against the piggyback spool.

The run will:
  1. Take the exclusive run lock (fails if another run is active)
  2. Ensure the target configuration folder and its metadata exist
  3. Scan the spool and rebuild the generated hosts file from it
  4. Recompile the monitoring configuration
  5. Inventory registered hosts the server already lists
  6. Activate the configuration
  7. Prune spool directories older than the retention threshold

With --dry-run, only the scan is performed and the counts are reported.`,
		Example: `  hostkeeper run
  hostkeeper run --dry-run`,
		RunE: runRun,
	}

	cmd.Flags().BoolVar(&runDryRun, "dry-run", false, "scan and report without changing anything")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	if globalProvisioner == nil {
		return fmt.Errorf("provisioner not initialized")
	}

	report, err := globalProvisioner.Run(context.Background(), engine.Options{DryRun: runDryRun})
	if err != nil {
		return err
	}

	if runDryRun {
		fmt.Println("DRY RUN: no changes were made")
	}
	fmt.Printf("\nRun %s:\n", report.RunUUID)
	fmt.Printf("  Containers:  %d\n", report.ContainersSeen)
	fmt.Printf("  Registered:  %d (%d new)\n", report.Registered, report.NewHosts)
	fmt.Printf("  Skipped:     %d\n", report.Skipped)
	if !runDryRun {
		fmt.Printf("  Inventoried: %d\n", report.Inventoried)
		fmt.Printf("  Pruned:      %d\n", report.Pruned)
	}
	fmt.Printf("  Duration:    %s\n", report.Duration.Round(time.Millisecond))

	return nil
}
