package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newPruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Run the retention pass alone",
		Long: `Delete spool directories older than the configured retention threshold
without touching the host configuration. Takes the same run lock as a full
cycle, so it never interleaves with one.`,
		Example: `  hostkeeper prune`,
		RunE:    pruneRun,
	}
}

func pruneRun(cmd *cobra.Command, args []string) error {
	if globalProvisioner == nil {
		return fmt.Errorf("provisioner not initialized")
	}

	removed, err := globalProvisioner.Prune(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Pruned %d spool directories older than %s\n", removed, globalCfg.MaxAge())
	return nil
}
