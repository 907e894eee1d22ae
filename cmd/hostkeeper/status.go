package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusLimit int

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show recent runs and registered hosts",
		Long: `Show the most recent provisioning runs and the set of auto-created hosts
known from past runs.`,
		Example: `  hostkeeper status
  hostkeeper status --limit 5`,
		RunE: statusRun,
	}

	cmd.Flags().IntVar(&statusLimit, "limit", 10, "number of recent runs to show")

	return cmd
}

func statusRun(cmd *cobra.Command, args []string) error {
	if globalProvisioner == nil {
		return fmt.Errorf("provisioner not initialized")
	}

	status, err := globalProvisioner.Status(statusLimit)
	if err != nil {
		return err
	}

	fmt.Printf("Recent runs (%d):\n", len(status.Runs))
	if len(status.Runs) == 0 {
		fmt.Println("  none recorded")
	}
	for _, run := range status.Runs {
		fmt.Printf("  %s  %-7s  seen=%d registered=%d skipped=%d inventoried=%d pruned=%d\n",
			run.StartTime.Format(time.RFC3339), run.Status,
			run.ContainersSeen, run.HostsRegistered, run.HostsSkipped,
			run.HostsInventoried, run.DirsPruned,
		)
		if run.ErrorMessage != "" {
			fmt.Printf("      error: %s\n", run.ErrorMessage)
		}
	}

	fmt.Printf("\nRegistered hosts (%d):\n", status.TotalHosts)
	if len(status.Hosts) == 0 {
		fmt.Println("  none recorded")
	}
	for _, host := range status.Hosts {
		fmt.Printf("  %-40s  parent=%-20s  last seen %s\n",
			host.HostID, host.ParentHost, host.LastSeen.Format(time.RFC3339))
	}

	return nil
}
