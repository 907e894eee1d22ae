// Package engine runs the discovery-registration-cleanup cycle: it is the
// only place the control flow of a run lives.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/cmkops/hostkeeper/internal/cmk"
	"github.com/cmkops/hostkeeper/internal/config"
	"github.com/cmkops/hostkeeper/internal/lockfile"
	"github.com/cmkops/hostkeeper/internal/spool"
	"github.com/cmkops/hostkeeper/internal/store"
	"github.com/cmkops/hostkeeper/internal/wato"
)

// Provisioner orchestrates one provisioning run against the spool and the
// monitoring server.
type Provisioner struct {
	config *config.Config
	store  *store.Store
	client cmk.Client
	logger *slog.Logger
}

// Options control a provisioning run.
type Options struct {
	// DryRun scans and reports without writing the artifact, invoking the
	// server, or pruning the spool.
	DryRun bool
}

// Report summarizes a completed run.
type Report struct {
	RunUUID        string
	ContainersSeen int
	Registered     int
	// NewHosts counts registered hosts never seen by an earlier run.
	NewHosts    int
	Skipped     int
	Inventoried int
	Pruned      int
	Duration    time.Duration
}

// NewProvisioner creates a new Provisioner.
func NewProvisioner(cfg *config.Config, st *store.Store, client cmk.Client, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{
		config: cfg,
		store:  st,
		client: client,
		logger: logger,
	}
}

// Run executes the full cycle: lock, folder metadata, scan, registry
// rewrite, recompile, inventory, activate, retention. The lock is released
// on every exit path. Fatal conditions (lock held, missing spool, recompile
// or activate failure) abort with an error; per-item conditions are logged,
// counted, and the run continues.
func (p *Provisioner) Run(ctx context.Context, opts Options) (*Report, error) {
	lock, err := lockfile.Acquire(p.config.State.LockPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			p.logger.Error("failed to release lock", "error", rerr)
		}
	}()

	start := time.Now()
	report := &Report{RunUUID: uuid.NewString()}
	logger := p.logger.With("run", report.RunUUID)

	logger.Info("run started", "spool", p.config.Spool.Dir, "dry_run", opts.DryRun)

	// Run records are observability state; store trouble never fails a run.
	var runRec *store.ProvisionRun
	if !opts.DryRun {
		runRec = &store.ProvisionRun{
			RunUUID:   report.RunUUID,
			StartTime: start,
			Status:    "running",
		}
		if err := p.store.CreateProvisionRun(runRec); err != nil {
			logger.Warn("failed to create run record", "error", err)
			runRec = nil
		}
	}

	fail := func(err error) (*Report, error) {
		logger.Error("run failed", "error", err)
		p.finalize(runRec, report, "failed", err)
		return nil, err
	}

	if !opts.DryRun {
		if err := wato.EnsureFolder(p.config.FolderDir(), p.config.Server.Folder); err != nil {
			return fail(err)
		}
	}

	containers, err := spool.Scan(p.config.Spool.Dir, logger)
	if err != nil {
		return fail(err)
	}
	report.ContainersSeen = len(containers)

	registrable := dedupeParented(containers, logger)

	if opts.DryRun {
		report.Registered = len(registrable)
		report.Skipped = len(containers) - len(registrable)
		report.Duration = time.Since(start)
		logger.Info("dry run complete",
			"containers", report.ContainersSeen,
			"would_register", report.Registered,
			"would_skip", report.Skipped,
		)
		return report, nil
	}

	registered, skipped, err := wato.WriteHosts(p.config.ArtifactPath(), containers, p.config.Server.Folder)
	if err != nil {
		return fail(err)
	}
	report.Registered = registered
	report.Skipped = skipped
	logger.Info("registry rebuilt", "registered", registered, "skipped", skipped)

	if runRec != nil {
		known := make(map[string]bool)
		if hosts, err := p.store.ListHosts(); err == nil {
			for _, h := range hosts {
				known[h.HostID] = true
			}
		} else {
			logger.Warn("failed to list known hosts", "error", err)
		}
		for _, c := range registrable {
			if !known[c.ID] {
				report.NewHosts++
				logger.Info("new host registered", "host", c.ID, "parent", c.ParentHost)
			}
			if err := p.store.UpsertHost(c.ID, c.ParentHost, runRec.ID); err != nil {
				logger.Warn("failed to record host", "host", c.ID, "error", err)
			}
		}
	}

	if err := p.client.Recompile(ctx); err != nil {
		return fail(err)
	}

	report.Inventoried = p.inventory(ctx, registrable, logger)

	if err := p.client.Activate(ctx); err != nil {
		return fail(err)
	}

	// Retention runs strictly after activation, so nothing is reclaimed
	// before it had its chance to be registered in this run.
	pruned, err := spool.Prune(p.config.Spool.Dir, p.config.MaxAge(), logger)
	if err != nil {
		logger.Warn("retention pass failed", "error", err)
	}
	report.Pruned = pruned

	report.Duration = time.Since(start)
	p.finalize(runRec, report, "success", nil)

	logger.Info("run completed",
		"containers", report.ContainersSeen,
		"registered", report.Registered,
		"skipped", report.Skipped,
		"inventoried", report.Inventoried,
		"pruned", report.Pruned,
		"duration", report.Duration.Round(time.Millisecond),
	)

	return report, nil
}

// Prune takes the lock and runs the retention pass alone.
func (p *Provisioner) Prune(ctx context.Context) (int, error) {
	lock, err := lockfile.Acquire(p.config.State.LockPath)
	if err != nil {
		return 0, err
	}
	defer func() {
		if rerr := lock.Release(); rerr != nil {
			p.logger.Error("failed to release lock", "error", rerr)
		}
	}()

	return spool.Prune(p.config.Spool.Dir, p.config.MaxAge(), p.logger)
}

// inventory inventories each registered host the server already lists.
// Visibility can lag recompilation, so a host not yet listed is skipped for
// this run without being an error.
func (p *Provisioner) inventory(ctx context.Context, registrable []spool.Container, logger *slog.Logger) int {
	known, err := p.client.ListHosts(ctx)
	if err != nil {
		logger.Warn("cannot list hosts, skipping inventory this run", "error", err)
		return 0
	}

	visible := make(map[string]bool, len(known))
	for _, host := range known {
		visible[host] = true
	}

	inventoried := 0
	for _, c := range registrable {
		if !visible[c.ID] {
			logger.Info("host not yet visible, inventory deferred", "host", c.ID)
			continue
		}
		if err := p.client.Inventory(ctx, c.ID); err != nil {
			logger.Warn("inventory failed", "host", c.ID, "error", err)
			continue
		}
		inventoried++
	}
	return inventoried
}

// dedupeParented filters the scan down to the containers that will actually
// be registered: first occurrence of each id with a resolved parent. The
// skips mirror the registry writer's own bookkeeping.
func dedupeParented(containers []spool.Container, logger *slog.Logger) []spool.Container {
	seen := make(map[string]bool, len(containers))
	var out []spool.Container
	for _, c := range containers {
		if !c.HasParent() {
			logger.Warn("container has no parent host, skipping", "container", c.ID)
			continue
		}
		if seen[c.ID] {
			logger.Warn("container already registered this run, skipping", "container", c.ID)
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out
}

// finalize closes out the run record, best-effort.
func (p *Provisioner) finalize(runRec *store.ProvisionRun, report *Report, status string, runErr error) {
	if runRec == nil {
		return
	}
	runRec.EndTime = time.Now()
	runRec.ContainersSeen = report.ContainersSeen
	runRec.HostsRegistered = report.Registered
	runRec.HostsSkipped = report.Skipped
	runRec.HostsInventoried = report.Inventoried
	runRec.DirsPruned = report.Pruned
	runRec.Status = status
	if runErr != nil {
		runRec.ErrorMessage = runErr.Error()
	}
	if err := p.store.UpdateProvisionRun(runRec); err != nil {
		p.logger.Warn("failed to finalize run record", "error", err)
	}
}

// Status summarizes recent runs and the known host set for display.
type Status struct {
	Runs       []store.ProvisionRun
	Hosts      []store.HostRecord
	TotalHosts int
}

// Status queries the store for the most recent runs and all known hosts.
func (p *Provisioner) Status(limit int) (*Status, error) {
	runs, err := p.store.ListProvisionRuns(limit)
	if err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	hosts, err := p.store.ListHosts()
	if err != nil {
		return nil, fmt.Errorf("listing hosts: %w", err)
	}
	total, err := p.store.CountHosts()
	if err != nil {
		return nil, fmt.Errorf("counting hosts: %w", err)
	}
	return &Status{Runs: runs, Hosts: hosts, TotalHosts: total}, nil
}
