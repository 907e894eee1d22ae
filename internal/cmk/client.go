// Package cmk is the bridge to the monitoring server's command line. The
// orchestration logic only depends on the narrow Client interface; the exact
// commands and flags are an external contract kept in one place here.
package cmk

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Client is the operation surface consumed from the monitoring server.
type Client interface {
	// Recompile recompiles the server's configuration so newly written
	// host declarations become known.
	Recompile(ctx context.Context) error

	// ListHosts returns the host names currently known to the server.
	ListHosts(ctx context.Context) ([]string, error)

	// Inventory discovers monitorable items on the given host.
	Inventory(ctx context.Context, hostID string) error

	// Activate applies the compiled configuration so monitoring takes
	// effect.
	Activate(ctx context.Context) error
}

// runFunc executes the monitoring binary with the given arguments and
// returns its combined output. Injectable for tests.
type runFunc func(ctx context.Context, args ...string) ([]byte, error)

// ExecClient shells out to the monitoring CLI binary. All invocations are
// synchronous; the exit status is the sole success signal.
type ExecClient struct {
	binary string
	logger *slog.Logger
	run    runFunc
}

// NewExecClient creates a client for the given monitoring binary.
func NewExecClient(binary string, logger *slog.Logger) *ExecClient {
	if logger == nil {
		logger = slog.Default()
	}
	c := &ExecClient{binary: binary, logger: logger}
	c.run = func(ctx context.Context, args ...string) ([]byte, error) {
		return exec.CommandContext(ctx, c.binary, args...).CombinedOutput()
	}
	return c
}

func (c *ExecClient) Recompile(ctx context.Context) error {
	output, err := c.run(ctx, "-U")
	if err != nil {
		return fmt.Errorf("recompile failed: %w (output: %s)", err, strings.TrimSpace(string(output)))
	}
	c.logger.Info("configuration recompiled")
	return nil
}

func (c *ExecClient) ListHosts(ctx context.Context) ([]string, error) {
	output, err := c.run(ctx, "--list-hosts")
	if err != nil {
		return nil, fmt.Errorf("listing hosts failed: %w (output: %s)", err, strings.TrimSpace(string(output)))
	}

	var hosts []string
	for _, line := range strings.Split(string(output), "\n") {
		if host := strings.TrimSpace(line); host != "" {
			hosts = append(hosts, host)
		}
	}
	return hosts, nil
}

func (c *ExecClient) Inventory(ctx context.Context, hostID string) error {
	output, err := c.run(ctx, "-II", hostID)
	if err != nil {
		return fmt.Errorf("inventory of %s failed: %w (output: %s)", hostID, err, strings.TrimSpace(string(output)))
	}
	c.logger.Info("host inventoried", "host", hostID)
	return nil
}

func (c *ExecClient) Activate(ctx context.Context) error {
	output, err := c.run(ctx, "-O")
	if err != nil {
		return fmt.Errorf("activate failed: %w (output: %s)", err, strings.TrimSpace(string(output)))
	}
	c.logger.Info("configuration activated")
	return nil
}
