// Package wpcli adapts the WordPress command-line tool to the CMS
// capabilities the scanner and the backup stage need.
package wpcli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/vulnverified/sitevault/internal/command"
	"github.com/vulnverified/sitevault/pkg/logger"
)

// CLI runs wp against an application's web root.
type CLI struct {
	Binary string
	Run    command.Runner
}

// New returns a CLI using binary, or "wp" when empty.
func New(binary string) *CLI {
	if binary == "" {
		binary = "wp"
	}
	return &CLI{Binary: binary, Run: command.Exec}
}

func (c *CLI) wp(ctx context.Context, webRoot string, args ...string) ([]byte, error) {
	args = append(args, "--path="+webRoot, "--allow-root", "--skip-plugins", "--skip-themes")
	return c.Run(ctx, command.Cmd{Name: c.Binary, Args: args})
}

// IsInstalled reports whether webRoot holds an installed WordPress.
func (c *CLI) IsInstalled(ctx context.Context, webRoot string) bool {
	_, err := c.wp(ctx, webRoot, "core", "is-installed")
	return err == nil
}

// ConfigValue returns a wp-config constant, or "" when it cannot be read.
func (c *CLI) ConfigValue(ctx context.Context, webRoot, key string) string {
	out, err := c.wp(ctx, webRoot, "config", "get", key)
	if err != nil {
		logger.Debug(ctx, "wp config get failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	return strings.TrimSpace(string(out))
}

// QueryScalar runs query through the site's own database connection and
// parses the first column of the first row. Any failure yields 0.
func (c *CLI) QueryScalar(ctx context.Context, webRoot, query string) int64 {
	out, err := c.wp(ctx, webRoot, "db", "query", query, "--skip-column-names")
	if err != nil {
		logger.Debug(ctx, "wp db query failed", zap.Error(err))
		return 0
	}
	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return 0
	}
	n, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		// DECIMAL sums may carry a fractional part.
		f, ferr := strconv.ParseFloat(fields[0], 64)
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return n
}

// Export dumps the site's database to dest.
func (c *CLI) Export(ctx context.Context, webRoot, dest string) error {
	if _, err := c.wp(ctx, webRoot, "db", "export", dest); err != nil {
		return fmt.Errorf("wp db export: %w", err)
	}
	if _, err := os.Stat(dest); err != nil {
		return fmt.Errorf("wp db export produced no file: %w", err)
	}
	return nil
}
