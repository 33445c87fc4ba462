// Package command runs the external tools sitevault delegates to (the CMS
// CLI, mysqldump, du, zip). Callers hold a Runner so tests can substitute it.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Cmd describes one external program invocation.
type Cmd struct {
	Name string
	Args []string
	// Env entries are appended to the current environment.
	Env []string
	Dir string
}

func (c Cmd) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Runner runs a command and returns its standard output.
type Runner func(ctx context.Context, cmd Cmd) ([]byte, error)

// maxStderr bounds how much of a failing tool's stderr ends up in an error.
const maxStderr = 512

// Exec is the Runner backed by os/exec. The process is killed when ctx is done.
func Exec(ctx context.Context, c Cmd) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if len(msg) > maxStderr {
			msg = msg[:maxStderr] + "..."
		}
		if msg == "" {
			return out, fmt.Errorf("%s: %w", c.Name, err)
		}
		return out, fmt.Errorf("%s: %w: %s", c.Name, err, msg)
	}
	return out, nil
}
