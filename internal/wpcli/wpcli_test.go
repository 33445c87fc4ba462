package wpcli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vulnverified/sitevault/internal/command"
)

// fakeRunner answers by the wp subcommand (first two args).
type fakeRunner struct {
	replies map[string]string
	fail    map[string]bool
	calls   []command.Cmd
}

func (f *fakeRunner) run(ctx context.Context, c command.Cmd) ([]byte, error) {
	f.calls = append(f.calls, c)
	key := strings.Join(c.Args[:2], " ")
	if f.fail[key] {
		return nil, errors.New("exit status 1")
	}
	return []byte(f.replies[key]), nil
}

func newCLI(f *fakeRunner) *CLI {
	return &CLI{Binary: "wp", Run: f.run}
}

func TestCLI_IsInstalled(t *testing.T) {
	f := &fakeRunner{fail: map[string]bool{}}
	cli := newCLI(f)
	require.True(t, cli.IsInstalled(context.Background(), "/apps/a/public_html"))

	args := f.calls[0].Args
	require.Equal(t, []string{"core", "is-installed"}, args[:2])
	require.Contains(t, args, "--path=/apps/a/public_html")
	require.Contains(t, args, "--allow-root")

	f.fail["core is-installed"] = true
	require.False(t, cli.IsInstalled(context.Background(), "/apps/a/public_html"))
}

func TestCLI_ConfigValue(t *testing.T) {
	f := &fakeRunner{replies: map[string]string{"config get": "abcdefgh\n"}}
	require.Equal(t, "abcdefgh", newCLI(f).ConfigValue(context.Background(), "/w", "DB_NAME"))
	require.Equal(t, "DB_NAME", f.calls[0].Args[2])

	f = &fakeRunner{fail: map[string]bool{"config get": true}}
	require.Empty(t, newCLI(f).ConfigValue(context.Background(), "/w", "DB_NAME"))
}

func TestCLI_QueryScalar(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		fail  bool
		want  int64
	}{
		{"integer", "1048576\n", false, 1048576},
		{"decimal", "2048.0000\n", false, 2048},
		{"null", "NULL\n", false, 0},
		{"empty", "", false, 0},
		{"failure", "", true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &fakeRunner{
				replies: map[string]string{"db query": tt.reply},
				fail:    map[string]bool{"db query": tt.fail},
			}
			require.Equal(t, tt.want, newCLI(f).QueryScalar(context.Background(), "/w", "SELECT 1"))
		})
	}
}

func TestCLI_Export(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "db.sql")
	f := &fakeRunner{}
	cli := &CLI{Binary: "wp", Run: func(ctx context.Context, c command.Cmd) ([]byte, error) {
		f.calls = append(f.calls, c)
		return nil, os.WriteFile(c.Args[2], []byte("-- dump"), 0o600)
	}}

	require.NoError(t, cli.Export(context.Background(), "/w", dest))
	require.Equal(t, []string{"db", "export", dest}, f.calls[0].Args[:3])
}

func TestCLI_ExportMissingFile(t *testing.T) {
	f := &fakeRunner{}
	err := newCLI(f).Export(context.Background(), "/w", filepath.Join(t.TempDir(), "db.sql"))
	require.Error(t, err)
}

func TestNew_DefaultBinary(t *testing.T) {
	require.Equal(t, "wp", New("").Binary)
	require.Equal(t, "/usr/local/bin/wp", New("/usr/local/bin/wp").Binary)
}
