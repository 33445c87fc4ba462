package disk

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vulnverified/sitevault/internal/command"
)

func TestDirSizer_DuBytes(t *testing.T) {
	d := &DirSizer{Run: func(ctx context.Context, c command.Cmd) ([]byte, error) {
		require.Equal(t, []string{"-sb", "/apps/a/public_html"}, c.Args)
		return []byte("123456\t/apps/a/public_html\n"), nil
	}}
	require.Equal(t, int64(123456), d.Size(context.Background(), "/apps/a/public_html"))
}

func TestDirSizer_FallsBackToKilobytes(t *testing.T) {
	d := &DirSizer{Run: func(ctx context.Context, c command.Cmd) ([]byte, error) {
		if c.Args[0] == "-sb" {
			return nil, errors.New("du: invalid option -- 'b'")
		}
		return []byte("12\t/x\n"), nil
	}}
	require.Equal(t, int64(12*1024), d.Size(context.Background(), "/x"))
}

func TestDirSizer_FallsBackToWalk(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), make([]byte, 10_000), 0o644))

	d := &DirSizer{Run: func(ctx context.Context, c command.Cmd) ([]byte, error) {
		return nil, errors.New("du: not found")
	}}
	require.Positive(t, d.Size(context.Background(), root))
}

func TestDirSizer_RealDu(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), make([]byte, 4096), 0o644))

	require.Positive(t, NewDirSizer().Size(context.Background(), root))
}

func TestStorageProber_PrefersMount(t *testing.T) {
	mount := t.TempDir()
	p := &StorageProber{
		Preferred: mount,
		Fallback:  "/",
		Available: func(path string) (uint64, error) {
			require.Equal(t, mount, path)
			return 1 << 30, nil
		},
	}

	target, err := p.Probe(context.Background())
	require.NoError(t, err)
	require.Equal(t, mount, target.Path)
	require.True(t, target.Preferred)
	require.Equal(t, uint64(1<<30), target.AvailableBytes)
}

func TestStorageProber_FallsBackToRoot(t *testing.T) {
	p := &StorageProber{
		Preferred: filepath.Join(t.TempDir(), "missing"),
		Fallback:  "/",
		Available: func(path string) (uint64, error) {
			require.Equal(t, "/", path)
			return 42, nil
		},
	}

	target, err := p.Probe(context.Background())
	require.NoError(t, err)
	require.Equal(t, "/", target.Path)
	require.False(t, target.Preferred)
}

func TestStorageProber_OutputDirUsesNearestExistingAncestor(t *testing.T) {
	base := t.TempDir()
	out := filepath.Join(base, "runs", "today")

	p := NewOutputDirProber(out)
	p.Preferred = filepath.Join(t.TempDir(), "other-mount")
	p.Available = func(path string) (uint64, error) {
		require.Equal(t, base, path)
		return 7 << 20, nil
	}

	target, err := p.Probe(context.Background())
	require.NoError(t, err)
	require.Equal(t, out, target.Path)
	require.True(t, target.Preferred)
	require.Equal(t, uint64(7<<20), target.AvailableBytes)
}

func TestExistingAncestor(t *testing.T) {
	base := t.TempDir()
	require.Equal(t, base, existingAncestor(base))
	require.Equal(t, base, existingAncestor(filepath.Join(base, "a", "b")))
	require.Equal(t, "/", existingAncestor("/definitely-missing-sitevault-dir/x"))
}

func TestAvailable_TempDir(t *testing.T) {
	n, err := Available(t.TempDir())
	require.NoError(t, err)
	require.Positive(t, n)
}
