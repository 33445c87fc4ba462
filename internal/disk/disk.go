// Package disk measures application trees and the backup storage target.
package disk

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/vulnverified/sitevault/internal/command"
	"github.com/vulnverified/sitevault/internal/engine"
	"github.com/vulnverified/sitevault/pkg/logger"
)

// DirSizer implements discovery.DirSizer with du, falling back to a
// block-count walk when du is unusable.
type DirSizer struct {
	Run command.Runner
}

// NewDirSizer returns a DirSizer using the system du.
func NewDirSizer() *DirSizer {
	return &DirSizer{Run: command.Exec}
}

// Size returns the apparent size of path in bytes. "du -sb" is exact; "du -sk"
// and the block walk are estimates for systems without byte accounting.
func (d *DirSizer) Size(ctx context.Context, path string) int64 {
	if n, err := d.du(ctx, path, "-sb", 1); err == nil {
		return n
	}
	if n, err := d.du(ctx, path, "-sk", 1024); err == nil {
		return n
	}

	n, err := walkBlocks(path)
	if err != nil {
		logger.Warn(ctx, "could not size directory", zap.String("path", path), zap.Error(err))
	}
	return n
}

func (d *DirSizer) du(ctx context.Context, path, flag string, unit int64) (int64, error) {
	out, err := d.Run(ctx, command.Cmd{Name: "du", Args: []string{flag, path}})
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(out))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty output from du %s", flag)
	}
	n, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing du output %q: %w", fields[0], err)
	}
	return n * unit, nil
}

// walkBlocks sums allocated 512-byte blocks under root.
func walkBlocks(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil
			}
			return err
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if st, ok := info.Sys().(*syscall.Stat_t); ok {
			total += int64(st.Blocks) * 512
		} else {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// AvailableFunc reports the bytes available to unprivileged users on the
// filesystem holding path.
type AvailableFunc func(path string) (uint64, error)

// Available uses statfs: free blocks available to non-root times block size.
func Available(path string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(path, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", path, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// StorageProber implements engine.StorageProber. An explicit output
// directory wins; otherwise the preferred mount is used when it exists, else
// the root filesystem.
type StorageProber struct {
	OutputDir string
	Preferred string
	Fallback  string
	Available AvailableFunc
}

// NewStorageProber returns a prober preferring mount and falling back to "/".
func NewStorageProber(mount string) *StorageProber {
	return &StorageProber{Preferred: mount, Fallback: "/", Available: Available}
}

// NewOutputDirProber returns a prober for archives written to dir, which may
// not exist yet.
func NewOutputDirProber(dir string) *StorageProber {
	return &StorageProber{OutputDir: dir, Fallback: "/", Available: Available}
}

// Probe selects the storage target and reads its free space.
func (p *StorageProber) Probe(ctx context.Context) (engine.StorageTarget, error) {
	if p.OutputDir != "" {
		target := engine.StorageTarget{Path: p.OutputDir, Preferred: true}
		avail, err := p.Available(existingAncestor(p.OutputDir))
		if err != nil {
			return target, err
		}
		target.AvailableBytes = avail
		return target, nil
	}

	target := engine.StorageTarget{Path: p.Fallback}
	if p.Preferred != "" {
		if info, err := os.Stat(p.Preferred); err == nil && info.IsDir() {
			target.Path = p.Preferred
			target.Preferred = true
		} else {
			logger.Info(ctx, "preferred storage mount missing, using fallback",
				zap.String("preferred", p.Preferred),
				zap.String("fallback", p.Fallback))
		}
	}

	avail, err := p.Available(target.Path)
	if err != nil {
		return target, err
	}
	target.AvailableBytes = avail
	return target, nil
}

// existingAncestor returns the nearest directory at or above path that
// exists, so statfs sees the filesystem the directory will be created on.
func existingAncestor(path string) string {
	dir := filepath.Clean(path)
	for {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
