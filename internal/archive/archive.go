// Package archive builds backup archives with the system zip tool.
package archive

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/vulnverified/sitevault/internal/command"
)

// Zipper appends to zip archives, creating them on first use.
type Zipper struct {
	Binary string
	Run    command.Runner
}

// NewZipper returns a Zipper using the zip on PATH.
func NewZipper() *Zipper {
	return &Zipper{Binary: "zip", Run: command.Exec}
}

// AddTree adds the directory name, relative to baseDir, recursively.
// Entries keep the name prefix so the archive unpacks to name/.
func (z *Zipper) AddTree(ctx context.Context, archivePath, baseDir, name string) error {
	abs, err := filepath.Abs(archivePath)
	if err != nil {
		return err
	}
	_, err = z.Run(ctx, command.Cmd{
		Name: z.Binary,
		Args: []string{"-r", "-q", "-y", abs, name},
		Dir:  baseDir,
	})
	if err != nil {
		return fmt.Errorf("archiving %s: %w", filepath.Join(baseDir, name), err)
	}
	return nil
}

// AddFile adds a single file at the archive root.
func (z *Zipper) AddFile(ctx context.Context, archivePath, file string) error {
	_, err := z.Run(ctx, command.Cmd{
		Name: z.Binary,
		Args: []string{"-q", "-j", archivePath, file},
	})
	if err != nil {
		return fmt.Errorf("adding %s to archive: %w", filepath.Base(file), err)
	}
	return nil
}
