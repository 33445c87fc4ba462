// Package backup dumps and archives one application at a time.
package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/vulnverified/sitevault/internal/engine"
	"github.com/vulnverified/sitevault/pkg/logger"
	"github.com/vulnverified/sitevault/pkg/serrors"
)

//go:generate mockgen -package mockbackup -source=backup.go -destination=mock/mockbackup.go *

// Exporter exports a CMS-managed database through the CMS CLI.
type Exporter interface {
	Export(ctx context.Context, webRoot, dest string) error
}

// Dumper dumps a generic application's database with inferred credentials.
type Dumper interface {
	Dump(ctx context.Context, creds engine.CredentialSet, dest string) error
}

// Archiver appends a directory tree or a single file to an archive.
type Archiver interface {
	AddTree(ctx context.Context, archivePath, baseDir, name string) error
	AddFile(ctx context.Context, archivePath, file string) error
}

// Backuper implements engine.AppBackuper.
type Backuper struct {
	CMS      Exporter
	DB       Dumper
	Archiver Archiver
}

// ArchiveName is the file name of an application's archive.
func ArchiveName(rec engine.ApplicationRecord) string {
	return sanitize(rec.Domain) + "_" + sanitize(rec.App) + ".zip"
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, s)
}

// Backup writes <dir>/<domain>_<app>.zip containing the web root and, when
// the database is usable, its dump. An empty dump fails the application.
func (b *Backuper) Backup(ctx context.Context, rec engine.ApplicationRecord, dir string) (engine.Artifact, error) {
	art := engine.Artifact{App: rec.App, Domain: rec.Domain}
	ctx = logger.WithFields(ctx, zap.String("app", rec.App))

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return art, fmt.Errorf("creating output directory: %w", err)
	}

	archivePath := filepath.Join(dir, ArchiveName(rec))
	// zip appends to an existing archive; start clean.
	_ = os.Remove(archivePath)

	dumpPath, err := b.dump(ctx, rec, dir)
	if err != nil {
		return art, err
	}
	if dumpPath != "" {
		defer os.Remove(dumpPath)
		art.DBDumped = true
	}

	if err := b.Archiver.AddTree(ctx, archivePath, filepath.Dir(rec.WebRoot), filepath.Base(rec.WebRoot)); err != nil {
		_ = os.Remove(archivePath)
		return art, err
	}
	if dumpPath != "" {
		if err := b.Archiver.AddFile(ctx, archivePath, dumpPath); err != nil {
			_ = os.Remove(archivePath)
			return art, err
		}
	}

	info, err := os.Stat(archivePath)
	if err != nil {
		return art, serrors.Wrap(serrors.ErrNotFound, err, "archive for %s was not created", rec.App)
	}

	art.ArchivePath = archivePath
	art.Bytes = info.Size()
	return art, nil
}

// dump exports the application's database into dir and returns the dump
// path, or "" when the application has no usable database.
func (b *Backuper) dump(ctx context.Context, rec engine.ApplicationRecord, dir string) (string, error) {
	if !rec.DBAccepted {
		if rec.DBName != "" {
			logger.Info(ctx, "database not accepted, archiving files only", zap.String("db_name", rec.DBName))
		}
		return "", nil
	}

	dumpPath := filepath.Join(dir, sanitize(rec.App)+"-"+sanitize(rec.DBName)+".sql")

	var err error
	switch {
	case rec.Kind == engine.KindCMS && b.CMS != nil:
		err = b.CMS.Export(ctx, rec.WebRoot, dumpPath)
	case rec.Kind == engine.KindGeneric && b.DB != nil && rec.Credentials != nil && rec.Credentials.Complete():
		err = b.DB.Dump(ctx, *rec.Credentials, dumpPath)
	case rec.Kind == engine.KindGeneric && (rec.Credentials == nil || !rec.Credentials.Complete()):
		return "", serrors.With(serrors.ErrInvalidInput, "database %s is accepted but its credentials are incomplete", rec.DBName)
	default:
		return "", serrors.With(serrors.ErrUnavailable, "no exporter configured for %s database %s", rec.Kind, rec.DBName)
	}
	if err != nil {
		_ = os.Remove(dumpPath)
		return "", fmt.Errorf("database export failed: %w", err)
	}

	info, err := os.Stat(dumpPath)
	if err != nil || info.Size() == 0 {
		_ = os.Remove(dumpPath)
		return "", serrors.With(serrors.ErrNotFound, "database export of %s is empty", rec.DBName)
	}
	return dumpPath, nil
}
