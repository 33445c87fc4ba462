package backup_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vulnverified/sitevault/internal/backup"
	mockbackup "github.com/vulnverified/sitevault/internal/backup/mock"
	"github.com/vulnverified/sitevault/internal/engine"
	"github.com/vulnverified/sitevault/pkg/serrors"
)

func writeTo(content string) func(context.Context, string, string) error {
	return func(_ context.Context, _ string, dest string) error {
		return os.WriteFile(dest, []byte(content), 0o600)
	}
}

func fakeZip(ctx context.Context, archivePath, baseDir, name string) error {
	return os.WriteFile(archivePath, []byte("PK"), 0o600)
}

func TestBackup_CMS(t *testing.T) {
	dir := t.TempDir()
	rec := engine.ApplicationRecord{
		App: "abcdefgh", Domain: "shop.example.com", Kind: engine.KindCMS,
		WebRoot: "/apps/abcdefgh/public_html", DBName: "abcdefgh", DBAccepted: true,
	}

	ctrl := gomock.NewController(t)
	cms := mockbackup.NewMockExporter(ctrl)
	arch := mockbackup.NewMockArchiver(ctrl)

	var dumped string
	cms.EXPECT().Export(gomock.Any(), rec.WebRoot, gomock.Any()).DoAndReturn(
		func(ctx context.Context, webRoot, dest string) error {
			dumped = dest
			return os.WriteFile(dest, []byte("-- dump"), 0o600)
		})
	arch.EXPECT().AddTree(gomock.Any(), filepath.Join(dir, "shop.example.com_abcdefgh.zip"), "/apps/abcdefgh", "public_html").DoAndReturn(fakeZip)
	arch.EXPECT().AddFile(gomock.Any(), filepath.Join(dir, "shop.example.com_abcdefgh.zip"), gomock.Any()).Return(nil)

	b := &backup.Backuper{CMS: cms, Archiver: arch}
	art, err := b.Backup(context.Background(), rec, dir)
	require.NoError(t, err)
	require.True(t, art.DBDumped)
	require.Equal(t, filepath.Join(dir, "shop.example.com_abcdefgh.zip"), art.ArchivePath)
	require.Equal(t, int64(2), art.Bytes)

	// The dump is removed once it is inside the archive.
	_, statErr := os.Stat(dumped)
	require.True(t, os.IsNotExist(statErr))
}

func TestBackup_GenericAccepted(t *testing.T) {
	dir := t.TempDir()
	creds := &engine.CredentialSet{Name: "shop42", User: "u", Password: "p", Host: "localhost", Source: engine.SourceScan}
	rec := engine.ApplicationRecord{
		App: "shop42", Domain: "example.org", Kind: engine.KindGeneric,
		WebRoot: "/apps/shop42/public_html", DBName: "shop42", DBAccepted: true, Credentials: creds,
	}

	ctrl := gomock.NewController(t)
	db := mockbackup.NewMockDumper(ctrl)
	arch := mockbackup.NewMockArchiver(ctrl)

	db.EXPECT().Dump(gomock.Any(), *creds, gomock.Any()).DoAndReturn(
		func(ctx context.Context, c engine.CredentialSet, dest string) error {
			return os.WriteFile(dest, []byte("-- dump"), 0o600)
		})
	arch.EXPECT().AddTree(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(fakeZip)
	arch.EXPECT().AddFile(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

	art, err := (&backup.Backuper{DB: db, Archiver: arch}).Backup(context.Background(), rec, dir)
	require.NoError(t, err)
	require.True(t, art.DBDumped)
}

func TestBackup_RejectedCredentialsFilesOnly(t *testing.T) {
	dir := t.TempDir()
	rec := engine.ApplicationRecord{
		App: "shop42", Domain: "example.org", Kind: engine.KindGeneric,
		WebRoot: "/apps/shop42/public_html", DBName: "prod_shared", DBAccepted: false,
		Credentials: &engine.CredentialSet{Name: "prod_shared", User: "u", Password: "p"},
	}

	ctrl := gomock.NewController(t)
	db := mockbackup.NewMockDumper(ctrl)
	arch := mockbackup.NewMockArchiver(ctrl)
	arch.EXPECT().AddTree(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(fakeZip)

	art, err := (&backup.Backuper{DB: db, Archiver: arch}).Backup(context.Background(), rec, dir)
	require.NoError(t, err)
	require.False(t, art.DBDumped)
}

func TestBackup_AcceptedIncompleteCredentialsFails(t *testing.T) {
	dir := t.TempDir()
	rec := engine.ApplicationRecord{
		App: "shop42", Domain: "example.org", Kind: engine.KindGeneric,
		WebRoot: "/apps/shop42/public_html", DBName: "shop42", DBAccepted: true,
		Credentials: &engine.CredentialSet{Name: "shop42", User: "shop42", Host: "localhost", Source: engine.SourcePrimary},
	}

	ctrl := gomock.NewController(t)
	db := mockbackup.NewMockDumper(ctrl)
	arch := mockbackup.NewMockArchiver(ctrl)
	// Neither the dumper nor the archiver runs.

	art, err := (&backup.Backuper{DB: db, Archiver: arch}).Backup(context.Background(), rec, dir)
	require.ErrorIs(t, err, serrors.ErrInvalidInput)
	require.ErrorContains(t, err, "credentials are incomplete")
	require.False(t, art.DBDumped)
	require.Empty(t, art.ArchivePath)

	_, statErr := os.Stat(filepath.Join(dir, "example.org_shop42.zip"))
	require.True(t, os.IsNotExist(statErr))
}

func TestBackup_EmptyExportFails(t *testing.T) {
	dir := t.TempDir()
	rec := engine.ApplicationRecord{
		App: "abcdefgh", Domain: "shop.example.com", Kind: engine.KindCMS,
		WebRoot: "/apps/abcdefgh/public_html", DBName: "abcdefgh", DBAccepted: true,
	}

	ctrl := gomock.NewController(t)
	cms := mockbackup.NewMockExporter(ctrl)
	cms.EXPECT().Export(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(writeTo(""))

	_, err := (&backup.Backuper{CMS: cms, Archiver: mockbackup.NewMockArchiver(ctrl)}).Backup(context.Background(), rec, dir)
	require.ErrorContains(t, err, "is empty")
	require.ErrorIs(t, err, serrors.ErrNotFound)

	entries, _ := os.ReadDir(dir)
	require.Empty(t, entries)
}

func TestBackup_ArchiveFailure(t *testing.T) {
	dir := t.TempDir()
	rec := engine.ApplicationRecord{App: "a", Domain: "example.org", Kind: engine.KindGeneric, WebRoot: "/apps/a/public_html"}

	ctrl := gomock.NewController(t)
	arch := mockbackup.NewMockArchiver(ctrl)
	arch.EXPECT().AddTree(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("zip: not found"))

	_, err := (&backup.Backuper{Archiver: arch}).Backup(context.Background(), rec, dir)
	require.ErrorContains(t, err, "zip: not found")
}

func TestArchiveName(t *testing.T) {
	rec := engine.ApplicationRecord{App: "ab/cd", Domain: "shop.example.com"}
	require.Equal(t, "shop.example.com_ab_cd.zip", backup.ArchiveName(rec))
}
