package main

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/vulnverified/sitevault/internal/config"
	"github.com/vulnverified/sitevault/internal/engine"
	"github.com/vulnverified/sitevault/pkg/serrors"
)

func TestReadDomains_Args(t *testing.T) {
	text, err := readDomains([]string{"a.com", "b.org"}, strings.NewReader("ignored.net"))
	require.NoError(t, err)
	require.Equal(t, "a.com b.org", text)
}

func TestReadDomains_Stdin(t *testing.T) {
	text, err := readDomains(nil, strings.NewReader("https://a.com/\nb.org, c.net\n"))
	require.NoError(t, err)
	require.Equal(t, "https://a.com/\nb.org, c.net\n", text)
}

func TestNewRunID(t *testing.T) {
	id := newRunID(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC))
	require.Regexp(t, regexp.MustCompile(`^20260304-050607-[0-9a-f]{8}$`), id)
}

func TestRunDir(t *testing.T) {
	require.Equal(t, "/mnt/data/sitevault/20260304-050607-abcd1234", runDir("/mnt/data", "20260304-050607-abcd1234"))
}

func TestApplyFlags_OnlyChanged(t *testing.T) {
	var opts options
	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&opts.appsRoot, "apps-root", "", "")
	cmd.Flags().StringVar(&opts.webRoot, "web-root", "", "")
	cmd.Flags().StringVar(&opts.storageMount, "storage-mount", "", "")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "", "")
	cmd.Flags().StringVar(&opts.baseURL, "base-url", "", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--apps-root=/srv/apps", "--base-url="}))

	cfg := &config.Config{AppsRoot: "/home/master/applications", WebRoot: "public_html", BaseURL: "https://x"}
	applyFlags(cmd, cfg, &opts)

	require.Equal(t, "/srv/apps", cfg.AppsRoot)
	require.Equal(t, "public_html", cfg.WebRoot)
	require.Empty(t, cfg.BaseURL)
}

func TestStorageProber_OutputDirWins(t *testing.T) {
	cfg := &config.Config{StorageMount: "/mnt/data", OutputDir: "/srv/backups/run1"}
	p := storageProber(cfg)
	require.Equal(t, "/srv/backups/run1", p.OutputDir)

	cfg.OutputDir = ""
	p = storageProber(cfg)
	require.Empty(t, p.OutputDir)
	require.Equal(t, "/mnt/data", p.Preferred)
}

func TestHint(t *testing.T) {
	require.Contains(t, hint(engine.ErrNoTargets), "--help")
	require.Contains(t, hint(fmt.Errorf("plan: %w", serrors.With(serrors.ErrInsufficientStorage, "short"))), "--output-dir")
	require.Empty(t, hint(errors.New("boom")))
}
