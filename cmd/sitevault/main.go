package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vulnverified/sitevault/internal/archive"
	"github.com/vulnverified/sitevault/internal/backup"
	"github.com/vulnverified/sitevault/internal/cloudways"
	"github.com/vulnverified/sitevault/internal/config"
	"github.com/vulnverified/sitevault/internal/discovery"
	"github.com/vulnverified/sitevault/internal/disk"
	"github.com/vulnverified/sitevault/internal/engine"
	"github.com/vulnverified/sitevault/internal/mysqldb"
	"github.com/vulnverified/sitevault/internal/output"
	"github.com/vulnverified/sitevault/internal/upload"
	"github.com/vulnverified/sitevault/internal/wpcli"
	"github.com/vulnverified/sitevault/pkg/logger"
	"github.com/vulnverified/sitevault/pkg/serrors"
)

// Set via ldflags at build time.
var version = "dev"

type options struct {
	configPath      string
	appsRoot        string
	webRoot         string
	storageMount    string
	outputDir       string
	baseURL         string
	xlsxPath        string
	jsonOutput      bool
	noColor         bool
	silent          bool
	verbose         bool
	dryRun          bool
	resolve         bool
	skipPermissions bool
	upload          bool
}

func main() {
	output.Version = version

	var opts options

	rootCmd := &cobra.Command{
		Use:   "sitevault [domain...]",
		Short: "Back up hosted applications by domain",
		Long: "Find the hosted applications serving the given domains, size their files and databases, " +
			"then archive each one and print download URLs. Domains are read from stdin when none are given.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, ok := os.LookupEnv("NO_COLOR"); ok {
				opts.noColor = true
			}

			text, err := readDomains(args, cmd.InOrStdin())
			if err != nil {
				return err
			}
			targets, err := discovery.NormalizeDomains(text)
			if err != nil {
				return err
			}

			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg, &opts)

			logger.Setup(cfg.Environment, opts.verbose)
			defer logger.Sync()

			// Set up context with signal handling for clean Ctrl+C.
			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
			defer cancel()

			runID := newRunID(time.Now())
			ctx = logger.WithLogger(ctx, logger.Get(ctx).Named("sitevault").With(zap.String("run", runID)))

			showProgress := !opts.jsonOutput && !opts.silent
			progress := output.NewProgress(os.Stderr, opts.verbose, !showProgress, opts.noColor)

			stages, err := buildStages(cfg, &opts, progress)
			if err != nil {
				return err
			}

			if showProgress {
				output.WriteHeader(os.Stderr, opts.noColor)
				progress.Section("Plan")
			}

			ecfg := engine.Config{
				RunID:   runID,
				Targets: targets,
				BaseURL: cfg.BaseURL,
			}

			result, planErr := engine.Plan(ctx, ecfg, stages, progress)
			if result == nil {
				return planErr
			}

			planOnly := planErr != nil || opts.dryRun || len(result.Records) == 0
			if err := report(result, &opts, planOnly); err != nil {
				return err
			}
			if planErr != nil {
				return planErr
			}

			if planOnly {
				if showProgress {
					progress.Complete()
				}
				return nil
			}

			ecfg.OutputDir = cfg.OutputDir
			if ecfg.OutputDir == "" {
				ecfg.OutputDir = runDir(result.Storage.Path, runID)
			}
			result.OutputDir = ecfg.OutputDir

			if showProgress {
				progress.Section("Backup")
			}
			if err := engine.Execute(ctx, ecfg, stages, result, progress); err != nil {
				logger.Error(ctx, "backup phase aborted",
					zap.Int("archived", len(result.URLs())),
					zap.Int("planned", len(result.Records)),
					zap.Error(err))
				return err
			}

			urlFile, err := output.WriteURLFile(ecfg.OutputDir, result.URLs())
			if err != nil {
				progress.Warn(err.Error())
			} else {
				logger.Info(ctx, "url list written", zap.String("path", urlFile))
			}

			if opts.jsonOutput {
				return output.WriteJSON(os.Stdout, result)
			}
			output.WriteBackupSummary(os.Stdout, result, opts.noColor)
			if showProgress {
				progress.Complete()
			}

			if result.Summary.Failed > 0 && result.Summary.Archived == 0 {
				return fmt.Errorf("no application could be backed up")
			}
			return nil
		},
	}

	f := rootCmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML config file (environment variables take precedence)")
	f.StringVar(&opts.appsRoot, "apps-root", "", "Directory holding one directory per application")
	f.StringVar(&opts.webRoot, "web-root", "", "Web-root subdirectory inside each application")
	f.StringVar(&opts.storageMount, "storage-mount", "", "Preferred backup volume (falls back to /)")
	f.StringVar(&opts.outputDir, "output-dir", "", "Write archives here instead of <storage>/sitevault/<run>")
	f.StringVar(&opts.baseURL, "base-url", "", "Public URL the output directory is served under")
	f.StringVar(&opts.xlsxPath, "xlsx", "", "Also write the plan to an xlsx workbook")
	f.BoolVar(&opts.jsonOutput, "json", false, "Output structured JSON to stdout")
	f.BoolVar(&opts.noColor, "no-color", false, "Disable terminal colors")
	f.BoolVar(&opts.silent, "silent", false, "Results only, no progress")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose progress and debug logging")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Plan and report only, change nothing")
	f.BoolVar(&opts.resolve, "resolve", false, "Annotate matched domains with their A records")
	f.BoolVar(&opts.skipPermissions, "skip-permissions", false, "Do not reset file permissions through the provider API")
	f.BoolVar(&opts.upload, "upload", false, "Upload archives to the configured S3 bucket")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("sitevault {{.Version}}\n")

	if err := rootCmd.Execute(); err != nil {
		if h := hint(err); h != "" {
			fmt.Fprintln(os.Stderr, h)
		}
		os.Exit(1)
	}
}

// hint suggests a next step for the error kinds an operator can act on.
func hint(err error) string {
	switch serrors.KindOf(err) {
	case serrors.ErrInvalidInput:
		return "Run sitevault --help for the expected domains, flags and settings"
	case serrors.ErrInsufficientStorage:
		return "Free space on the storage volume, or choose another one with --storage-mount or --output-dir"
	}
	return ""
}

// readDomains joins the positional arguments, or reads pasted text from in
// until EOF when there are none.
func readDomains(args []string, in io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := in.(*os.File); ok {
		if fi, err := f.Stat(); err == nil && fi.Mode()&os.ModeCharDevice != 0 {
			fmt.Fprintln(os.Stderr, "Paste domains, then press Ctrl+D:")
		}
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("reading domains: %w", err)
	}
	return string(data), nil
}

// applyFlags overrides config values with the flags the operator set.
func applyFlags(cmd *cobra.Command, cfg *config.Config, opts *options) {
	set := func(name string, dst *string, val string) {
		if cmd.Flags().Changed(name) {
			*dst = val
		}
	}
	set("apps-root", &cfg.AppsRoot, opts.appsRoot)
	set("web-root", &cfg.WebRoot, opts.webRoot)
	set("storage-mount", &cfg.StorageMount, opts.storageMount)
	set("output-dir", &cfg.OutputDir, opts.outputDir)
	set("base-url", &cfg.BaseURL, opts.baseURL)
}

func buildStages(cfg *config.Config, opts *options, progress *output.Progress) (engine.Stages, error) {
	wp := wpcli.New(cfg.WPCLI)

	stages := engine.Stages{
		Scanner: &discovery.Scanner{
			AppsRoot: cfg.AppsRoot,
			WebRoot:  cfg.WebRoot,
			CMS:      wp,
			DB:       mysqldb.Sizer{},
			Dirs:     disk.NewDirSizer(),
			Progress: progress,
		},
		Storage: storageProber(cfg),
		Backup: &backup.Backuper{
			CMS:      wp,
			DB:       mysqldb.NewDumper(),
			Archiver: archive.NewZipper(),
		},
	}

	if opts.resolve {
		stages.Resolver = discovery.NewResolver(cfg.Resolver)
	}

	if !opts.skipPermissions {
		if cfg.HasCloudways() {
			stages.Permissions = cloudways.New(cfg.Cloudways.APIURL, cfg.Cloudways.Email, cfg.Cloudways.APIKey)
		} else if !opts.dryRun {
			progress.Warn("CLOUDWAYS_EMAIL/CLOUDWAYS_API_KEY not set, permissions will not be reset")
		}
	}

	if opts.upload {
		if !cfg.HasS3() {
			return stages, serrors.With(serrors.ErrInvalidInput, "--upload needs SITEVAULT_S3_ENDPOINT, _BUCKET, _ACCESS_KEY and _SECRET_KEY")
		}
		pub, err := upload.New(upload.Options{
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			Prefix:    cfg.S3.Prefix,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
		})
		if err != nil {
			return stages, err
		}
		stages.Publisher = pub
	}

	return stages, nil
}

// storageProber gates on the volume the archives will land on.
func storageProber(cfg *config.Config) *disk.StorageProber {
	if cfg.OutputDir != "" {
		return disk.NewOutputDirProber(cfg.OutputDir)
	}
	return disk.NewStorageProber(cfg.StorageMount)
}

// report renders the plan before anything is changed. With --json the
// plan is only printed when no backup phase follows it.
func report(result *engine.RunResult, opts *options, planOnly bool) error {
	if opts.xlsxPath != "" {
		if err := output.WriteWorkbook(opts.xlsxPath, result); err != nil {
			return err
		}
	}

	if opts.jsonOutput {
		if planOnly {
			return output.WriteJSON(os.Stdout, result)
		}
		return nil
	}

	output.WriteTable(os.Stdout, result, opts.noColor)
	output.WritePlanSummary(os.Stdout, result, opts.noColor)
	return nil
}

// newRunID is <YYYYMMDD-HHMMSS>-<first 8 hex of a uuid>.
func newRunID(now time.Time) string {
	return now.Format("20060102-150405") + "-" + uuid.NewString()[:8]
}

// runDir is the per-run archive directory under the storage target.
func runDir(storage, runID string) string {
	return filepath.Join(storage, "sitevault", runID)
}
