package engine

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	units "github.com/docker/go-units"

	"github.com/vulnverified/sitevault/pkg/serrors"
)

// ErrNoTargets is returned when the operator's input holds no valid domain.
var ErrNoTargets = serrors.With(serrors.ErrInvalidInput, "no valid domains provided")

// Config holds the runtime configuration for a sitevault run.
type Config struct {
	RunID   string
	Targets TargetSet
	// OutputDir is the run directory archives are written to.
	OutputDir string
	// BaseURL, when set, prefixes archive paths relative to OutputDir.
	BaseURL string
}

// Stages holds the injectable stage implementations. Resolver, Permissions
// and Publisher are optional.
type Stages struct {
	Scanner     AppScanner
	Resolver    DomainResolver
	Storage     StorageProber
	Permissions PermissionResetter
	Backup      AppBackuper
	Publisher   ArtifactPublisher
}

// ProgressReporter is called by the engine to report stage progress.
type ProgressReporter interface {
	Stage(num, total int, msg string)
	Detail(msg string)
	Warn(msg string)
}

const planStages = 3

// Plan scans the applications root, annotates and sizes the matched
// applications, and gates on available storage. Nothing is mutated.
//
// On insufficient storage the populated result is returned together with an
// ErrInsufficientStorage error so the caller can still render the plan.
func Plan(ctx context.Context, cfg Config, stages Stages, progress ProgressReporter) (*RunResult, error) {
	if len(cfg.Targets) == 0 {
		return nil, ErrNoTargets
	}

	result := &RunResult{
		ID:        cfg.RunID,
		Targets:   cfg.Targets.List(),
		StartedAt: time.Now(),
		OutputDir: cfg.OutputDir,
	}

	// Stage 1: Application discovery.
	progress.Stage(1, planStages, fmt.Sprintf("Scanning applications for %d domains...", len(cfg.Targets)))
	records, skips, err := stages.Scanner.Scan(ctx, cfg.Targets)
	if err != nil {
		return nil, fmt.Errorf("application scan failed: %w", err)
	}
	result.Records = records
	result.Skips = skips
	progress.Detail(fmt.Sprintf("Matched %d applications, skipped %d", len(records), len(skips)))

	if w := unmatchedWarning(cfg.Targets, records); w != "" {
		result.Warnings = append(result.Warnings, w)
	}

	// Stage 2: DNS annotation.
	if stages.Resolver != nil && len(records) > 0 {
		progress.Stage(2, planStages, "Resolving matched domains...")
		resolved := 0
		for i := range result.Records {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			ips, err := stages.Resolver.Resolve(ctx, result.Records[i].Domain)
			if err != nil {
				progress.Warn(fmt.Sprintf("DNS lookup for %s failed: %s", result.Records[i].Domain, err))
				continue
			}
			result.Records[i].IPs = ips
			if len(ips) > 0 {
				resolved++
			}
		}
		progress.Detail(fmt.Sprintf("%d of %d domains resolved", resolved, len(records)))
	}

	// Stage 3: Storage sizing.
	progress.Stage(3, planStages, "Checking backup storage...")
	storage, err := stages.Storage.Probe(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage probe failed: %w", err)
	}
	result.Storage = storage
	result.Summary = buildSummary(result)
	progress.Detail(fmt.Sprintf("Need %s, %s available on %s",
		units.BytesSize(float64(result.Summary.TotalBytes)),
		units.BytesSize(float64(storage.AvailableBytes)),
		storage.Path))

	finish(result)

	if need := result.Summary.TotalBytes; need > 0 && uint64(need) > storage.AvailableBytes {
		short := uint64(need) - storage.AvailableBytes
		return result, serrors.With(serrors.ErrInsufficientStorage,
			"backup needs %s but only %s is available on %s (short by %s)",
			units.BytesSize(float64(need)),
			units.BytesSize(float64(storage.AvailableBytes)),
			storage.Path,
			units.BytesSize(float64(short)))
	}

	return result, nil
}

// Execute backs up every planned application sequentially. Per-application
// failures are recorded on the artifact and never abort the run.
func Execute(ctx context.Context, cfg Config, stages Stages, result *RunResult, progress ProgressReporter) error {
	total := len(result.Records)
	for i, rec := range result.Records {
		if err := ctx.Err(); err != nil {
			return err
		}

		progress.Stage(i+1, total, fmt.Sprintf("Backing up %s (%s)...", rec.App, rec.Domain))
		art := Artifact{App: rec.App, Domain: rec.Domain}

		if stages.Permissions != nil {
			if rec.HasIDs() {
				if err := stages.Permissions.ResetPermissions(ctx, rec.ServerID, rec.AppID); err != nil {
					progress.Warn(fmt.Sprintf("Permission reset for %s failed: %s", rec.App, err))
					result.Warnings = append(result.Warnings, fmt.Sprintf("%s: permission reset failed: %s", rec.App, err))
				} else {
					art.PermissionsReset = true
					progress.Detail("Permissions reset")
				}
			} else {
				progress.Detail("No server/app identifiers, skipping permission reset")
			}
		}

		out, err := stages.Backup.Backup(ctx, rec, cfg.OutputDir)
		if err != nil {
			progress.Warn(fmt.Sprintf("Backup of %s failed: %s", rec.App, err))
			art.Error = err.Error()
			result.Artifacts = append(result.Artifacts, art)
			result.Skips = append(result.Skips, Skip{App: rec.App, Reason: err.Error()})
			continue
		}
		art.ArchivePath = out.ArchivePath
		art.Bytes = out.Bytes
		art.DBDumped = out.DBDumped
		art.URL = archiveURL(cfg.BaseURL, cfg.OutputDir, out.ArchivePath)

		if stages.Publisher != nil {
			published, err := stages.Publisher.Publish(ctx, cfg.RunID, art)
			if err != nil {
				progress.Warn(fmt.Sprintf("Upload of %s failed, keeping local archive: %s", rec.App, err))
				result.Warnings = append(result.Warnings, fmt.Sprintf("%s: upload failed: %s", rec.App, err))
			} else {
				art.URL = published
			}
		}

		progress.Detail(fmt.Sprintf("%s (%s)", art.URL, units.BytesSize(float64(art.Bytes))))
		result.Artifacts = append(result.Artifacts, art)
	}

	finish(result)
	result.Summary = buildSummary(result)

	return nil
}

// archiveURL joins base and the archive path relative to dir. Without a base
// URL the archive path itself is the location.
func archiveURL(base, dir, archive string) string {
	if base == "" {
		return archive
	}
	rel, err := filepath.Rel(dir, archive)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(archive)
	}
	u, err := url.JoinPath(base, filepath.ToSlash(rel))
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + filepath.ToSlash(rel)
	}
	return u
}

func unmatchedWarning(targets TargetSet, records []ApplicationRecord) string {
	matched := make(map[string]bool, len(records))
	for _, r := range records {
		matched[r.Domain] = true
	}
	var missing []string
	for _, d := range targets.List() {
		if !matched[d] {
			missing = append(missing, d)
		}
	}
	if len(missing) == 0 {
		return ""
	}
	return fmt.Sprintf("no application found for: %s", strings.Join(missing, ", "))
}

func finish(result *RunResult) {
	result.CompletedAt = time.Now()
	result.DurationSecs = result.CompletedAt.Sub(result.StartedAt).Seconds()
}

func buildSummary(result *RunResult) Summary {
	s := Summary{
		Apps:           len(result.Records),
		AvailableBytes: result.Storage.AvailableBytes,
	}
	for _, r := range result.Records {
		switch r.Kind {
		case KindCMS:
			s.CMSApps++
		default:
			s.GenericApps++
		}
		s.WebBytes += r.WebBytes
		s.DBBytes += r.DBBytes
		s.TotalBytes += r.TotalBytes()
	}
	for _, a := range result.Artifacts {
		if a.Error == "" {
			s.Archived++
		} else {
			s.Failed++
		}
	}
	return s
}
