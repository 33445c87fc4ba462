// Package engine orchestrates the sitevault plan and backup pipeline.
package engine

import (
	"context"
	"sort"
	"time"
)

// Kind classifies how an application's database is discovered.
type Kind string

const (
	// KindCMS is an application managed by the CMS CLI.
	KindCMS Kind = "cms"
	// KindGeneric is any other application; credentials are inferred from source files.
	KindGeneric Kind = "generic"
)

// Source records which credential source contributed first.
type Source string

const (
	SourceNone    Source = "none"
	SourcePrimary Source = "primary"
	SourceScan    Source = "scan"
	SourceEnv     Source = "env"
)

// TargetSet is the operator's normalized domain set.
type TargetSet map[string]struct{}

// NewTargetSet builds a set from already-normalized domains.
func NewTargetSet(domains ...string) TargetSet {
	s := make(TargetSet, len(domains))
	for _, d := range domains {
		s[d] = struct{}{}
	}
	return s
}

// Has reports whether domain is a target.
func (s TargetSet) Has(domain string) bool {
	_, ok := s[domain]
	return ok
}

// List returns the domains sorted, for display.
func (s TargetSet) List() []string {
	out := make([]string, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// CredentialSet is a set of database credentials inferred for one application.
// The password is never serialized.
type CredentialSet struct {
	Name       string `json:"name"`
	User       string `json:"user"`
	Password   string `json:"-"`
	Host       string `json:"host"`
	Source     Source `json:"source"`
	SourceFile string `json:"source_file,omitempty"`
}

// Complete reports whether name, user and password are all known.
func (c CredentialSet) Complete() bool {
	return c.Name != "" && c.User != "" && c.Password != ""
}

// Accepted applies the trust rule: the database name must equal the
// application directory name, unless the credentials came from the
// environment file.
func (c CredentialSet) Accepted(appDir string) bool {
	if c.Source == SourceEnv {
		return true
	}
	return c.Name != "" && c.Name == appDir
}

// ApplicationRecord is the scan result for one matched application.
type ApplicationRecord struct {
	App        string `json:"app"`
	Path       string `json:"path"`
	WebRoot    string `json:"web_root"`
	Domain     string `json:"domain"`
	Kind       Kind   `json:"kind"`
	DBName     string `json:"db_name,omitempty"`
	DBAccepted bool   `json:"db_accepted"`
	WebBytes   int64  `json:"web_bytes"`
	DBBytes    int64  `json:"db_bytes"`
	ServerID   string `json:"server_id,omitempty"`
	AppID      string `json:"app_id,omitempty"`

	// Credentials is only populated for generic applications.
	Credentials *CredentialSet `json:"credentials,omitempty"`
	IPs         []string       `json:"ips,omitempty"`
}

// TotalBytes is the backup footprint of the application.
func (r ApplicationRecord) TotalBytes() int64 {
	return r.WebBytes + r.DBBytes
}

// HasIDs reports whether both provider identifiers are known.
func (r ApplicationRecord) HasIDs() bool {
	return r.ServerID != "" && r.AppID != ""
}

// Skip records an application left out of the plan and why.
type Skip struct {
	App    string `json:"app"`
	Reason string `json:"reason"`
}

// StorageTarget is the filesystem the backups are written to.
type StorageTarget struct {
	Path           string `json:"path"`
	Preferred      bool   `json:"preferred"`
	AvailableBytes uint64 `json:"available_bytes"`
}

// Artifact is the outcome of backing up one application.
type Artifact struct {
	App              string `json:"app"`
	Domain           string `json:"domain"`
	ArchivePath      string `json:"archive_path,omitempty"`
	URL              string `json:"url,omitempty"`
	Bytes            int64  `json:"bytes,omitempty"`
	DBDumped         bool   `json:"db_dumped"`
	PermissionsReset bool   `json:"permissions_reset"`
	Error            string `json:"error,omitempty"`
}

// Summary provides aggregate figures for a run.
type Summary struct {
	Apps           int    `json:"apps"`
	CMSApps        int    `json:"cms_apps"`
	GenericApps    int    `json:"generic_apps"`
	WebBytes       int64  `json:"web_bytes"`
	DBBytes        int64  `json:"db_bytes"`
	TotalBytes     int64  `json:"total_bytes"`
	AvailableBytes uint64 `json:"available_bytes"`
	Archived       int    `json:"archived"`
	Failed         int    `json:"failed"`
}

// RunResult accumulates everything a run produces. Stages only append to it.
type RunResult struct {
	ID           string              `json:"id"`
	Targets      []string            `json:"targets"`
	StartedAt    time.Time           `json:"started_at"`
	CompletedAt  time.Time           `json:"completed_at"`
	DurationSecs float64             `json:"duration_secs"`
	OutputDir    string              `json:"output_dir,omitempty"`
	Storage      StorageTarget       `json:"storage"`
	Records      []ApplicationRecord `json:"records"`
	Skips        []Skip              `json:"skips,omitempty"`
	Artifacts    []Artifact          `json:"artifacts,omitempty"`
	Warnings     []string            `json:"warnings,omitempty"`
	Summary      Summary             `json:"summary"`
}

// URLs returns the download locations of every successful archive.
func (r *RunResult) URLs() []string {
	var urls []string
	for _, a := range r.Artifacts {
		if a.Error == "" && a.URL != "" {
			urls = append(urls, a.URL)
		}
	}
	return urls
}

// AppScanner discovers and sizes the applications matching the target set.
// Per-application problems become skips; only an unreadable applications
// root is an error.
type AppScanner interface {
	Scan(ctx context.Context, targets TargetSet) ([]ApplicationRecord, []Skip, error)
}

// DomainResolver looks up the addresses a domain currently points to.
type DomainResolver interface {
	Resolve(ctx context.Context, domain string) ([]string, error)
}

// StorageProber selects the backup storage target and reports its free space.
type StorageProber interface {
	Probe(ctx context.Context) (StorageTarget, error)
}

// PermissionResetter asks the hosting provider to reset file permissions.
type PermissionResetter interface {
	ResetPermissions(ctx context.Context, serverID, appID string) error
}

// AppBackuper dumps and archives one application into dir.
type AppBackuper interface {
	Backup(ctx context.Context, rec ApplicationRecord, dir string) (Artifact, error)
}

// ArtifactPublisher makes an archive downloadable and returns its URL.
type ArtifactPublisher interface {
	Publish(ctx context.Context, runID string, artifact Artifact) (string, error)
}
