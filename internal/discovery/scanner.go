package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/vulnverified/sitevault/internal/engine"
	"github.com/vulnverified/sitevault/pkg/logger"
)

const (
	vhostFile = "conf/server.nginx"
	logsDir   = "logs"

	// cmsSizeQuery sums data and index length of the CMS's own schema.
	cmsSizeQuery = "SELECT COALESCE(SUM(data_length + index_length), 0) FROM information_schema.TABLES WHERE table_schema = DATABASE()"
)

// Scanner implements engine.AppScanner over an applications root holding one
// directory per hosted application.
type Scanner struct {
	AppsRoot string
	WebRoot  string

	CMS  CMS
	DB   DBSizer
	Dirs DirSizer

	Progress engine.ProgressReporter
}

// Scan visits every application directory in name order, one at a time, and
// builds a record for each one whose domain is in targets.
func (s *Scanner) Scan(ctx context.Context, targets engine.TargetSet) ([]engine.ApplicationRecord, []engine.Skip, error) {
	entries, err := os.ReadDir(s.AppsRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("reading applications root %s: %w", s.AppsRoot, err)
	}

	var (
		records []engine.ApplicationRecord
		skips   []engine.Skip
	)
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		appPath := filepath.Join(s.AppsRoot, entry.Name())
		if info, err := os.Stat(appPath); err != nil || !info.IsDir() {
			continue
		}

		rec, skip := s.scanApp(ctx, entry.Name(), appPath, targets)
		switch {
		case skip != nil:
			skips = append(skips, *skip)
		case rec != nil:
			records = append(records, *rec)
		}
	}

	return records, skips, nil
}

// scanApp returns a record, a skip, or neither when the application has no
// resolvable domain or does not belong to the target set.
func (s *Scanner) scanApp(ctx context.Context, app, appPath string, targets engine.TargetSet) (*engine.ApplicationRecord, *engine.Skip) {
	ctx = logger.WithFields(ctx, zap.String("app", app))

	webRoot := filepath.Join(appPath, s.WebRoot)
	if info, err := os.Stat(webRoot); err != nil || !info.IsDir() {
		logger.Debug(ctx, "skipping application without web root", zap.String("web_root", webRoot))
		return nil, &engine.Skip{App: app, Reason: "no " + s.WebRoot + " directory"}
	}
	vhost := filepath.Join(appPath, vhostFile)
	if _, err := os.Stat(vhost); err != nil {
		logger.Debug(ctx, "skipping application without vhost config", zap.String("vhost", vhost))
		return nil, &engine.Skip{App: app, Reason: "no " + vhostFile}
	}

	name, err := ServerName(vhost)
	if err != nil {
		logger.Debug(ctx, "no domain in vhost config", zap.Error(err))
		return nil, nil
	}
	domain := CanonicalDomain(name)
	if !targets.Has(domain) {
		logger.Debug(ctx, "domain not targeted", zap.String("domain", domain))
		return nil, nil
	}
	ctx = logger.WithFields(ctx, zap.String("domain", domain))

	rec := &engine.ApplicationRecord{
		App:     app,
		Path:    appPath,
		WebRoot: webRoot,
		Domain:  domain,
	}

	if s.CMS != nil && s.CMS.IsInstalled(ctx, webRoot) {
		rec.Kind = engine.KindCMS
		rec.DBName = s.CMS.ConfigValue(ctx, webRoot, "DB_NAME")
		rec.DBAccepted = rec.DBName != ""
		rec.DBBytes = s.CMS.QueryScalar(ctx, webRoot, cmsSizeQuery)
	} else {
		rec.Kind = engine.KindGeneric
		creds := InferCredentials(webRoot)
		rec.Credentials = &creds
		rec.DBName = creds.Name
		rec.DBAccepted = creds.Accepted(app)

		logger.Debug(ctx, "inferred database credentials",
			zap.String("db_name", creds.Name),
			zap.String("db_host", creds.Host),
			zap.String("source", string(creds.Source)),
			zap.String("source_file", creds.SourceFile),
			zap.Bool("accepted", rec.DBAccepted))

		switch {
		case rec.DBAccepted && !creds.Complete():
			logger.Warn(ctx, "accepted database credentials are incomplete", zap.String("db_name", creds.Name))
			if s.Progress != nil {
				s.Progress.Warn(fmt.Sprintf("%s: database %q is missing a user or password, its backup will fail", app, creds.Name))
			}
		case rec.DBAccepted && s.DB != nil:
			rec.DBBytes = s.DB.SchemaSize(ctx, creds)
		case creds.Name != "" && !rec.DBAccepted && s.Progress != nil:
			s.Progress.Warn(fmt.Sprintf("%s: database %q does not match the application name, not backing it up", app, creds.Name))
		}
	}

	if s.Dirs != nil {
		rec.WebBytes = s.Dirs.Size(ctx, webRoot)
	}

	if serverID, appID, ok := ProviderIDs(filepath.Join(appPath, logsDir)); ok {
		rec.ServerID, rec.AppID = serverID, appID
	} else {
		logger.Debug(ctx, "no provider identifiers in access logs")
	}

	if s.Progress != nil {
		s.Progress.Detail(fmt.Sprintf("%s -> %s (%s)", app, domain, rec.Kind))
	}
	return rec, nil
}

