package discovery

import (
	"context"

	"github.com/vulnverified/sitevault/internal/engine"
)

//go:generate mockgen -package mockdiscovery -source=interface.go -destination=mock/mockdiscovery.go *

// CMS is the management CLI of the content platform. Failures collapse to
// false, an empty string or zero.
type CMS interface {
	IsInstalled(ctx context.Context, webRoot string) bool
	ConfigValue(ctx context.Context, webRoot, key string) string
	QueryScalar(ctx context.Context, webRoot, query string) int64
}

// DBSizer reports the data plus index size of a schema, or zero on any failure.
type DBSizer interface {
	SchemaSize(ctx context.Context, creds engine.CredentialSet) int64
}

// DirSizer reports the on-disk size of a directory tree in bytes.
type DirSizer interface {
	Size(ctx context.Context, path string) int64
}
