// Package mysqldb sizes and dumps the databases of generic applications
// using the credentials inferred from their source files.
package mysqldb

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/vulnverified/sitevault/internal/command"
	"github.com/vulnverified/sitevault/internal/engine"
	"github.com/vulnverified/sitevault/pkg/logger"
)

const (
	defaultPort = "3306"
	dialTimeout = 5 * time.Second

	schemaSizeQuery = "SELECT COALESCE(SUM(data_length + index_length), 0) FROM information_schema.TABLES WHERE table_schema = ?"
)

// endpoint splits a wp-config style DB_HOST into a driver network and address.
// Accepted forms: "host", "host:port", "host:/path/to.sock" and "/path/to.sock".
func endpoint(host string) (network, addr string) {
	host = strings.TrimSpace(host)
	if host == "" {
		host = "localhost"
	}
	if strings.HasPrefix(host, "/") {
		return "unix", host
	}
	if i := strings.Index(host, ":/"); i >= 0 {
		return "unix", host[i+1:]
	}
	if _, _, err := net.SplitHostPort(host); err == nil {
		return "tcp", host
	}
	return "tcp", net.JoinHostPort(strings.Trim(host, "[]"), defaultPort)
}

// DSN builds a driver DSN for creds without selecting a schema.
func DSN(creds engine.CredentialSet) string {
	cfg := mysql.NewConfig()
	cfg.User = creds.User
	cfg.Passwd = creds.Password
	cfg.Net, cfg.Addr = endpoint(creds.Host)
	cfg.Timeout = dialTimeout
	cfg.ReadTimeout = 30 * time.Second
	return cfg.FormatDSN()
}

// Sizer implements discovery.DBSizer against information_schema.
type Sizer struct{}

// SchemaSize returns data plus index bytes of creds.Name. Connection and
// query failures are logged and reported as zero.
func (Sizer) SchemaSize(ctx context.Context, creds engine.CredentialSet) int64 {
	size, err := schemaSize(ctx, creds)
	if err != nil {
		logger.Warn(ctx, "database size query failed",
			zap.String("db_name", creds.Name),
			zap.String("db_host", creds.Host),
			zap.Error(err))
		return 0
	}
	return size
}

func schemaSize(ctx context.Context, creds engine.CredentialSet) (int64, error) {
	db, err := sql.Open("mysql", DSN(creds))
	if err != nil {
		return 0, fmt.Errorf("failed to connect to MySQL: %w", err)
	}
	defer db.Close()

	var size sql.NullInt64
	if err := db.QueryRowContext(ctx, schemaSizeQuery, creds.Name).Scan(&size); err != nil {
		return 0, fmt.Errorf("querying schema size of %s: %w", creds.Name, err)
	}
	return size.Int64, nil
}

// Dumper exports a schema with mysqldump. The password is passed through
// MYSQL_PWD so it never appears in the process list.
type Dumper struct {
	Binary string
	Run    command.Runner
}

// NewDumper returns a Dumper using the mysqldump on PATH.
func NewDumper() *Dumper {
	return &Dumper{Binary: "mysqldump", Run: command.Exec}
}

// Dump writes the schema named by creds to dest.
func (d *Dumper) Dump(ctx context.Context, creds engine.CredentialSet, dest string) error {
	args := []string{
		"--single-transaction",
		"--quick",
		"--lock-tables=false",
		"--user=" + creds.User,
	}
	switch network, addr := endpoint(creds.Host); network {
	case "unix":
		args = append(args, "--socket="+addr)
	default:
		host, port, _ := net.SplitHostPort(addr)
		args = append(args, "--host="+host, "--port="+port)
	}
	args = append(args, "--result-file="+dest, creds.Name)

	_, err := d.Run(ctx, command.Cmd{
		Name: d.Binary,
		Args: args,
		Env:  []string{"MYSQL_PWD=" + creds.Password},
	})
	if err != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("failed to dump database %s: %w", creds.Name, err)
	}
	return nil
}
