package catalog

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// Config holds ClickHouse connection settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Secure   bool
}

// Addr returns the host:port dial target.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DB wraps a ClickHouse connection with the catalog operations and the
// query passthrough used by the chat path.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
}

// Open dials ClickHouse with the native protocol. The connection is
// established lazily; call Ping to force a round trip before relying
// on it.
func Open(cfg Config, logger *slog.Logger) *DB {
	opts := &clickhouse.Options{
		Addr: []string{cfg.Addr()},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.User,
			Password: cfg.Password,
		},
	}
	if cfg.Secure {
		opts.TLS = &tls.Config{}
	}
	return New(clickhouse.OpenDB(opts), logger)
}

// New wraps an existing database handle. Tests substitute a mock
// connection here.
func New(conn *sql.DB, logger *slog.Logger) *DB {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &DB{conn: conn, logger: logger}
}

// Ping verifies the server is reachable and the credential valid.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Version returns the server version string.
func (db *DB) Version(ctx context.Context) (string, error) {
	var version string
	if err := db.conn.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return "", fmt.Errorf("querying server version: %w", err)
	}
	return version, nil
}

// Query runs an arbitrary statement and hands the rows back untouched.
// Unlike the catalog operations, errors propagate verbatim so the chat
// surface can show the engine's own message.
func (db *DB) Query(ctx context.Context, query string) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, query)
}

// ListDatabases implements Reader.
func (db *DB) ListDatabases(ctx context.Context) []string {
	names, err := db.queryStrings(ctx, "SHOW DATABASES")
	if err != nil {
		db.logger.Error("listing databases failed", "error", err)
		return nil
	}
	return names
}

// ListTables implements Reader.
func (db *DB) ListTables(ctx context.Context, database string) []string {
	names, err := db.queryStrings(ctx, "SHOW TABLES FROM "+quoteIdent(database))
	if err != nil {
		db.logger.Error("listing tables failed", "database", database, "error", err)
		return nil
	}
	return names
}

// DescribeTable implements Reader. Engine fields map positionally:
// 0 name, 1 type, 2 default_type, 3 default_expression, 4 comment,
// 5 codec_expression, 6 ttl_expression. A server returning fewer
// fields simply leaves the rest empty.
func (db *DB) DescribeTable(ctx context.Context, database, table string) []Column {
	query := fmt.Sprintf("DESCRIBE TABLE %s.%s", quoteIdent(database), quoteIdent(table))

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		db.logger.Error("describing table failed", "database", database, "table", table, "error", err)
		return nil
	}
	defer rows.Close()

	fieldNames, err := rows.Columns()
	if err != nil {
		db.logger.Error("describing table failed", "database", database, "table", table, "error", err)
		return nil
	}

	var columns []Column
	for rows.Next() {
		fields := make([]sql.NullString, len(fieldNames))
		dest := make([]any, len(fields))
		for i := range fields {
			dest[i] = &fields[i]
		}
		if err := rows.Scan(dest...); err != nil {
			db.logger.Error("describing table failed", "database", database, "table", table, "error", err)
			return nil
		}
		columns = append(columns, columnFromFields(fields))
	}
	if err := rows.Err(); err != nil {
		db.logger.Error("describing table failed", "database", database, "table", table, "error", err)
		return nil
	}
	return columns
}

func (db *DB) queryStrings(ctx context.Context, query string) ([]string, error) {
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func columnFromFields(fields []sql.NullString) Column {
	at := func(i int) string {
		if i < len(fields) && fields[i].Valid {
			return fields[i].String
		}
		return ""
	}
	return Column{
		Name:              at(0),
		Type:              at(1),
		DefaultType:       at(2),
		DefaultExpression: at(3),
		Comment:           at(4),
		CodecExpression:   at(5),
		TTLExpression:     at(6),
	}
}
