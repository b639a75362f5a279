package database

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"wwtpDashboard/internal/config"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

// Dialect hides the differences between the supported SQL engines.
// Queries are written once with `?` placeholders and double-quoted
// identifiers; a Dialect supplies everything engine specific.
type Dialect interface {
	Name() string
	DriverName() string
	DSN(cfg config.DatabaseConfig) string
	QuoteIdent(name string) string
	Placeholder(n int) string
	// Top and Limit bound a SELECT; exactly one of them is non-empty.
	Top(n int) string
	Limit(n int) string
	// BucketExpr truncates col to the start of its bucket in Unix seconds.
	// The expression consumes two `?` parameters, both the bucket width.
	BucketExpr(col string) string
	// InsertReturningID builds an insert for cols and reports whether the
	// statement yields the new id as a row (otherwise LastInsertId is used).
	InsertReturningID(table string, cols []string) (query string, returnsRow bool)
	MaxParams() int
}

func DialectFor(name string) (Dialect, error) {
	switch name {
	case "mysql":
		return MySQL{}, nil
	case "sqlserver", "mssql":
		return SQLServer{}, nil
	case "postgres":
		return Postgres{}, nil
	case "sqlite":
		return SQLite{}, nil
	}
	return nil, fmt.Errorf("database: unsupported dialect %q", name)
}

func hostPort(cfg config.DatabaseConfig, defaultPort int) string {
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	return net.JoinHostPort(cfg.Host, strconv.Itoa(port))
}

func insertSQL(table string, cols []string, between, suffix string) string {
	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = `"` + c + `"`
		marks[i] = "?"
	}
	return fmt.Sprintf(`INSERT INTO "%s" (%s)%s VALUES (%s)%s`,
		table, strings.Join(quoted, ", "), between, strings.Join(marks, ", "), suffix)
}

type MySQL struct{}

func (MySQL) Name() string       { return "mysql" }
func (MySQL) DriverName() string { return "mysql" }

func (MySQL) DSN(cfg config.DatabaseConfig) string {
	c := mysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = hostPort(cfg, 3306)
	c.DBName = cfg.Name
	c.ParseTime = true
	c.Loc = time.UTC
	c.MultiStatements = true
	c.Params = map[string]string{"time_zone": "'+00:00'"}
	return c.FormatDSN()
}

func (MySQL) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) Placeholder(int) string { return "?" }
func (MySQL) Top(int) string         { return "" }
func (MySQL) Limit(n int) string     { return fmt.Sprintf(" LIMIT %d", n) }

func (MySQL) BucketExpr(col string) string {
	return fmt.Sprintf("FLOOR(UNIX_TIMESTAMP(%s) / ?) * ?", col)
}

func (MySQL) InsertReturningID(table string, cols []string) (string, bool) {
	return insertSQL(table, cols, "", ""), false
}

func (MySQL) MaxParams() int { return 65535 }

type SQLServer struct{}

func (SQLServer) Name() string       { return "sqlserver" }
func (SQLServer) DriverName() string { return "sqlserver" }

func (SQLServer) DSN(cfg config.DatabaseConfig) string {
	q := url.Values{}
	q.Set("database", cfg.Name)
	q.Set("encrypt", "disable")
	q.Set("TrustServerCertificate", "true")
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     hostPort(cfg, 1433),
		RawQuery: q.Encode(),
	}
	return u.String()
}

func (SQLServer) QuoteIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

func (SQLServer) Placeholder(n int) string { return "@p" + strconv.Itoa(n) }
func (SQLServer) Top(n int) string         { return fmt.Sprintf("TOP %d ", n) }
func (SQLServer) Limit(int) string         { return "" }

func (SQLServer) BucketExpr(col string) string {
	return fmt.Sprintf("(DATEDIFF_BIG(SECOND, '19700101', %s) / ?) * ?", col)
}

func (SQLServer) InsertReturningID(table string, cols []string) (string, bool) {
	return insertSQL(table, cols, ` OUTPUT INSERTED."id"`, ""), true
}

// MaxParams stays under the 2100 parameter ceiling of a single request.
func (SQLServer) MaxParams() int { return 2000 }

type Postgres struct{}

func (Postgres) Name() string       { return "postgres" }
func (Postgres) DriverName() string { return "pgx" }

func (Postgres) DSN(cfg config.DatabaseConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     hostPort(cfg, 5432),
		Path:     "/" + cfg.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (Postgres) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (Postgres) Top(int) string           { return "" }
func (Postgres) Limit(n int) string       { return fmt.Sprintf(" LIMIT %d", n) }

func (Postgres) BucketExpr(col string) string {
	return fmt.Sprintf("FLOOR(EXTRACT(EPOCH FROM %s) / ?) * ?", col)
}

func (Postgres) InsertReturningID(table string, cols []string) (string, bool) {
	return insertSQL(table, cols, "", ` RETURNING "id"`), true
}

func (Postgres) MaxParams() int { return 65535 }

// SQLite backs local development and tests.
type SQLite struct{}

func (SQLite) Name() string       { return "sqlite" }
func (SQLite) DriverName() string { return "sqlite" }

func (SQLite) DSN(cfg config.DatabaseConfig) string {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	return path + "?_time_format=sqlite&_pragma=busy_timeout(5000)"
}

func (SQLite) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLite) Placeholder(int) string { return "?" }
func (SQLite) Top(int) string         { return "" }
func (SQLite) Limit(n int) string     { return fmt.Sprintf(" LIMIT %d", n) }

func (SQLite) BucketExpr(col string) string {
	return fmt.Sprintf("(CAST(strftime('%%s', %s) AS INTEGER) / ?) * ?", col)
}

func (SQLite) InsertReturningID(table string, cols []string) (string, bool) {
	return insertSQL(table, cols, "", ""), false
}

func (SQLite) MaxParams() int { return 999 }
