package sqlstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	// Register the postgres driver under "pgx"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Dialect selects the SQL database flavour
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

const (
	pgErrUniqueViolation = "23505"
	mysqlErrDuplicateKey = 1062
)

// ParseDialect validates a dialect name
func ParseDialect(name string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(name))); d {
	case DialectSQLite, DialectPostgres, DialectMySQL:
		return d, nil
	default:
		return "", fmt.Errorf("unknown sql dialect %q", name)
	}
}

func (d Dialect) driverName() string {
	switch d {
	case DialectPostgres:
		return "pgx"
	case DialectMySQL:
		return "mysql"
	default:
		return "sqlite"
	}
}

func (d Dialect) gooseDialect() string {
	switch d {
	case DialectPostgres:
		return "postgres"
	case DialectMySQL:
		return "mysql"
	default:
		return "sqlite3"
	}
}

func (d Dialect) migrationsDir() string {
	return string(d)
}

// supportsReturning reports whether INSERT ... RETURNING id is available
func (d Dialect) supportsReturning() bool {
	return d != DialectMySQL
}

// dsn applies per-dialect connection defaults
func (d Dialect) dsn(dsn string) string {
	switch d {
	case DialectSQLite:
		if strings.Contains(dsn, "?") {
			return dsn
		}
		return dsn + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	case DialectMySQL:
		if strings.Contains(dsn, "?") {
			return dsn
		}
		return dsn + "?charset=utf8mb4&loc=UTC"
	default:
		return dsn
	}
}

// rebind rewrites ? placeholders as $1, $2, ... for postgres
func (d Dialect) rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d Dialect) isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	switch d {
	case DialectPostgres:
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
	case DialectMySQL:
		var myErr *mysql.MySQLError
		return errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateKey
	default:
		var sqliteErr *msqlite.Error
		if errors.As(err, &sqliteErr) {
			switch sqliteErr.Code() {
			case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
				return true
			}
		}
		return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
	}
}
