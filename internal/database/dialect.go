package database

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Dialect selects placeholder syntax for a SQL driver family.
type Dialect int

const (
	// PostgreSQL uses numbered placeholders ($1, $2, ...).
	PostgreSQL Dialect = iota
	// MySQL uses positional placeholders (?).
	MySQL
)

// DialectFor returns the dialect used by a database/sql driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "pgx":
		return PostgreSQL, nil
	case "mysql":
		return MySQL, nil
	default:
		return 0, errors.New("unsupported database driver: " + driver)
	}
}

// String returns the migration directory name for the dialect.
func (d Dialect) String() string {
	if d == MySQL {
		return "mysql"
	}
	return "postgresql"
}

// Rebind rewrites a query written with ? placeholders for the dialect.
// Queries must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d != PostgreSQL {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)

	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}

	return b.String()
}

// IsUniqueViolation reports whether err is a unique constraint violation from
// any of the supported drivers.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}

	return false
}
