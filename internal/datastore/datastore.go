package datastore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Supported driver names
const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

const (
	mysqlDuplicateEntry   = 1062
	postgresUniqueViolate = "23505"
)

var (
	sqliteUniqueRe = regexp.MustCompile(`UNIQUE constraint failed: ([\w.]+)`)
	mysqlDupKeyRe  = regexp.MustCompile(`for key '([^']+)'`)
)

// Dialect captures the per-driver differences the repositories care about
type Dialect struct {
	Name     string
	IDType   string // Column type for identity tokens
	IntType  string // Column type for catalogue numbers
	TextType string // Column type for indexed text

	numbered  bool // $1-style placeholders
	duplicate func(err error) (string, bool)
}

// Rebind rewrites ? placeholders into the dialect's placeholder syntax
func (d Dialect) Rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
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

// DuplicateColumn reports whether err is a uniqueness violation and, if so,
// which column caused it. Constraints are expected to be named uq_<table>_<column>.
func (d Dialect) DuplicateColumn(err error) (string, bool) {
	if err == nil || d.duplicate == nil {
		return "", false
	}
	return d.duplicate(err)
}

// DialectFor returns the dialect for a driver name
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverSQLite:
		return Dialect{
			Name:      DriverSQLite,
			IDType:    "TEXT",
			IntType:   "INTEGER",
			TextType:  "TEXT",
			duplicate: sqliteDuplicate,
		}, nil
	case DriverMySQL:
		return Dialect{
			Name:      DriverMySQL,
			IDType:    "CHAR(36)",
			IntType:   "BIGINT",
			TextType:  "VARCHAR(255)",
			duplicate: mysqlDuplicate,
		}, nil
	case DriverPostgres:
		return Dialect{
			Name:      DriverPostgres,
			IDType:    "CHAR(36)",
			IntType:   "BIGINT",
			TextType:  "TEXT",
			numbered:  true,
			duplicate: postgresDuplicate,
		}, nil
	}
	return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
}

func sqliteDuplicate(err error) (string, bool) {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return "", false
	}
	if se.Code()&0xff != sqlite3.SQLITE_CONSTRAINT {
		return "", false
	}
	m := sqliteUniqueRe.FindStringSubmatch(se.Error())
	if m == nil {
		return "", false
	}
	// Composite constraints list every column; the first one is enough to report.
	return columnFromConstraint(strings.Split(m[1], ",")[0]), true
}

func mysqlDuplicate(err error) (string, bool) {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || me.Number != mysqlDuplicateEntry {
		return "", false
	}
	m := mysqlDupKeyRe.FindStringSubmatch(me.Message)
	if m == nil {
		return "", true
	}
	return columnFromConstraint(m[1]), true
}

func postgresDuplicate(err error) (string, bool) {
	var pe *pq.Error
	if !errors.As(err, &pe) || string(pe.Code) != postgresUniqueViolate {
		return "", false
	}
	return columnFromConstraint(pe.Constraint), true
}

// columnFromConstraint maps "pokemon.no", "pokemon.uq_pokemon_no" or "uq_pokemon_no" to "no"
func columnFromConstraint(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	if strings.HasPrefix(name, "uq_") {
		name = name[len("uq_"):]
		if i := strings.Index(name, "_"); i >= 0 {
			name = name[i+1:]
		}
	}
	return name
}

// Datastore bundles an open connection pool with its dialect
type Datastore struct {
	DB      *sql.DB
	Dialect Dialect
}

// Open connects to the database for driver and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*Datastore, error) {
	dialect, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", driver, err)
	}

	return &Datastore{DB: db, Dialect: dialect}, nil
}

// Close releases the connection pool
func (ds *Datastore) Close() error {
	return ds.DB.Close()
}
