/*
Package sqldb provides the SQL implementation of frontdesk.TxStore.

PURPOSE:
  One implementation over database/sql for two backends:
    sqlite3  development, tests, single-node deployments
    mysql    production (InnoDB)

  Both use the same `?`-placeholder statements. Only the DDL, the
  transaction options and the row-lock clause differ.

TRANSACTIONS:
  sqlite3: every transaction is BEGIN IMMEDIATE (_txlock=immediate) and the
           pool holds one connection, so writers are fully serialized.
  mysql:   SERIALIZABLE isolation; *ForUpdate reads add FOR UPDATE. Range
           reads in the availability check take next-key locks, so two
           overlapping bookings cannot both commit.

APPEND-ONLY ENFORCEMENT:
  There is no UPDATE or DELETE statement for ledger_entries anywhere in this
  package. SQLite additionally rejects them with triggers.

KEY TABLES:
  reservations:     one row per booking, folio unique per hotel
  ledger_entries:   immutable charges and payments
  folio_sequences:  last folio number issued per hotel
  drawer_sessions:  cashier sessions, at most one open per cashier and hotel

USAGE:
  store, err := sqldb.Open(sqldb.DriverSQLite, "./data/frontdesk.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := frontdesk.NewEngine(store)

MIGRATION:
  Schema is auto-migrated on Open(). Every statement is CREATE ... IF NOT
  EXISTS so re-running is safe.
*/
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/mattn/go-sqlite3"
	"github.com/warp/frontdesk/frontdesk"
	"github.com/warp/frontdesk/generic"
)

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// dialect holds everything that differs between backends.
type dialect struct {
	name     string
	rowLocks bool
	schema   []string
	txOpts   *sql.TxOptions
}

var (
	sqliteDialect = &dialect{name: DriverSQLite, schema: sqliteSchema}
	mysqlDialect  = &dialect{
		name:     DriverMySQL,
		rowLocks: true,
		schema:   mysqlSchema,
		txOpts:   &sql.TxOptions{Isolation: sql.LevelSerializable},
	}
)

// pick returns the locking variant of a statement when the backend has row
// locks and locking was requested.
func (d *dialect) pick(plain, locking string, lock bool) string {
	if lock && d.rowLocks {
		return locking
	}
	return plain
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn implements frontdesk.Store over either the pool or one transaction.
type conn struct {
	q queryer
	d *dialect
}

var _ frontdesk.Store = (*conn)(nil)

// Store is the pool-level store. Reads outside WithTx go straight to the
// pool.
type Store struct {
	conn
	db *sql.DB
}

var _ frontdesk.TxStore = (*Store)(nil)

// New opens a SQLite database at path. Use ":memory:" for tests.
func New(path string) (*Store, error) {
	return Open(DriverSQLite, path)
}

// Open connects to driver at dsn and migrates the schema.
func Open(driver, dsn string) (*Store, error) {
	var (
		db *sql.DB
		d  *dialect
	)
	switch driver {
	case DriverSQLite, "sqlite", "":
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		var err error
		db, err = sql.Open(DriverSQLite, dsn+sep+"_foreign_keys=on&_journal_mode=WAL&_txlock=immediate&_busy_timeout=5000")
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		// one connection: ":memory:" databases are per-connection, and a
		// single writer is all SQLite allows anyway
		db.SetMaxOpenConns(1)
		d = sqliteDialect
	case DriverMySQL:
		cfg, err := mysql.ParseDSN(dsn)
		if err != nil {
			return nil, fmt.Errorf("invalid mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		connector, err := mysql.NewConnector(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		db = sql.OpenDB(connector)
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(5 * time.Minute)
		d = mysqlDialect
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	store := &Store{conn: conn{q: db, d: d}, db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Driver returns the backend name.
func (s *Store) Driver() string { return s.d.name }

func (s *Store) migrate(ctx context.Context) error {
	for _, stmt := range s.d.schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Reset drops every table and migrates again. Used by the scenario loader.
func (s *Store) Reset(ctx context.Context) error {
	for _, stmt := range dropStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}
	return s.migrate(ctx)
}

// WithTx runs fn in one transaction, committing only if fn returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(frontdesk.Store) error) error {
	tx, err := s.db.BeginTx(ctx, s.d.txOpts)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&conn{q: tx, d: s.d}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

type scanner interface {
	Scan(dest ...any) error
}

// isUniqueViolation recognizes duplicate-key errors from either driver.
func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	if errors.As(err, &se) {
		return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return false
}

// notFound maps sql.ErrNoRows to a typed not-found error.
func notFound(err error, entity string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return generic.NotFound(entity, id)
	}
	return err
}

func limitOr(n int) int {
	if n <= 0 || n > frontdesk.MaxPageSize {
		return frontdesk.MaxPageSize
	}
	return n
}

func insertID(res sql.Result) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}
