package repos

import (
	"context"
	"database/sql"
	"embed"
	stderrors "errors"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"storekeep/internal/domain"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed migrations
var migrations embed.FS

// OpenDB connects to the datastore and brings the schema up to date.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case "", DriverSQLite:
		driver = DriverSQLite
	case DriverPostgres:
	default:
		return nil, errors.Errorf("unsupported db driver %q", driver)
	}

	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		// A single connection serializes writers (no lost updates on
		// stock_level) and keeps ":memory:" databases alive.
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if driver == DriverSQLite {
		var fk int
		if err := db.Get(&fk, `PRAGMA foreign_keys`); err != nil || fk != 1 {
			_ = db.Close()
			return nil, errors.Errorf("sqlite foreign keys not enabled (dsn %q)", dsn)
		}
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// sqliteDSN turns on foreign keys for every connection the pool opens.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

// Migrate applies the embedded migrations for the connection's driver.
// The migrate instance is not closed: closing it would close db.
func Migrate(db *sqlx.DB) error {
	src, err := iofs.New(migrations, "migrations/"+db.DriverName())
	if err != nil {
		return errors.Wrap(err, "open migrations")
	}

	var drv database.Driver
	switch db.DriverName() {
	case DriverPostgres:
		drv, err = postgres.WithInstance(db.DB, &postgres.Config{})
	default:
		drv, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	}
	if err != nil {
		return errors.Wrap(err, "migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", src, db.DriverName(), drv)
	if err != nil {
		return errors.Wrap(err, "migrate")
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "apply migrations")
	}
	return nil
}

// Repos bundles the table repositories over one querier, either the pool or
// an open transaction.
type Repos struct {
	Admins     *AdminRepo
	Owners     *OwnerRepo
	Stores     *StoreRepo
	Categories *CategoryRepo
	Products   *ProductRepo
	Inventory  *InventoryRepo
	Sales      *SaleRepo
	Scopes     *ScopeRepo
}

func NewRepos(q sqlx.ExtContext) *Repos {
	return &Repos{
		Admins:     NewAdminRepo(q),
		Owners:     NewOwnerRepo(q),
		Stores:     NewStoreRepo(q),
		Categories: NewCategoryRepo(q),
		Products:   NewProductRepo(q),
		Inventory:  NewInventoryRepo(q),
		Sales:      NewSaleRepo(q),
		Scopes:     NewScopeRepo(q),
	}
}

// Datastore is the transactional entry point used by the services.
type Datastore struct {
	db *sqlx.DB
}

func NewDatastore(db *sqlx.DB) *Datastore { return &Datastore{db: db} }

func (d *Datastore) DB() *sqlx.DB { return d.db }

// Repos returns repositories bound to the pool, for reads outside a transaction.
func (d *Datastore) Repos() *Repos { return NewRepos(d.db) }

// InTx runs fn inside one transaction. fn's error is returned as is after a
// rollback; begin, commit and rollback failures come back as *domain.TxError.
func (d *Datastore) InTx(ctx context.Context, fn func(r *Repos) error) (err error) {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return &domain.TxError{Op: "begin", Err: err}
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(NewRepos(tx)); err != nil {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			return stderrors.Join(err, &domain.TxError{Op: "rollback", Err: rerr})
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return &domain.TxError{Op: "commit", Err: err}
	}
	return nil
}

// forUpdate returns the row locking clause for reads that precede a write in
// the same transaction. sqlite needs none: its single connection already
// serializes transactions.
func forUpdate(q sqlx.ExtContext) string {
	if q.DriverName() == DriverPostgres {
		return " FOR UPDATE"
	}
	return ""
}

// noRows maps sql.ErrNoRows to domain.ErrNotFound with context.
func noRows(err error, format string, args ...any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Wrapf(domain.ErrNotFound, format, args...)
	}
	return err
}

// affected turns a zero-row UPDATE/DELETE into ErrNotFound.
func affected(res sql.Result, format string, args ...any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Wrapf(domain.ErrNotFound, format, args...)
	}
	return nil
}
