package postgres

import (
	"errors"

	"github.com/aussiebroadwan/profiles/internal/profiles/store/drivers/postgres/migrations"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/stdlib"
)

// ApplyMigrations applies any pending database migrations using the files
// embedded into the binary.
func (s *Store) ApplyMigrations() error {
	// 1. Borrow a database/sql handle from the pool. Closing it leaves the
	//    pool open.
	db := stdlib.OpenDBFromPool(s.pool)
	defer func() { _ = db.Close() }()

	// 2. Create the Postgres migration driver
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}

	// 3. Create the iofs (embedded filesystem) source driver
	source, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return err
	}

	// 4. Create the migrate instance to run migrations
	instance, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return err
	}
	defer func() { _, _ = instance.Close() }()

	// 5. Apply all up migrations
	err = instance.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	return nil
}
