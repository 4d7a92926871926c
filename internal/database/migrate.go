package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	schema "quiz-rag/database"
	"quiz-rag/internal/config"
	"quiz-rag/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

// Direction selects which way Migrate moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Migrate applies the embedded migrations for the configured dialect. It
// opens its own connection, which golang-migrate closes when done.
// An already current schema is not an error.
func Migrate(ctx context.Context, cfg *config.Config, dir Direction) error {
	l := logger.Get()

	dialect, driverName, err := Dialect(cfg.DB.Driver)
	if err != nil {
		return err
	}

	db, err := sql.Open(driverName, cfg.GetDSN())
	if err != nil {
		return fmt.Errorf("could not open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("could not ping database: %w", err)
	}

	var driver migratedb.Driver
	switch dialect {
	case DriverSQLite:
		driver, err = sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	default:
		driver, err = pgxmigrate.WithInstance(db, &pgxmigrate.Config{})
	}
	if err != nil {
		db.Close()
		return fmt.Errorf("could not create %s migration driver: %w", dialect, err)
	}

	src, err := iofs.New(schema.Migrations, "migrations/"+dialect)
	if err != nil {
		driver.Close()
		return fmt.Errorf("could not read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, dialect, driver)
	if err != nil {
		src.Close()
		driver.Close()
		return fmt.Errorf("could not create migrator: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			l.Warn("Failed to close migrator", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	switch dir {
	case Up:
		err = m.Up()
	case Down:
		err = m.Down()
	default:
		return fmt.Errorf("unknown migration direction %q", dir)
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration %s failed: %w", dir, err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("could not read schema version: %w", verr)
	}
	l.Info("Migrations applied",
		zap.String("dialect", dialect),
		zap.String("direction", string(dir)),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
		zap.Bool("changed", err == nil),
	)
	return nil
}
