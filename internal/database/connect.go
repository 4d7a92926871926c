package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quiz-rag/internal/config"
	"quiz-rag/internal/logger"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // driver: sqlite
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Dialect maps a configured driver to the migrations dialect and the
// database/sql driver name.
func Dialect(driver string) (dialect, driverName string, err error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite", "sqlite3":
		return DriverSQLite, "sqlite", nil
	case "postgres", "postgresql", "pgx":
		return DriverPostgres, "pgx", nil
	default:
		return "", "", fmt.Errorf("unsupported database driver %q (expected postgres or sqlite)", driver)
	}
}

// Connect opens and pings the configured database. The caller owns the
// returned pool and must close it.
func Connect(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	dialect, driverName, err := Dialect(cfg.DB.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driverName, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}

	if dialect == DriverSQLite {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
	}
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect, err)
	}

	logger.Get().Info("Connected to database", zap.String("dialect", dialect))
	return db, nil
}
