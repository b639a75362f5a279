package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"wwtpDashboard/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	migratemssql "github.com/golang-migrate/migrate/v4/database/sqlserver"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations
var migrations embed.FS

// Migrate applies the embedded schema for the pool's dialect.
func Migrate(db *DB) error {
	name := db.dialect.Name()
	logger.Info("Repository: applying migrations", zap.String("dialect", name))

	src, err := iofs.New(migrations, "migrations/"+name)
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}

	// migrate closes the *sql.DB it is given, so server engines get their
	// own short-lived pool. SQLite shares the single connection instead.
	instance := db.conn.DB
	owned := db.dsn != "" && name != SQLite{}.Name()
	if owned {
		instance, err = sql.Open(db.dialect.DriverName(), db.dsn)
		if err != nil {
			return fmt.Errorf("migration pool: %w", err)
		}
	}

	driver, err := migrationDriver(name, instance)
	if err != nil {
		if owned {
			instance.Close()
		}
		return fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, name, driver)
	if err != nil {
		return fmt.Errorf("migration init: %w", err)
	}
	if owned {
		defer m.Close()
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("Repository: migration failed", err)
		return fmt.Errorf("migrate up: %w", err)
	}

	version, dirty, _ := m.Version()
	logger.Info("Repository: migrations applied",
		zap.Uint("version", version),
		zap.Bool("dirty", dirty))
	return nil
}

func migrationDriver(name string, instance *sql.DB) (migratedb.Driver, error) {
	switch name {
	case "mysql":
		return migratemysql.WithInstance(instance, &migratemysql.Config{})
	case "sqlserver":
		return migratemssql.WithInstance(instance, &migratemssql.Config{})
	case "postgres":
		return migratepgx.WithInstance(instance, &migratepgx.Config{})
	case "sqlite":
		return migratesqlite.WithInstance(instance, &migratesqlite.Config{})
	}
	return nil, fmt.Errorf("no migration driver for %q", name)
}
