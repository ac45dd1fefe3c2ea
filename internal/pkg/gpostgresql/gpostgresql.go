package gpostgresql

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"comms-service/internal/config"

	"github.com/useinsider/go-pkg/inslogger"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ExecQueryRower interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func NewDBConnection(ctx context.Context, dbConfig *config.DatabaseConfig, logger inslogger.Interface) (*pgxpool.Pool, error) {
	var db *pgxpool.Pool

	connString := strings.TrimSpace(fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%s",
		dbConfig.User,
		dbConfig.Password,
		dbConfig.Name,
		dbConfig.Host,
		fmt.Sprintf("%d", dbConfig.Port),
	))

	parseConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Errorf("Error parsing pool parseConfig: %v", err)
		return nil, err
	}

	parseConfig.MaxConns = 10
	parseConfig.MinConns = 2
	parseConfig.MaxConnLifetime = 30 * time.Minute
	parseConfig.MaxConnIdleTime = 10 * time.Minute
	parseConfig.HealthCheckPeriod = 2 * time.Minute

	db, err = pgxpool.NewWithConfig(ctx, parseConfig)
	if err != nil {
		logger.Errorf("error connecting to database: %v", err)
		return nil, err
	}

	logger.Log("connected to PostgreSQL")
	return db, nil
}

// ApplyMigrations runs the file-based migrations against the configured
// database. ErrNoChange is not a failure.
func ApplyMigrations(dbConfig *config.DatabaseConfig, logger inslogger.Interface) error {
	databaseURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		url.QueryEscape(dbConfig.User),
		url.QueryEscape(dbConfig.Password),
		dbConfig.Host,
		dbConfig.Port,
		dbConfig.Name,
	)

	m, err := migrate.New("file://"+dbConfig.MigrationsPath, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err = m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	if err == migrate.ErrNoChange {
		logger.Log("no database migrations to apply")
	} else {
		logger.Log("database migrations applied")
	}
	return nil
}

func Close(ctx context.Context, pool *pgxpool.Pool, logger inslogger.Interface) {
	if pool != nil {
		logger.Log("Closing PostgreSQL connection pool")
		pool.Close()
	}
}
