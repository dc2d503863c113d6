package helper

import (
	"context"
	"database/sql"
	"log"
	"log/slog"
	"time"

	_ "github.com/lib/pq"
)

// Database wraps the shared connection pool together with the logger of its owner.
// It is constructed once at startup and closed at shutdown.
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// ConnectDatabase opens and pings a Postgres connection pool.
func ConnectDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) (*Database, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := openDatabase(config)
	if err != nil {
		return nil, NewError("connect to database "+name, err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host))

	return &Database{
		Name:     name,
		Instance: db,
		Logger:   logger,
	}, nil
}

// NewDatabase is like ConnectDatabase but panics if the database is unreachable.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	db, err := ConnectDatabase(name, config, logger)
	if err != nil {
		log.Panicf("error connecting to database %s: %v", name, err)
	}
	return db
}

// NewTestDatabase opens a connection pool for tests with a discarding logger.
func NewTestDatabase(config *DatabaseConfiguration) *Database {
	logger := slog.New(slog.DiscardHandler)
	return NewDatabase("test", config, logger)
}

// Close closes the connection pool.
func (d *Database) Close() error {
	if d == nil || d.Instance == nil {
		return nil
	}
	return d.Instance.Close()
}

func openDatabase(config *DatabaseConfiguration) (*sql.DB, error) {
	db, err := sql.Open("postgres", config.DSN())
	if err != nil {
		return nil, NewError("open", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var pingErr error
	for i := 0; i < 5; i++ {
		pingErr = db.PingContext(ctx)
		if pingErr == nil {
			return db, nil
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, NewError("ping", ctx.Err())
		case <-time.After(500 * time.Millisecond):
		}
	}

	db.Close()
	return nil, NewError("ping", pingErr)
}
