package database

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"github.com/jxstanford/bokeh/config"
	"github.com/jxstanford/bokeh/pkg/logger"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schema string

// Connect opens the Postgres pool and pings it a few times before giving up.
func Connect(cfg config.Database) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return db, nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in 2s... (%v)", err)
		time.Sleep(2 * time.Second)
	}
	db.Close()
	return nil, fmt.Errorf("could not connect to database after retries: %w", err)
}

// Migrate creates the tables the document store needs.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
