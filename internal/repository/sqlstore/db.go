package sqlstore

import (
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/happypaws/happypaws/internal/config"
)

// NewDB connects to Postgres when a connection URL is configured and falls
// back to the embedded SQLite file otherwise. All queries are written with
// `?` bindvars and rebound per driver.
func NewDB(cfg config.DatabaseConfig) (*sqlx.DB, error) {
	if cfg.URL != "" {
		url := cfg.URL
		// Some hosts hand out the deprecated postgres:// scheme.
		if strings.HasPrefix(url, "postgres://") {
			url = "postgresql://" + strings.TrimPrefix(url, "postgres://")
		}
		db, err := sqlx.Connect("postgres", url)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Ping(); err != nil {
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return db, nil
	}

	db, err := sqlx.Connect("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// The embedded engine serializes writers; a single connection avoids
	// SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	return db, nil
}
