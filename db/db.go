// Package db owns the Postgres connection and the asset and ticket stores
// built on it.
package db

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// InitDB opens the pool named by DATABASE_URL and verifies it with a ping.
func InitDB() error {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}

	var err error
	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	if err := DB.Ping(); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func GetDB() *sql.DB {
	return DB
}
