package audit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Init opens the audit journal and ensures all necessary tables exist.
func Init(dbPath string) (*sqlx.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	// sqlite serializes writers; one connection avoids SQLITE_BUSY between
	// the poller and interaction handlers.
	db.SetMaxOpenConns(1)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS ban_notices (
			ban_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			message_id TEXT NOT NULL PRIMARY KEY,
			thread_id TEXT DEFAULT '',
			player_name TEXT DEFAULT '',
			published_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ban_notices_ban_id ON ban_notices (ban_id);`,
		`CREATE TABLE IF NOT EXISTS ban_actions (
			action_id INTEGER PRIMARY KEY AUTOINCREMENT,
			ban_id TEXT DEFAULT '',
			message_id TEXT DEFAULT '',
			action TEXT NOT NULL,
			actor_id TEXT DEFAULT '',
			actor_name TEXT DEFAULT '',
			outcome TEXT NOT NULL,
			detail TEXT DEFAULT '',
			timestamp INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_ban_actions_ban_id ON ban_actions (ban_id);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create audit schema: %w", err)
		}
	}

	return db, nil
}
