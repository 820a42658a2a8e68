// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package localbackend

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver
)

// OpenDB opens the SQLite database at path with foreign keys enforced and
// creates the schema if needed.
func OpenDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=1&_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		db.Close()
		return nil, fmt.Errorf("check foreign keys: %w", err)
	}
	if enabled != 1 {
		db.Close()
		return nil, fmt.Errorf("foreign keys are not enabled")
	}

	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ensureSchema(db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS tenant_groups (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			privacy TEXT NOT NULL DEFAULT 'PUBLIC',
			description TEXT NOT NULL DEFAULT '',
			json_description TEXT NOT NULL DEFAULT '',
			html_description TEXT NOT NULL DEFAULT '',
			icon TEXT NOT NULL DEFAULT '',
			thumbnail TEXT NOT NULL DEFAULT '',
			user_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS gallery (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL REFERENCES tenant_groups(id) ON DELETE CASCADE,
			kind TEXT NOT NULL,
			ref TEXT NOT NULL DEFAULT '',
			url TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_gallery_group ON gallery(group_id, position)`,
		`CREATE TABLE IF NOT EXISTS members (
			group_id TEXT NOT NULL REFERENCES tenant_groups(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			image TEXT NOT NULL DEFAULT '',
			joined_at TIMESTAMP NOT NULL,
			PRIMARY KEY (group_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			message TEXT NOT NULL,
			sender_id TEXT NOT NULL,
			receiver_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender_id, receiver_id, created_at)`,
		`CREATE TABLE IF NOT EXISTS domains (
			group_id TEXT PRIMARY KEY REFERENCES tenant_groups(id) ON DELETE CASCADE,
			domain TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL,
			verify_token TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema exec failed: %w", err)
		}
	}
	return nil
}
