package db

import (
	// Registers "sqlite3" (cgo).
	_ "github.com/mattn/go-sqlite3"
	// Registers "sqlite" (pure Go).
	_ "modernc.org/sqlite"
)
