package db

import (
	"database/sql"

	sqlite3 "github.com/mutecomm/go-sqlcipher/v4"
)

const (
	// SQLiteDriverName is the project-specific SQLCipher driver name.
	// Registered under its own name so tests that import other SQLite
	// drivers never collide with it.
	SQLiteDriverName = "sqlite3_inkpad"
)

func init() {
	sql.Register(SQLiteDriverName, &sqlite3.SQLiteDriver{})
}
