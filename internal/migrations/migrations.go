package migrations

import (
	"log"

	"github.com/jmoiron/sqlx"
)

// Run creates the database schema required for the warehouse backend.
// Audit and transfer timestamps are stored as Unix microseconds.
func Run(db *sqlx.DB) {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE TABLE IF NOT EXISTS categories (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            created_at INTEGER NOT NULL,
            updated_at INTEGER,
            version INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE TABLE IF NOT EXISTS drugs (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            name TEXT NOT NULL,
            code TEXT NOT NULL UNIQUE,
            price REAL NOT NULL,
            stock INTEGER NOT NULL,
            category_id INTEGER NOT NULL,
            created_at INTEGER NOT NULL,
            updated_at INTEGER,
            version INTEGER NOT NULL DEFAULT 0,
            FOREIGN KEY(category_id) REFERENCES categories(id)
        );`,
		`CREATE TABLE IF NOT EXISTS transfers (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            type TEXT NOT NULL,
            drug_id INTEGER NOT NULL,
            quantity INTEGER NOT NULL,
            transfer_date INTEGER NOT NULL,
            created_at INTEGER NOT NULL,
            updated_at INTEGER,
            version INTEGER NOT NULL DEFAULT 0,
            FOREIGN KEY(drug_id) REFERENCES drugs(id)
        );`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_drug_id ON transfers(drug_id);`,
		`CREATE INDEX IF NOT EXISTS idx_transfers_transfer_date ON transfers(transfer_date);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			log.Fatalf("migration failed: %v", err)
		}
	}
}
