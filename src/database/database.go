package database

import (
	"database/sql"
	"fmt"

	"github.com/username/yieldly/backend/src/logger"
	_ "modernc.org/sqlite"
)

// InitDB opens the sqlite database at databasePath, ensures the schema exists
// and applies column migrations. The handle is returned to the caller and
// threaded explicitly into the stores; there is no package-level connection.
func InitDB(databasePath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", databasePath, err)
	}

	// sqlite serializes writers anyway, and PRAGMAs only apply to the
	// connection that ran them, so keep the pool at a single connection.
	db.SetMaxOpenConns(1)

	// Cascading deletes (portfolio -> transactions/stock_info) rely on this.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	migratePortfolioTable(db)

	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.", "databasePath", databasePath)
	}
	return db, nil
}

func createTables(db *sql.DB) error {
	createTableStatement := `
	CREATE TABLE IF NOT EXISTS portfolios (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		display_order INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		portfolio_id INTEGER NOT NULL,
		ticker TEXT NOT NULL,
		type TEXT NOT NULL CHECK(type IN ('BUY', 'SELL', 'DIVIDEND', 'DIVIDEND_REINVEST')),
		quantity REAL NOT NULL,
		price REAL NOT NULL,
		total REAL NOT NULL,
		date TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (portfolio_id) REFERENCES portfolios (id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS stock_info (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		portfolio_id INTEGER NOT NULL,
		ticker TEXT NOT NULL,
		market_price REAL,
		dividend_frequency TEXT,
		dividend_per_share REAL,
		last_dividend_date TEXT,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(portfolio_id, ticker),
		FOREIGN KEY (portfolio_id) REFERENCES portfolios (id) ON DELETE CASCADE
	);
	`
	if _, err := db.Exec(createTableStatement); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// migratePortfolioTable adds the display_order column to portfolios created
// before tab reordering existed.
func migratePortfolioTable(db *sql.DB) {
	var tableName string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='portfolios'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'portfolios' table", "error", err)
		}
		return
	}

	rows, err := db.Query("PRAGMA table_info(portfolios)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'portfolios'", "error", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}

		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'portfolios'", "error", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'portfolios'", "error", err)
		}
		return
	}

	if _, ok := columnExists["display_order"]; !ok {
		if _, err := db.Exec("ALTER TABLE portfolios ADD COLUMN display_order INTEGER NOT NULL DEFAULT 0"); err != nil {
			if logger.L != nil {
				logger.L.Error("Error adding 'display_order' column to 'portfolios' table", "error", err)
			}
		} else if logger.L != nil {
			logger.L.Info("Added 'display_order' column to 'portfolios' table")
		}
	}
}
