package database

import (
	"database/sql"
	stdlog "log"

	"github.com/atlasfin/engine/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateCalculationTable()

	// Monetary strings in result_json stay within DECIMAL(19,4) for money
	// and DECIMAL(19,8) for quantities; sqlite stores them as written.
	createTableStatement := `
	CREATE TABLE IF NOT EXISTS calculations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		user_id TEXT NOT NULL DEFAULT 'anonymous',
		operation TEXT NOT NULL,
		request_hash TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(request_id)
	);

	CREATE INDEX IF NOT EXISTS idx_calculations_user_created
		ON calculations(user_id, created_at);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

func migrateCalculationTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='calculations'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			if logger.L != nil {
				logger.L.Info("'calculations' table does not exist, no migration needed as table will be created.")
			} else {
				stdlog.Println("'calculations' table does not exist, no migration needed as table will be created.")
			}
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'calculations' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'calculations' table: %v", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(calculations)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'calculations'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'calculations': %v", err)
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
				logger.L.Error("Error scanning column info for 'calculations'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'calculations': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'calculations'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'calculations': %v", err)
		}
		return
	}

	if _, ok := columnExists["user_id"]; !ok {
		_, err := DB.Exec("ALTER TABLE calculations ADD COLUMN user_id TEXT NOT NULL DEFAULT 'anonymous'")
		if err != nil {
			if logger.L != nil {
				logger.L.Error("Error adding 'user_id' column to 'calculations' table", "error", err)
			} else {
				stdlog.Printf("Error adding 'user_id' column to 'calculations' table: %v", err)
			}
		} else {
			if logger.L != nil {
				logger.L.Info("Added 'user_id' column to 'calculations' table")
			} else {
				stdlog.Println("Added 'user_id' column to 'calculations' table")
			}
		}
	}

	if _, ok := columnExists["request_hash"]; !ok {
		_, err := DB.Exec("ALTER TABLE calculations ADD COLUMN request_hash TEXT NOT NULL DEFAULT ''")
		if err != nil {
			if logger.L != nil {
				logger.L.Error("Error adding 'request_hash' column to 'calculations' table", "error", err)
			} else {
				stdlog.Printf("Error adding 'request_hash' column to 'calculations' table: %v", err)
			}
		} else {
			if logger.L != nil {
				logger.L.Info("Added 'request_hash' column to 'calculations' table")
			} else {
				stdlog.Println("Added 'request_hash' column to 'calculations' table")
			}
		}
	}
}
