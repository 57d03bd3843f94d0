package database

import (
	"log"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect establishes a connection to PostgreSQL. An empty URL disables
// persistence and returns a nil handle.
func Connect(databaseURL string) (*sqlx.DB, error) {
	if databaseURL == "" {
		log.Println("[DB] DATABASE_URL not set; run records, presets and operators disabled")
		return nil, nil
	}

	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	// The stats worker and control handlers are the only users.
	db.SetMaxOpenConns(8)
	db.SetMaxIdleConns(2)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	log.Println("[DB] connected")
	return db, nil
}
