package annotation

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"

	"github.com/lewtec/rabisco/internal/repository"
)

// GetDatabase opens the SQLite database at filename and migrates it to the
// current schema.
func GetDatabase(filename string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", filename+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("while opening database '%s': %w", filename, err)
	}
	if filename == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	log.Printf("db: migrating %s", filename)
	if err := repository.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
