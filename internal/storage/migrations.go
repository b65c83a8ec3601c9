package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"path"
	"sort"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations executes all pending database migrations and returns the
// names of the ones it applied. Migrations are SQL files in the migrations/
// directory, named with a numeric prefix.
func RunMigrations(db *DB) ([]string, error) {
	if err := createMigrationsTable(db.DB); err != nil {
		return nil, fmt.Errorf("creating migrations table: %w", err)
	}

	applied, err := getAppliedMigrations(db.DB)
	if err != nil {
		return nil, fmt.Errorf("getting applied migrations: %w", err)
	}

	migrations, err := getMigrationFiles()
	if err != nil {
		return nil, fmt.Errorf("reading migration files: %w", err)
	}

	var done []string
	for _, m := range migrations {
		if applied[m.Name] {
			continue
		}

		log.Printf("Applying migration: %s", m.Name)
		if err := applyMigration(db, m); err != nil {
			return done, fmt.Errorf("applying migration %s: %w", m.Name, err)
		}
		done = append(done, m.Name)
	}

	return done, nil
}

type migration struct {
	Name    string
	Content string
}

func createMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS _migrations (
			name TEXT PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func getAppliedMigrations(db *sql.DB) (map[string]bool, error) {
	rows, err := db.Query("SELECT name FROM _migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		applied[name] = true
	}

	return applied, rows.Err()
}

// getMigrationFiles returns the embedded migrations ordered by file name.
func getMigrationFiles() ([]migration, error) {
	paths, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	migrations := make([]migration, 0, len(paths))
	for _, p := range paths {
		content, err := migrationsFS.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		migrations = append(migrations, migration{Name: path.Base(p), Content: string(content)})
	}

	return migrations, nil
}

func applyMigration(db *DB, m migration) error {
	return db.Transaction(context.Background(), func(tx *sql.Tx) error {
		if _, err := tx.Exec(m.Content); err != nil {
			return fmt.Errorf("executing SQL: %w", err)
		}
		if _, err := tx.Exec("INSERT INTO _migrations (name) VALUES (?)", m.Name); err != nil {
			return fmt.Errorf("recording migration: %w", err)
		}
		return nil
	})
}
