package setup

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// RunMigration applies db/migrations from the repository root.
func RunMigration(pgURL string, t *testing.T) error {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return errors.New("failed to locate migration directory")
	}

	migrationPath, err := filepath.Abs(filepath.Join(filepath.Dir(file), "..", "..", "..", "db", "migrations"))
	if err != nil {
		return fmt.Errorf("failed to resolve migration path: %w", err)
	}

	t.Logf("Running migrations from %s", migrationPath)

	m, err := migrate.New("file://"+migrationPath, pgURL)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
