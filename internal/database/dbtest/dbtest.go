// Package dbtest opens throwaway sqlite databases for package tests.
package dbtest

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"crowdfund/internal/database"
)

// New returns a migrated database backed by a file in t.TempDir.
func New(t testing.TB) *database.Database {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", filepath.Join(t.TempDir(), "test.db"))
	db, err := database.New(database.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}
