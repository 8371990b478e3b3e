// Package testutil holds helpers shared by store-backed tests.
package testutil

import (
	"path/filepath"
	"testing"

	"libraryhub/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// NewDB opens a migrated sqlite database in a temp dir, closed on cleanup.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "library.db")
	db, err := database.OpenSQLite("file:"+path, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db))
	return db
}
