package migrate

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMigrationSlug(t *testing.T) {
	require.Equal(t, "add_sale_notes", migrationSlug("  Add Sale-Notes!! "))
	require.Equal(t, "", migrationSlug("???"))
}

func TestCreateSQLMigrationAtRefusesExistingVersion(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

	path, err := createSQLMigrationAt(dir, "add refunds", at)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "20261015093000_add_refunds.sql"), path)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, checkSections(string(body)))

	_, err = createSQLMigrationAt(dir, "add refunds", at)
	require.ErrorContains(t, err, "already exists")
}

func TestCheckSectionsRequiresUpBeforeDown(t *testing.T) {
	require.Error(t, checkSections("-- +goose Down\n-- +goose Up\n"))
	require.Error(t, checkSections("-- +goose Up\n"))
	require.NoError(t, checkSections("-- +goose Up\nSELECT 1;\n-- +goose Down\n"))
}
