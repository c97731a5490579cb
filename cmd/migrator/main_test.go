package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingMigrations_OrdersUpFilesOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"0002_reseller_settings.up.sql",
		"0001_directory.down.sql",
		"0001_directory.up.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "0003_nested.up.sql"), 0o755))

	names, err := pendingMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_directory.up.sql", "0002_reseller_settings.up.sql"}, names)
}

func TestPendingMigrations_MissingDir(t *testing.T) {
	_, err := pendingMigrations(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestPendingMigrations_ShippedSet(t *testing.T) {
	names, err := pendingMigrations(filepath.Join("..", "..", "migrations"))
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_directory.up.sql", "0002_reseller_settings.up.sql"}, names)
}
