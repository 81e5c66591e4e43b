package database

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestMigrationNamesSorted(t *testing.T) {
	fsys := fstest.MapFS{
		"migrations/002_b.sql": {Data: []byte("SELECT 1")},
		"migrations/001_a.sql": {Data: []byte("SELECT 1")},
		"migrations/README.md": {Data: []byte("notes")},
		"migrations/old/x.sql": {Data: []byte("SELECT 1")},
	}
	names, err := migrationNames(fsys)
	require.NoError(t, err)
	require.Equal(t, []string{"001_a.sql", "002_b.sql"}, names)
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := migrationNames(migrationsFS)
	require.NoError(t, err)
	require.Contains(t, names, "001_collections.sql")
}
