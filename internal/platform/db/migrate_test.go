package db

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"peopleops/migrations"
)

func TestMigrationFilesSortedAndFiltered(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_b.sql":   {Data: []byte("SELECT 2")},
		"0001_a.sql":   {Data: []byte("SELECT 1")},
		"README.md":    {Data: []byte("notes")},
		"nested/x.sql": {Data: []byte("SELECT 3")},
	}
	files, err := migrationFiles(fsys)
	require.NoError(t, err)
	require.Equal(t, []string{"0001_a.sql", "0002_b.sql"}, files)
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	files, err := migrationFiles(migrations.FS)
	require.NoError(t, err)
	require.NotEmpty(t, files)
	require.Equal(t, "0001_identities.sql", files[0])
}
