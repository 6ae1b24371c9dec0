package db

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateURLRewritesScheme(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@localhost:5432/salesops?sslmode=disable", migrateURL("postgres://u:p@localhost:5432/salesops?sslmode=disable"))
	assert.Equal(t, "pgx5://localhost/salesops", migrateURL("postgresql://localhost/salesops"))
	assert.Equal(t, "pgx5://already", migrateURL("pgx5://already"))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	assert.Equal(t, ups, downs)
}
