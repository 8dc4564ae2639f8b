package postgres

import (
	"io/fs"
	"testing"

	"innkeep/pkg/logger"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFiles_Embedded(t *testing.T) {
	files, err := fs.Glob(migrationFiles, MigrationsDir+"/*.sql")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"sql/00001_create_hotels.sql",
		"sql/00002_create_bookings.sql",
		"sql/00003_bookings_outlive_hotels.sql",
	}, files)
}

func TestMigrationFiles_CollectInOrder(t *testing.T) {
	require.NoError(t, setup(logger.Discard()))
	t.Cleanup(func() { goose.SetBaseFS(nil) })

	migrations, err := goose.CollectMigrations(MigrationsDir, 0, goose.MaxVersion)
	require.NoError(t, err)
	require.Len(t, migrations, 3)
	for i, m := range migrations {
		assert.Equal(t, int64(i+1), m.Version)
	}
}
