package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB returns a migrated SQLite database in a temp directory.
func openTestDB(t *testing.T) (*sqlx.DB, *Queries) {
	t.Helper()

	conn, err := Open("sqlite://" + filepath.Join(t.TempDir(), "flowkeeper.db"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, MigrateUp(context.Background(), conn))

	queries, err := LoadQueries(conn)
	require.NoError(t, err)
	return conn, queries
}

func TestDataSourceFromURL(t *testing.T) {
	tests := []struct {
		name       string
		url        string
		wantDriver string
		wantSource string
		wantErr    bool
	}{
		{name: "relative sqlite", url: "sqlite://data.db", wantDriver: "sqlite3", wantSource: "data.db?" + sqliteDefaultParams},
		{name: "absolute sqlite", url: "sqlite:///var/lib/fk.db", wantDriver: "sqlite3", wantSource: "/var/lib/fk.db?" + sqliteDefaultParams},
		{name: "sqlite with params", url: "sqlite:///tmp/fk.db?_busy_timeout=100", wantDriver: "sqlite3", wantSource: "/tmp/fk.db?_busy_timeout=100"},
		{name: "postgres", url: "postgres://u:p@localhost:5432/fk?sslmode=disable", wantDriver: "postgres", wantSource: "postgres://u:p@localhost:5432/fk?sslmode=disable"},
		{name: "unsupported", url: "mysql://localhost/fk", wantErr: true},
		{name: "sqlite without path", url: "sqlite://", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			driver, source, err := dataSourceFromURL(tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDriver, driver)
			assert.Equal(t, tt.wantSource, source)
		})
	}
}

func TestMigrations(t *testing.T) {
	ctx := context.Background()
	conn, _ := openTestDB(t)

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, MigrateUp(ctx, conn))
	})

	t.Run("status reports applied", func(t *testing.T) {
		statuses, err := MigrateStatus(ctx, conn)
		require.NoError(t, err)
		require.NotEmpty(t, statuses)
		for _, s := range statuses {
			assert.True(t, s.Applied, s.ID)
			assert.NotNil(t, s.AppliedAt, s.ID)
			assert.Len(t, s.Checksum, 64)
		}
	})

	t.Run("checksum mismatch detected", func(t *testing.T) {
		_, err := conn.Exec("UPDATE migrations SET checksum = 'tampered'")
		require.NoError(t, err)
		err = MigrateUp(ctx, conn)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "checksum mismatch")
	})
}

func TestSplitStatements(t *testing.T) {
	script := `-- leading comment
CREATE TABLE a (id INTEGER);

-- second
CREATE INDEX idx ON a(id);
-- trailing only
`
	got := splitStatements(script)
	require.Len(t, got, 2)
	assert.Equal(t, "CREATE TABLE a (id INTEGER)", got[0])
	assert.Equal(t, "CREATE INDEX idx ON a(id)", got[1])
}

func TestQueries(t *testing.T) {
	_, queries := openTestDB(t)

	t.Run("known query", func(t *testing.T) {
		raw, err := queries.Raw("get-flow-ctrl")
		require.NoError(t, err)
		assert.Contains(t, raw, "FROM group_flow_ctrl")
	})

	t.Run("unknown query", func(t *testing.T) {
		_, err := queries.Raw("no-such-query")
		assert.Error(t, err)
	})
}
