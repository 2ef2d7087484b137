package migration

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add lots table", "add_lots_table"},
		{"Add-Lots-Table", "add_lots_table"},
		{"ADD_LOTS_TABLE", "add_lots_table"},
		{"add__lots__table", "add_lots_table"},
		{"Seed Settings 2", "seed_settings_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("-- test"), 0o644))
	}
}

func TestCreateMigration(t *testing.T) {
	t.Run("first migration in empty dir", func(t *testing.T) {
		dir := t.TempDir()

		mf, err := CreateMigration(dir, "add waste shift", "Track shift on waste records")
		require.NoError(t, err)

		assert.Equal(t, "000001", mf.Version)
		assert.Equal(t, "000001_add_waste_shift.up.sql", filepath.Base(mf.UpPath))
		assert.Equal(t, "000001_add_waste_shift.down.sql", filepath.Base(mf.DownPath))

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "add waste shift")
		assert.Contains(t, string(up), "Track shift on waste records")

		down, err := os.ReadFile(mf.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(down), "Rollback")
	})

	t.Run("numbers after highest existing version", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir,
			"000001_init_schema.up.sql", "000001_init_schema.down.sql",
			"000009_promos.up.sql", "000009_promos.down.sql",
			"000002_seed_settings.up.sql", "000002_seed_settings.down.sql",
		)

		mf, err := CreateMigration(dir, "lot notes", "")
		require.NoError(t, err)
		assert.Equal(t, "000010", mf.Version)
	})

	t.Run("creates nested directory", func(t *testing.T) {
		nested := filepath.Join(t.TempDir(), "nested", "migrations")

		_, err := CreateMigration(nested, "test", "test migration")
		require.NoError(t, err)

		info, err := os.Stat(nested)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("sorted by version", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir,
			"000010_tenth.up.sql", "000010_tenth.down.sql",
			"000001_init_schema.up.sql", "000001_init_schema.down.sql",
			"000002_seed_settings.up.sql", "000002_seed_settings.down.sql",
		)

		got, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_init_schema", "000002_seed_settings", "000010_tenth"}, got)
	})

	t.Run("nonexistent directory", func(t *testing.T) {
		got, err := ListMigrations("/nonexistent/path/to/migrations")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ignores other files and directories", func(t *testing.T) {
		dir := t.TempDir()
		writeFiles(t, dir, "000001_init.up.sql", "000001_init.down.sql", "README.md", "notes.up.sql", ".gitkeep")
		require.NoError(t, os.Mkdir(filepath.Join(dir, "000002_dir.up.sql"), 0o755))

		got, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_init"}, got)
	})
}

func TestEmbeddedSource(t *testing.T) {
	src, err := EmbeddedSource()
	require.NoError(t, err)
	defer src.Close()

	first, err := src.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	r, _, err := src.ReadUp(first)
	require.NoError(t, err)
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	_ = r.Close()
	for _, table := range []string{"lots", "sales", "sale_items", "waste", "margin_rules", "promos", "settings", "audit_log"} {
		assert.Contains(t, string(body), "CREATE TABLE "+table+" ", table)
	}

	next, err := src.Next(first)
	require.NoError(t, err)
	r, _, err = src.ReadUp(next)
	require.NoError(t, err)
	body, err = io.ReadAll(r)
	require.NoError(t, err)
	_ = r.Close()
	assert.True(t, strings.Contains(string(body), "'margin_min_percent', '0.22'"))

	// every up has a down
	for v := first; ; {
		rd, _, err := src.ReadDown(v)
		require.NoError(t, err, "version %d", v)
		_ = rd.Close()
		if v, err = src.Next(v); err != nil {
			break
		}
	}
}

func TestOpenFS_RejectsMalformedNames(t *testing.T) {
	fsys := fstest.MapFS{
		"000001_ok.up.sql":   {Data: []byte("SELECT 1;")},
		"000001_ok.down.sql": {Data: []byte("SELECT 1;")},
		"000001_dup.up.sql":  {Data: []byte("SELECT 1;")},
	}
	_, err := openFS(fsys)
	assert.Error(t, err)
}

func TestSourceURL(t *testing.T) {
	assert.Equal(t, "iofs", Source{}.url())
	assert.Equal(t, "file://./migrations", Source{Path: "./migrations"}.url())
}
