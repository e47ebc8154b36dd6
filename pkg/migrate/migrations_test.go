package migrate

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsDirIsValid(t *testing.T) {
	require.NoError(t, ValidateDir("migrations"))
}

func TestMigrationsCarryInvariantIndexes(t *testing.T) {
	var all strings.Builder
	err := fs.WalkDir(embeddedMigrations, embeddedDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		b, readErr := fs.ReadFile(embeddedMigrations, path)
		if readErr != nil {
			return readErr
		}
		all.Write(b)
		return nil
	})
	require.NoError(t, err)

	content := all.String()
	checks := []string{
		"CREATE TABLE IF NOT EXISTS cart_items",
		"CONSTRAINT cart_items_cart_variant_key UNIQUE (cart_id, variant_id)",
		"CREATE UNIQUE INDEX IF NOT EXISTS carts_user_active_key ON carts (user_id) WHERE is_active",
		"CREATE UNIQUE INDEX IF NOT EXISTS addresses_default_ship_key",
		"CREATE UNIQUE INDEX IF NOT EXISTS addresses_default_bill_key",
		"stock integer NOT NULL DEFAULT 0 CHECK (stock >= 0)",
		"CREATE TABLE IF NOT EXISTS order_items",
	}
	for _, sub := range checks {
		assert.Contains(t, content, sub)
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()
	path, err := CreateSQLMigration(dir, "Add Gift Cards!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "_add_gift_cards.sql"))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "-- +goose Up")
	require.NoError(t, ValidateDir(dir))

	_, err = CreateSQLMigration(dir, "!!!")
	assert.Error(t, err)
}

func TestValidateDirRejectsBadNames(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "001_bad.sql"), []byte("-- +goose Up\n-- +goose Down\n"), 0o644))
	assert.Error(t, ValidateDir(dir))
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, ValidateEmbedded())
}

func TestValidateRejectsDownBeforeUp(t *testing.T) {
	dir := t.TempDir()
	body := []byte("-- +goose Down\nDROP TABLE x;\n-- +goose Up\nCREATE TABLE x (id int);\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20250101000000_flip.sql"), body, 0o644))
	assert.Error(t, ValidateDir(dir))
}

func TestCreateSQLMigrationRefusesExistingVersion(t *testing.T) {
	dir := t.TempDir()
	at := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	path, err := createSQLMigration(dir, "Crème Brûlée Bundles", at)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20261017093000_creme_brulee_bundles.sql"), path)

	_, err = createSQLMigration(dir, "creme brulee bundles", at)
	assert.Error(t, err)
}
