package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

const (
	DefaultDir  = "pkg/migrate/migrations"
	embeddedDir = "migrations"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// Migrator applies the schema through a goose Provider, which keeps no
// package-level state between runs.
type Migrator struct {
	provider *goose.Provider
	logg     *logger.Logger
}

// NewFromDir reads migrations from dir on disk.
func NewFromDir(db *sql.DB, dir string, logg *logger.Logger) (*Migrator, error) {
	if dir == "" {
		return nil, errors.New("dir is required")
	}
	return newMigrator(db, os.DirFS(dir), goose.DialectPostgres, logg)
}

// NewEmbedded uses the migrations compiled into the binary.
func NewEmbedded(db *sql.DB, logg *logger.Logger) (*Migrator, error) {
	sub, err := fs.Sub(embeddedMigrations, embeddedDir)
	if err != nil {
		return nil, err
	}
	return newMigrator(db, sub, goose.DialectPostgres, logg)
}

func newMigrator(db *sql.DB, fsys fs.FS, dialect goose.Dialect, logg *logger.Logger) (*Migrator, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("goose provider: %w", err)
	}
	return &Migrator{provider: provider, logg: logg}, nil
}

// Apply runs up, down (one step) or status.
func (m *Migrator) Apply(ctx context.Context, command string) error {
	switch command {
	case "up":
		results, err := m.provider.Up(ctx)
		m.logResults(ctx, results...)
		return wrapGoose("up", err)
	case "down":
		result, err := m.provider.Down(ctx)
		if result != nil {
			m.logResults(ctx, result)
		}
		return wrapGoose("down", err)
	case "status":
		statuses, err := m.provider.Status(ctx)
		if err != nil {
			return wrapGoose("status", err)
		}
		for _, st := range statuses {
			m.log(ctx, map[string]any{
				"version":    st.Source.Version,
				"file":       st.Source.Path,
				"state":      string(st.State),
				"applied_at": st.AppliedAt,
			}, "migration.status")
		}
		return nil
	default:
		return fmt.Errorf("unknown migration command %q", command)
	}
}

// To migrates up or down to target, a YYYYMMDDHHMMSS version.
func (m *Migrator) To(ctx context.Context, target string) error {
	version, err := strconv.ParseInt(target, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid version %q (expected YYYYMMDDHHMMSS): %w", target, err)
	}
	current, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return wrapGoose("get db version", err)
	}

	switch {
	case current == version:
		return nil
	case current < version:
		results, err := m.provider.UpTo(ctx, version)
		m.logResults(ctx, results...)
		return wrapGoose(fmt.Sprintf("up-to %d", version), err)
	default:
		results, err := m.provider.DownTo(ctx, version)
		m.logResults(ctx, results...)
		return wrapGoose(fmt.Sprintf("down-to %d", version), err)
	}
}

// Version reports the latest applied migration.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	return m.provider.GetDBVersion(ctx)
}

func (m *Migrator) logResults(ctx context.Context, results ...*goose.MigrationResult) {
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		m.log(ctx, map[string]any{
			"version":     res.Source.Version,
			"file":        res.Source.Path,
			"direction":   res.Direction,
			"duration_ms": res.Duration.Milliseconds(),
		}, "migration.applied")
	}
}

func (m *Migrator) log(ctx context.Context, fields map[string]any, msg string) {
	if m.logg == nil {
		return
	}
	m.logg.Info(m.logg.WithFields(ctx, fields), msg)
}

func wrapGoose(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("goose %s: %w", op, err)
}
