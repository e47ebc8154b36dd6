package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/migrate"
)

type options struct {
	cmd      string
	dir      string
	name     string
	version  string
	embedded bool
}

func main() {
	logg := logger.New(logger.Options{ServiceName: "migrate"})
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.cmd, "cmd", "up", "migration command: up|down|status|version|create|validate")
	flag.StringVar(&opts.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&opts.name, "name", "", "migration name (for create)")
	flag.StringVar(&opts.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.BoolVar(&opts.embedded, "embedded", false, "use the migrations compiled into the binary")
	flag.Parse()

	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": opts.cmd, "dir": opts.dir})
	if err := run(ctx, logg, opts); err != nil {
		logg.Error(ctx, "migration command failed", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logg *logger.Logger, opts options) error {
	// create and validate only touch the filesystem
	switch opts.cmd {
	case "create":
		if opts.name == "" {
			return fmt.Errorf("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(opts.dir, opts.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	case "validate":
		if err := migrate.ValidateDir(opts.dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})
	ctx = logg.WithField(ctx, "env", cfg.App.Env)

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer client.Close()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	logg.Info(ctx, "migrate ready")
	return apply(ctx, sqlDB, logg, opts)
}

func apply(ctx context.Context, sqlDB *sql.DB, logg *logger.Logger, opts options) error {
	var (
		migrator *migrate.Migrator
		err      error
	)
	if opts.embedded {
		migrator, err = migrate.NewEmbedded(sqlDB, logg)
	} else {
		migrator, err = migrate.NewFromDir(sqlDB, opts.dir, logg)
	}
	if err != nil {
		return err
	}

	switch opts.cmd {
	case "up", "down", "status":
		return migrator.Apply(ctx, opts.cmd)
	case "version":
		if opts.version == "" {
			return fmt.Errorf("missing -version for version command")
		}
		return migrator.To(ctx, opts.version)
	default:
		return fmt.Errorf("unknown -cmd value %q", opts.cmd)
	}
}
