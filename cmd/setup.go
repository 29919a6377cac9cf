package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/musicbox/internal/shared"
	"github.com/desertthunder/musicbox/internal/storage"
	"github.com/urfave/cli/v3"
)

// Setup writes config.toml when missing and prepares the client storage database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if configPath == "" {
		configPath = r.configPath
	}
	if configPath == "" {
		configPath = "config.toml"
	}

	var config *shared.Config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using defaults", "error", err)
			config = shared.DefaultConfig()
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
			config = shared.DefaultConfig()
		} else {
			r.logger.Info("config file created", "path", configPath)
			r.writePlain("✓ Created %s\n", configPath)
			config = shared.DefaultConfig()
		}
	}

	path := config.Storage.StoragePath()
	if override := cmd.String("storage"); override != "" {
		path = shared.ExpandHome(override)
	}
	r.logger.Info("initializing storage", "path", path)

	db, err := storage.NewDatabase(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}
	defer db.Close()

	if cmd.Bool("rollback") {
		if err := storage.RollbackMigration(db); err != nil {
			return fmt.Errorf("%w: %v", shared.ErrStorage, err)
		}
		return r.writePlain("✓ Rolled back latest storage migration in %s\n", path)
	}

	if err := storage.RunMigrations(db); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrStorage, err)
	}

	r.writePlain("✓ Storage ready at %s\n", path)
	return r.writePlain("%s\n", shared.ResolveBaseURL(config.API, r.getenv).Hint())
}
