package migrate

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/angelmondragon/mealdash-backend/pkg/config"
	"github.com/angelmondragon/mealdash-backend/pkg/db"
	"github.com/angelmondragon/mealdash-backend/pkg/db/schema"
	"github.com/angelmondragon/mealdash-backend/pkg/logger"
)

// MaybeRunDev brings a dev database up to date on boot when
// MEALDASH_AUTO_MIGRATE is set. SQLite gets the embedded schema because the
// goose files use Postgres-only DDL.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	ctx = logg.WithFields(ctx, map[string]any{"driver": cfg.DB.Driver, "dir": DefaultDir})

	if cfg.DB.IsSQLite() {
		logg.Info(ctx, "applying embedded sqlite schema")
		return schema.ApplySQLite(ctx, client.DB())
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	runner, err := NewRunner(sqlDB, goose.DialectPostgres, DefaultDir, logg)
	if err != nil {
		return err
	}
	if err := runner.Exec(ctx, "up"); err != nil {
		return err
	}
	version, err := runner.Version(ctx)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "version", version), "dev migrations up to date")
	return nil
}
