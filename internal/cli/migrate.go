package cli

import (
	"roommate_go/pkg/storage/migrations"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Применить миграции Postgres",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()
		if cfg.Storage != "postgres" {
			return errors.Errorf("migrations apply to postgres storage, got %q", cfg.Storage)
		}
		store, err := openStorage(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := migrations.Apply(cmd.Context(), store.SQL); err != nil {
			return err
		}
		names, _ := migrations.Files()
		log.Info("[MIGRATE] миграции применены", zap.Strings("files", names))
		return nil
	},
}
