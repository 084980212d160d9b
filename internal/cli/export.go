package cli

import (
	"os"

	"roommate_go/internal/export"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	exportOut     string
	exportDeleted bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Выгрузить все документы в zstd NDJSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer log.Sync()
		store, err := openStorage(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()

		f, err := os.Create(exportOut)
		if err != nil {
			return errors.Wrap(err, "create output")
		}
		n, err := export.Write(cmd.Context(), store.Repo, f, exportDeleted)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
		log.Info("[EXPORT] выгрузка записана", zap.String("file", exportOut), zap.Int("documents", n))
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "roommate.ndjson.zst", "файл выгрузки")
	exportCmd.Flags().BoolVar(&exportDeleted, "deleted", false, "включить удалённые документы")
}
