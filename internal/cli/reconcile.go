package cli

import (
	"encoding/json"

	"roommate_go/internal/maintenance"

	"github.com/spf13/cobra"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Однократно пересчитать счётчики, подписки и участников кампаний",
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
		rep, err := maintenance.NewReconciler(store.Repo, log).Run(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	},
}
