// Package cli содержит команды исполняемого файла roommate.
package cli

import (
	"os"

	"roommate_go/internal/config"
	"roommate_go/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "roommate",
	Short:         "Сервис подбора соседей и расселения по комнатам",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "файл с переменными окружения")
	rootCmd.AddCommand(serveCmd, migrateCmd, reconcileCmd, exportCmd)
}

// Execute запускает корневую команду и завершает процесс с кодом 1 при ошибке.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}

// setup читает конфигурацию и создаёт логгер.
func setup() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	log, err := logging.New(cfg.LogLevel, cfg.Debug)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, log, nil
}
