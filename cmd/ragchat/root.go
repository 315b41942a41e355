package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/ragchat-go/internal/config"
)

var (
	configPath string

	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ragchat",
	Short: "Retrieval-augmented therapeutic chat service",
	Long: `ragchat answers wellbeing questions with a local LLM grounded on
excerpts from a retrieval service. Questions containing self-harm indicators
are answered with emergency resources and never reach the model.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = cfg.Log.NewLogger(os.Stderr)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("RAGCHAT_CONFIG"),
		"path to a YAML config file (env RAGCHAT_CONFIG)")

	rootCmd.AddCommand(serveCmd, askCmd, reindexCmd)
}
