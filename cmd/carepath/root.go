package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/carepath/internal/config"
	"github.com/aretw0/carepath/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "carepath",
	Short: "Carepath guides patients through a hospital visit",
	Long: `Carepath tracks each patient's journey from arrival to departure, turning location
updates, patient messages and hospital signals into ordered journey steps.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config-file")
		loaded, err := config.Load(config.New(), cmd.Flags(), configFile)
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(logging.ParseLevel(cfg.LogLevel))
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	config.RegisterFlags(rootCmd.PersistentFlags())
}
