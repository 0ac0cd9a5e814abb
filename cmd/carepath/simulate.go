package main

import (
	"encoding/json"
	"os"

	"github.com/aretw0/carepath/internal/cli"
	"github.com/spf13/cobra"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [script.yaml]",
	Short: "Play scripted patient journeys against the engine",
	Long: `Runs every session of a YAML script concurrently and prints a JSON summary per patient.
See testdata/simulation.yaml for the script format.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		script, err := cli.LoadScript(args[0])
		if err != nil {
			return err
		}

		app, err := cli.Build(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		results, err := cli.Simulate(cmd.Context(), app.Engine, script)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	},
}

func init() {
	rootCmd.AddCommand(simulateCmd)
}
