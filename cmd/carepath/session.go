package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/aretw0/carepath/internal/cli"
	"github.com/spf13/cobra"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage persisted journey sessions",
	Long: `Inspect and end sessions held by the configured store.
The memory store lives only inside a running process, so use --store file or redis here.`,
}

var sessionLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List active sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Build(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		sessions, err := app.Engine.ListSessions(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		if len(sessions) == 0 {
			fmt.Println("No active sessions found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SESSION\tPATIENT\tSTAGE\tEMERGENCY\tUPDATED")
		for _, s := range sessions {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\n", s.SessionID, s.PatientID, s.Stage, s.EmergencyActive, s.LastUpdated.Format(time.RFC3339))
		}
		return w.Flush()
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect [session-id]",
	Short: "Print the full journey state of a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Build(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		state, err := app.Engine.GetState(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to load session %q: %w", args[0], err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(state)
	},
}

var sessionRmCmd = &cobra.Command{
	Use:     "rm [session-id...]",
	Aliases: []string{"delete", "end"},
	Short:   "End one or more sessions",
	Long:    "Ends each session, walking the patient out of the hospital and archiving it when an archive is configured.",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cli.Build(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		defer app.Close()

		for _, id := range args {
			if err := app.Engine.EndSession(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to end session %q: %w", id, err)
			}
			fmt.Printf("Session %q ended.\n", id)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}
