package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/carepath"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of carepath",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("carepath version %s\n", strings.TrimSpace(carepath.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
