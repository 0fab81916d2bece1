package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/necyberteam/qabot"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of qabot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("qabot version %s\n", qabot.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
