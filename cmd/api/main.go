package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/viortio/core/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "viortio",
		Short: "viortio task tracker",
		Long:  `viortio is a personal task tracker serving both HTML pages and a JSON API over the same task list.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
