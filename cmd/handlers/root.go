package handlers

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"brandforge/internal/config"
)

var (
	cfgFile     string
	projectFile string
)

// NewRootCmd creates the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "brandforge",
		Short: "Brandforge generates and manages social content plans for a brand.",
		Long: `Brandforge is a content workspace for small brands: it generates a brand
foundation and multi-week media plans, suggests affiliate products to promote
in each post, and syncs the whole project to a remote store.`,
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.brandforge.yaml)")
	rootCmd.PersistentFlags().StringVar(&projectFile, "project", "", "project snapshot file (default from config)")

	rootCmd.AddCommand(NewGenerateCmd())
	rootCmd.AddCommand(NewSuggestCmd())
	rootCmd.AddCommand(NewSyncCmd())
	rootCmd.AddCommand(NewProjectCmd())
	rootCmd.AddCommand(NewImportCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
}
