package main

import (
	"fmt"
	"os"

	"github.com/lewtec/rabisco/annotation"
	"github.com/spf13/cobra"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [config.yaml]",
	Short: "Create a sample configuration and an empty database",
	Long: `Create a sample configuration file and the database it points to.

An existing configuration file is kept as is.

Example:
  rabisco init
  rabisco init project.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		configFile := "config.yaml"
		if len(args) == 1 {
			configFile = args[0]
		}

		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			fmt.Fprintf(out, "Creating sample configuration file: %s\n", configFile)
			if err := os.WriteFile(configFile, []byte(annotation.SampleConfig), 0o644); err != nil {
				return fmt.Errorf("failed to create config file: %w", err)
			}
		} else {
			fmt.Fprintf(out, "Configuration file already exists: %s\n", configFile)
		}

		config, err := annotation.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if database, _ := cmd.Flags().GetString("database"); database != "" {
			config.Database = database
		}

		fmt.Fprintf(out, "Creating database: %s\n", config.Database)
		db, err := annotation.GetDatabase(config.Database)
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		defer db.Close()

		fmt.Fprintln(out, "\nNext steps:")
		fmt.Fprintln(out, "  1. Review and customize your config file:", configFile)
		fmt.Fprintf(out, "  2. Start the editor: rabisco %s\n", configFile)
		fmt.Fprintf(out, "\nThen open http://localhost%s in your browser\n", config.Server.Addr)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringP("database", "d", "", "Database file to create (default from config)")
}
