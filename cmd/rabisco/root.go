/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lewtec/rabisco/annotation"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rabisco [config.yaml]",
	Short: "Annotate PDF pages and images in the browser",
	Long: strings.TrimSpace(`
Open a PDF or an image, draw text, shapes, arrows, checkmarks, freehand strokes and highlights over its pages and export each page with the annotations flattened onto it.

Without a config file the defaults are used. Flags override the values of the config file.
    `),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(args)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			config.Server.Addr = addr
		}
		if database, _ := cmd.Flags().GetString("database"); database != "" {
			config.Database = database
		}
		annotation.SetLanguage(config.Language)

		db, err := annotation.GetDatabase(config.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		exporter, err := annotation.NewDirExporter(config.Export.Dir)
		if err != nil {
			return err
		}

		app := &annotation.EditorApp{
			Database: db,
			Config:   config,
			Exporter: exporter,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		go app.Sessions().Run(ctx)

		server := &http.Server{
			Addr:    config.Server.Addr,
			Handler: app.GetHTTPHandler(),
		}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("http: while shutting down: %s", err)
			}
		}()

		log.Printf("Database: %s", config.Database)
		log.Printf("Exports: %s", config.Export.Dir)
		log.Printf("Export format: %s at scale %g", config.Export.Format, config.Export.Scale)
		if opts := config.DocumentOptions(); len(opts.Command) > 0 {
			log.Printf("PDF rasterizer: %s", strings.Join(opts.Command, " "))
		}
		log.Printf("Starting server on: %s", config.Server.Addr)

		err = server.ListenAndServe()
		app.Sessions().CloseAll(context.Background())
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	},
}

// loadConfig reads the optional config argument, falling back to defaults
func loadConfig(args []string) (*annotation.Config, error) {
	if len(args) == 0 {
		return annotation.DefaultConfig(), nil
	}
	config, err := annotation.LoadConfig(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log.Printf("Configuration: %s", args[0])
	return config, nil
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.Flags().StringP("addr", "a", "", "Address to bind the webserver (default from config, :8080)")
	rootCmd.Flags().StringP("database", "d", "", "Database file path (default from config, rabisco.db)")
}
