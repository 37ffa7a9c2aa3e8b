package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/lewtec/rabisco/annotation"
	"github.com/lewtec/rabisco/internal/domain"
	"github.com/lewtec/rabisco/internal/render"
	"github.com/lewtec/rabisco/internal/repository"
	"github.com/spf13/cobra"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export [flags] file",
	Short: "Flatten annotations onto the pages of a document",
	Long: `Render pages of a document with their annotations and write one file per page,
named {document}_page{N}.{ext}.

Annotations come from a JSON file mapping page numbers to annotation lists,
or from the database the editor saved them to.

Examples:
  # Every page, annotations saved by the editor
  rabisco export -d rabisco.db report.pdf

  # Page 2 as a JPEG, annotations from a file
  rabisco export -a notes.json -p 2 -f jpeg -o out report.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := configFromFlag(cmd)
		if err != nil {
			return err
		}
		formatName, _ := cmd.Flags().GetString("format")
		format, err := render.ParseFormat(stringOr(formatName, config.Export.Format))
		if err != nil {
			return err
		}
		page, _ := cmd.Flags().GetInt("page")
		opts := annotation.ExportOptions{
			Scale:       config.Export.Scale,
			JPEGQuality: config.Export.JPEGQuality,
		}
		if scale, _ := cmd.Flags().GetFloat64("scale"); scale > 0 {
			opts.Scale = scale
		}
		outputDir, _ := cmd.Flags().GetString("output")

		doc, err := annotation.OpenDocumentFile(cmd.Context(), args[0], config.DocumentOptions())
		if err != nil {
			return err
		}
		defer doc.Source.Close()

		pages, err := loadPageMap(cmd, doc)
		if err != nil {
			return err
		}

		exporter, err := annotation.NewDirExporter(stringOr(outputDir, config.Export.Dir))
		if err != nil {
			return err
		}

		first, last := 1, doc.Source.PageCount()
		if page != 0 {
			if page < 1 || page > last {
				return fmt.Errorf("page %d is out of range, %s has %d pages", page, doc.Name, last)
			}
			first, last = page, page
		}
		for p := first; p <= last; p++ {
			artifact, err := annotation.ExportPage(cmd.Context(), doc, p, pages[p], format, opts)
			if err != nil {
				return err
			}
			path, err := exporter.Write(artifact)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d annotations\n", path, len(pages[p]))
		}
		return nil
	},
}

// loadPageMap reads the annotations of doc from --annotations or --database
func loadPageMap(cmd *cobra.Command, doc *annotation.LoadedDocument) (domain.PageMap, error) {
	annotationsFile, _ := cmd.Flags().GetString("annotations")
	database, _ := cmd.Flags().GetString("database")
	switch {
	case annotationsFile != "" && database != "":
		return nil, fmt.Errorf("--annotations and --database are mutually exclusive")
	case annotationsFile != "":
		data, err := os.ReadFile(annotationsFile)
		if err != nil {
			return nil, err
		}
		var pages domain.PageMap
		if err := json.Unmarshal(data, &pages); err != nil {
			return nil, fmt.Errorf("while parsing '%s': %w", annotationsFile, err)
		}
		return pages, nil
	case database != "":
		db, err := annotation.GetDatabase(database)
		if err != nil {
			return nil, err
		}
		defer db.Close()
		return repository.NewAnnotationRepository(db).Load(cmd.Context(), doc.SHA256)
	}
	return domain.PageMap{}, nil
}

// configFromFlag loads --config when given
func configFromFlag(cmd *cobra.Command) (*annotation.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	if configFile == "" {
		return loadConfig(nil)
	}
	return loadConfig([]string{configFile})
}

func stringOr(str, or string) string {
	if str != "" {
		return str
	}
	return or
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("config", "c", "", "Config file with export and renderer settings")
	exportCmd.Flags().StringP("annotations", "a", "", "JSON file mapping page numbers to annotations")
	exportCmd.Flags().StringP("database", "d", "", "Database with the annotations saved by the editor")
	exportCmd.Flags().IntP("page", "p", 0, "Page to export, 0 exports every page")
	exportCmd.Flags().Float64P("scale", "s", 0, "Raster scale (default from config, 2)")
	exportCmd.Flags().StringP("format", "f", "", "Output format: png, jpeg or pdf (default from config)")
	exportCmd.Flags().StringP("output", "o", "", "Output directory (default from config, exports)")
}
