package main

import (
	"fmt"

	"github.com/lewtec/rabisco/annotation"
	"github.com/lewtec/rabisco/internal/document"
	"github.com/spf13/cobra"
)

// pagesCmd represents the pages command
var pagesCmd = &cobra.Command{
	Use:   "pages file",
	Short: "Print the pages of a document and their sizes",
	Long: `Print the page count of a PDF or image and the size of each page.

PDF sizes are in points, image sizes in pixels. Annotations use the same units.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		doc, err := annotation.OpenDocumentFile(cmd.Context(), args[0], document.Options{})
		if err != nil {
			return err
		}
		defer doc.Source.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\t%s\n", doc.Name, doc.SHA256)
		fmt.Fprintln(out, "page\twidth\theight")
		for page := 1; page <= doc.Source.PageCount(); page++ {
			w, h, err := doc.Source.PageSize(page)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%d\t%g\t%g\n", page, w, h)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pagesCmd)
}
