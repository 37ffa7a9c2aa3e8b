/*
Copyright © 2023 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"fmt"
	"sort"

	"github.com/lewtec/rabisco/annotation"
	"github.com/lewtec/rabisco/internal/repository"
	"github.com/spf13/cobra"
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query [flags] database [document_sha256]",
	Short: "Queries the annotation database",
	Long: `Query the documents and annotations saved by the editor.

Examples:
  # List documents with their annotation count
  rabisco query rabisco.db

  # Annotation count per page of a document
  rabisco query rabisco.db 3a7bd3e2360a3d29eea436fcfb7e44c735d117c42d1c1835420b6b9942dd4f1b`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := annotation.GetDatabase(args[0])
		if err != nil {
			return err
		}
		defer db.Close()

		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		documents := repository.NewDocumentRepository(db)
		annotations := repository.NewAnnotationRepository(db)

		if len(args) == 1 {
			limit, _ := cmd.Flags().GetInt("limit")
			docs, err := documents.List(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "sha256\tfilename\tpages\tannotations")
			for _, doc := range docs {
				n, err := annotations.CountByDocument(ctx, doc.SHA256)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\t%s\t%d\t%d\n", doc.SHA256, doc.Filename, doc.PageCount, n)
			}
			return nil
		}

		doc, err := documents.GetBySHA256(ctx, args[1])
		if err != nil {
			return err
		}
		if doc == nil {
			return fmt.Errorf("document %s not found", args[1])
		}
		counts, err := annotations.CountByPage(ctx, doc.SHA256)
		if err != nil {
			return err
		}
		pages := make([]int, 0, len(counts))
		for page := range counts {
			pages = append(pages, page)
		}
		sort.Ints(pages)
		fmt.Fprintln(out, "page\tannotations")
		for _, page := range pages {
			fmt.Fprintf(out, "%d\t%d\n", page, counts[page])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)

	queryCmd.Flags().IntP("limit", "l", 0, "Maximum number of documents to list, 0 lists every document")
}
