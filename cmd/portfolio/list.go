package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ntuthuko-dev/Web-Solution/internal/gallery"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the projects in the portfolio",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		projects := app.Projects.Projects()
		out := cmd.OutOrStdout()

		if listJSON {
			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(projects)
		}

		fmt.Fprintf(out, "%s (%s)\n", gallery.CountLabel(len(projects)), app.Projects.Mode())
		for _, p := range projects {
			fmt.Fprintf(out, "%s  %s  [%s]\n", p.ID, p.Title, p.Category)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
}
