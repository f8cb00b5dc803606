package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/assets"
	"github.com/Ntuthuko-dev/Web-Solution/internal/projects/domain"
)

var (
	addDraft domain.Draft
	addFile  string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a project to the portfolio",
	Long: `Add appends a project and saves the whole collection. The image is either
an existing URL (--image) or a local file (--file) that is uploaded first.
When the upload fails and --image is also set, the URL is used instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := openApp(cmd.Context())
		if err != nil {
			return err
		}
		defer app.Close()

		draft := addDraft
		if addFile != "" {
			if err := draft.Normalize().ValidateTitle(); err != nil {
				return err
			}

			url, err := uploadPath(cmd, app.Uploader, addFile)
			switch {
			case err == nil:
				draft.Image = url
			case strings.TrimSpace(draft.Image) == "":
				return err
			default:
				logger.Warn("upload failed, using image URL instead", zap.Error(err))
			}
		}

		p, err := app.Projects.AddProject(cmd.Context(), draft)
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(p)
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload an image and print its URL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		url, err := uploadPath(cmd, assets.NewUploader(cfg.Assets), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

func uploadPath(cmd *cobra.Command, uploader assets.Uploader, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := assets.ReadLimited(f, assets.MaxImageBytes)
	if err != nil {
		return "", err
	}
	return uploader.Upload(cmd.Context(), filepath.Base(path), data)
}

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(uploadCmd)

	addCmd.Flags().StringVar(&addDraft.Title, "title", "", "Project title (required)")
	addCmd.Flags().StringVar(&addDraft.Category, "category", "", "Project category")
	addCmd.Flags().StringVar(&addDraft.Description, "description", "", "Short description")
	addCmd.Flags().StringVar(&addDraft.Image, "image", "", "Image URL")
	addCmd.Flags().StringVar(&addFile, "file", "", "Local image file to upload")
	addCmd.Flags().StringVar(&addDraft.Link, "link", "", "Live project link")
}
