package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/models"
)

// maxParallelIngest bounds how many files are extracted and embedded at once.
const maxParallelIngest = 4

var ingestUser string

var ingestCmd = &cobra.Command{
	Use:   "ingest [file...]",
	Short: "Add documents to a user's store",
	Long: `Extracts each file, splits it into chunks and stores the chunks not already
present in the user's store. Files that were ingested before add nothing.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestUser, "user", "u", "", "user whose store to add to (required)")
	_ = ingestCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, files []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	components, err := initializeComponents(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer components.Close()

	results := make([]*models.IngestResult, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(maxParallelIngest)
	for i, path := range files {
		g.Go(func() error {
			text, err := components.Extractor.Extract(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			res, err := components.Pipeline.Ingest(ctx, ingestUser, text)
			if err != nil {
				return fmt.Errorf("failed to ingest %s: %w", path, err)
			}
			logger.Debug("ingested file", zap.String("path", path), zap.Int("inserted", res.Inserted))
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i, path := range files {
		if err := cli.WriteIngest(cmd.OutOrStdout(), filepath.Base(path), results[i], outputFormat()); err != nil {
			return err
		}
	}
	return nil
}
