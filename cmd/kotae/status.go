package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/kotae/internal/cli"
	"github.com/hyperjump/kotae/internal/storage"
	"github.com/hyperjump/kotae/internal/vectorstore"
)

var statusUser string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show accounts, stores and disk usage",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVarP(&statusUser, "user", "u", "", "also report this user's store")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	ctx := cmd.Context()

	users, err := storage.NewSQLiteUserStore(cfg.Storage.UsersDBPath)
	if err != nil {
		return err
	}
	defer users.Close()

	st := &cli.Status{DataDir: cfg.Storage.DataDir}
	if st.Users, err = users.CountUsers(ctx); err != nil {
		return err
	}
	if n, err := storage.CountSubdirs(cfg.Storage.UsersDir()); err == nil {
		st.Stores = n
	}
	if st.DiskUsageBytes, err = storage.DiskUsageBytes(cfg.Storage.DataDir); err != nil {
		logger.Warn("disk usage unavailable", zap.Error(err))
	}

	if statusUser != "" {
		st.User = statusUser
		stores := vectorstore.NewManager(cfg.Storage.UsersDir(),
			vectorstore.WithLogger(logger),
			vectorstore.WithIndexType(cfg.Retrieval.Index),
		)
		defer stores.Close()
		// never create a store just to report on it
		if stores.Exists(statusUser) {
			h, err := stores.OpenOrCreate(ctx, statusUser)
			if err != nil {
				return err
			}
			st.StoreExists = true
			if st.Entries, err = h.Count(ctx); err != nil {
				return err
			}
		}
	}
	return cli.WriteStatus(cmd.OutOrStdout(), st, outputFormat())
}
