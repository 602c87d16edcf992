package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thegray/audioservice/internal/catalog"
)

func newAssetsCommand(ctx *commandContext) *cobra.Command {
	assetsCmd := &cobra.Command{
		Use:   "assets",
		Short: "Inspect the stored asset catalog",
	}

	assetsCmd.AddCommand(newAssetsListCommand(ctx))
	assetsCmd.AddCommand(newAssetsStatsCommand(ctx))

	return assetsCmd
}

func newAssetsListCommand(ctx *commandContext) *cobra.Command {
	var userID int64
	var phraseID int64

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog records, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()

			var records []*catalog.Record
			if cmd.Flags().Changed("user") || cmd.Flags().Changed("phrase") {
				if !cmd.Flags().Changed("user") || !cmd.Flags().Changed("phrase") {
					return fmt.Errorf("--user and --phrase must be given together")
				}
				records, err = store.ListByUserPhrase(cmd.Context(), userID, phraseID)
			} else {
				records, err = store.List(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("list records: %w", err)
			}

			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No records")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRecordTable(records))
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "Filter by user id")
	cmd.Flags().Int64Var(&phraseID, "phrase", 0, "Filter by phrase id")
	return cmd
}

func newAssetsStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show record counts per format",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()

			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("catalog stats: %w", err)
			}
			if len(stats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No records")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderStatsTable(stats))
			return nil
		},
	}
}
