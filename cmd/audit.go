/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/trendystore/authserver/internal/audit"
	"github.com/trendystore/authserver/internal/mq"
	"github.com/trendystore/authserver/internal/storage"
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Archives account events to object storage",
	Long: `Subscribes to the account event channel and stores every event as
JSON under audit/YYYY/MM/DD/<event-id>.json. Requires MQ_BACKEND and
STORAGE_BACKEND.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadRuntime()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		bus, err := mq.Open(ctx, cfg.MQ)
		if err != nil {
			return err
		}
		if bus == nil {
			return errors.New("MQ_BACKEND is required for the audit archiver")
		}
		defer bus.Close()

		objects, err := storage.Open(ctx, cfg.Storage)
		if err != nil {
			return err
		}
		if err := objects.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure bucket %s: %w", objects.Bucket(), err)
		}

		archiver := audit.NewArchiver(bus, objects, cfg.MQ.Channel, log.With("component", "audit"))
		return archiver.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
}
