package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/vertextoedge/index-mirror/internal/adapter/sqlite"
	"github.com/vertextoedge/index-mirror/internal/config"
	"github.com/vertextoedge/index-mirror/internal/domain"
	"github.com/vertextoedge/index-mirror/internal/domain/vo"
)

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs recorded in the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.Journal.Path == "" {
				return fmt.Errorf("journal.path is not configured")
			}

			store, err := sqlite.Open(cfg.Journal.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := store.RecentRuns(limit)
			if err != nil {
				return fmt.Errorf("failed to read journal: %w", err)
			}
			return printHistory(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	return cmd
}

func printHistory(w io.Writer, records []*domain.RunRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no runs recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tSTATUS\tDURATION\tDOWNLOADED\tSKIPPED\tFAILED\tBYTES")
	for _, r := range records {
		duration := "-"
		if r.FinishedAt != nil {
			duration = r.Duration().Round(time.Second).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			r.RunID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Status,
			duration,
			r.FilesDownloaded,
			r.FilesSkipped,
			r.FilesFailed,
			vo.HumanBytes(r.BytesWritten),
		)
	}
	return tw.Flush()
}
