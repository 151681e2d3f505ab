package command

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/evanofslack/cfdns/internal/history"
	"github.com/evanofslack/cfdns/internal/metrics"
)

var errHistoryDisabled = errors.New("history is disabled, set history.path in the config")

func newHistoryCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent record writes, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := a.load(ctx)
			if err != nil {
				return err
			}
			if cfg.History.Path == "" {
				return errHistoryDisabled
			}

			journal, err := history.New(cfg.History.Path, cfg.History.Retention, metrics.New(false))
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer journal.Close()

			events, err := journal.List(ctx, limit)
			if err != nil {
				return fmt.Errorf("list history: %w", err)
			}
			return writeHistory(a.out, events)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of events to show, 0 for all")
	return cmd
}

func writeHistory(w io.Writer, events []history.Event) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "No history recorded")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tINTERFACE\tOP\tNAME\tTYPE\tOLD\tNEW\tRESULT")
	for _, e := range events {
		result := "ok"
		if !e.Success {
			result = "failed: " + e.Error
		}
		old := e.Old
		if old == "" {
			old = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			e.Time.Local().Format(time.DateTime), e.Interface, e.Op, e.Name, e.Type, old, e.New, result)
	}
	return tw.Flush()
}
