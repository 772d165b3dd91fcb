package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/dokzlo13/huetoolkit/internal/app"
	"github.com/dokzlo13/huetoolkit/internal/ledger"
)

func (c *cli) historyCmd() *cobra.Command {
	var (
		limit int
		since time.Duration
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the commands recently sent to the bridge",
		Args:  cobra.NoArgs,
		RunE: c.withApp(func(ctx context.Context, a *app.App, cmd *cobra.Command, args []string) error {
			if a.Ledger == nil {
				return errors.New("the command ledger is disabled, set ledger.enabled in the config")
			}

			var (
				entries []*ledger.Entry
				err     error
			)
			if since > 0 {
				now := time.Now()
				entries, err = a.Ledger.GetByTimeRange(ctx, now.Add(-since), now, limit)
			} else {
				entries, err = a.Ledger.Recent(ctx, limit)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tMETHOD\tADDRESS\tSTATUS\tBODY\tERROR")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
					e.Timestamp.Local().Format(time.DateTime), e.Method, e.Address, e.Status, e.Body, e.Error)
			}
			return w.Flush()
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	cmd.Flags().DurationVar(&since, "since", 0, "only show commands newer than this, e.g. 1h")
	return cmd
}
