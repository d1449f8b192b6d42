package ctl

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

type summaryOptions struct {
	Month string
}

func newSummaryCmd(a *app) *cobra.Command {
	opts := &summaryOptions{}

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show group totals for a month",
		Long: `Show the group totals of a month against the previous month, and the
latest month-over-month category comparison.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			month, err := monthFlag(opts.Month, time.Now())
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			d, err := svc.Dashboard(cmd.Context(), month)
			if err != nil {
				return err
			}
			a.logger.DebugContext(cmd.Context(), "Summarizing month",
				applog.FieldOperation, applog.OpSummarize, applog.FieldMonth, month.String())
			return writeSummary(cmd.OutOrStdout(), d)
		},
	}

	cmd.Flags().StringVar(&opts.Month, "month", "", `Month label, e.g. "July 2025" (default current month)`)

	return cmd
}

func writeSummary(out io.Writer, d core.Dashboard) error {
	if !d.HasRecords {
		_, err := fmt.Fprintln(out, "No data available yet.")
		return err
	}
	if !d.HasMonthData {
		_, err := fmt.Fprintf(out, "No records for %s\n", d.Month)
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Group\t%s\t%s\t\n", d.Month, d.PreviousMonth)
	for _, g := range core.Groups() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", g.Label, d.Totals[g.Group], d.PreviousTotals[g.Group])
	}
	fmt.Fprintf(tw, "Total\t%s\t%s\t\n", d.Total, d.PreviousTotal)
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Spending %s against %s.\n", d.Trend, d.PreviousMonth)

	if d.Comparison == nil || !d.Comparison.HasChanges() {
		return nil
	}
	fmt.Fprintf(out, "\n%s vs %s\n", d.Comparison.Current, d.Comparison.Previous)
	for _, delta := range d.Comparison.Increased() {
		fmt.Fprintf(out, "  up    %-15s %s\n", delta.Category, delta.Delta)
	}
	for _, delta := range d.Comparison.Decreased() {
		fmt.Fprintf(out, "  down  %-15s %s\n", delta.Category, delta.Delta)
	}
	return nil
}
