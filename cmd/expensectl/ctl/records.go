package ctl

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

type addOptions struct {
	Month    string
	Category string
	Amount   string
	Comment  string
}

func newAddCmd(a *app) *cobra.Command {
	opts := &addOptions{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Long: `Record one expense. The month defaults to the current month and is
written as "<Month> <Year>", for example "July 2025".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entry, err := opts.entry(time.Now())
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := svc.AddExpense(cmd.Context(), entry)
			if err != nil {
				return err
			}
			cmd.Printf("Added #%d %s %s for %s\n", rec.ID, rec.Category, rec.Amount, rec.Month)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Month, "month", "", `Month label, e.g. "July 2025" (default current month)`)
	cmd.Flags().StringVarP(&opts.Category, "category", "c", "", fmt.Sprintf("Category (options: %s)", categoryOptions()))
	cmd.Flags().StringVarP(&opts.Amount, "amount", "a", "", "Amount, e.g. 1500 or 12.50")
	cmd.Flags().StringVarP(&opts.Comment, "comment", "m", "", "Comment, required for Non-Essentials")

	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func (o *addOptions) entry(now time.Time) (core.Entry, error) {
	month, err := monthFlag(o.Month, now)
	if err != nil {
		return core.Entry{}, err
	}
	cat, err := core.ParseCategory(o.Category)
	if err != nil {
		return core.Entry{}, fmt.Errorf("invalid category: %w", err)
	}
	amount, err := core.ParseAmount(o.Amount)
	if err != nil {
		return core.Entry{}, fmt.Errorf("invalid amount %q: %w", o.Amount, err)
	}
	return core.Entry{Month: month, Category: cat, Amount: amount, Comment: o.Comment}, nil
}

func newDeleteLastCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-last",
		Short: "Remove the most recently added expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := svc.DeleteLast(cmd.Context())
			if errors.Is(err, core.ErrNotFound) {
				cmd.Println("No records to delete.")
				return nil
			}
			if err != nil {
				return err
			}
			cmd.Printf("Deleted #%d %s %s from %s\n", rec.ID, rec.Category, rec.Amount, rec.Month)
			return nil
		},
	}
}

type listOptions struct {
	Month    string
	Category string
}

func newListCmd(a *app) *cobra.Command {
	opts := &listOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List expenses, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context())
			if err != nil {
				return err
			}
			records, err := svc.Records(cmd.Context())
			if err != nil {
				return err
			}

			if opts.Month != "" {
				month, err := core.ParseMonth(opts.Month)
				if err != nil {
					return err
				}
				records = core.RecordsFor(records, month)
			}
			var filter core.Category
			if opts.Category != "" && !strings.EqualFold(opts.Category, "all") {
				if filter, err = core.ParseCategory(opts.Category); err != nil {
					return err
				}
			}
			records = core.NewestFirst(core.FilterCategory(records, filter))
			a.logger.DebugContext(cmd.Context(), "Listing records",
				applog.FieldOperation, applog.OpList, "count", len(records))

			return writeRecords(cmd.OutOrStdout(), records)
		},
	}

	cmd.Flags().StringVar(&opts.Month, "month", "", `Only this month, e.g. "July 2025"`)
	cmd.Flags().StringVarP(&opts.Category, "category", "c", "", "Only this category")

	return cmd
}

func writeRecords(out io.Writer, records []core.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "No records.")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tMonth\tCategory\tAmount\tComment\t")
	for _, r := range records {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t\n", r.ID, r.Month, r.Category, r.Amount, r.Comment)
	}
	fmt.Fprintf(tw, "\t\tTotal\t%s\t\t\n", core.SumOf(records))
	return tw.Flush()
}

// monthFlag parses a month flag, defaulting to the month of now.
func monthFlag(v string, now time.Time) (core.Month, error) {
	if strings.TrimSpace(v) == "" {
		return core.MonthOf(now), nil
	}
	return core.ParseMonth(v)
}

func categoryOptions() string {
	return strings.Join(lo.Map(core.Categories(), func(c core.Category, _ int) string { return string(c) }), ", ")
}
