package commands

import (
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"purchase-automation/internal/db"
	"purchase-automation/lib/dateutil"
	"purchase-automation/lib/price"
	"purchase-automation/lib/serviceutil"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	historySite  *string
	historyLimit *int
	pruneAge     *time.Duration
	pruneBefore  *string
)

func init() {
	historySite = historyCmd.Flags().String("site", "", "Only list the runs of this site.")
	historyLimit = historyCmd.Flags().Int("limit", 20, "The number of runs listed.")
	pruneAge = historyPruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "Delete the runs started before this long ago.")
	pruneBefore = historyPruneCmd.Flags().String("before", "", "Delete the runs started before this date, ex. 2024-03-09 or 09/03/2024.")
	historyPruneCmd.MarkFlagsMutuallyExclusive("older-than", "before")

	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}

func formatUnix(seconds int64) string {
	return time.Unix(seconds, 0).Format(time.DateTime)
}

var historyCmd = &cobra.Command{
	Use:   "history [--site <site>] [--limit <n>]",
	Short: "Lists the most recent purchase runs.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a := setup(ctx)
		defer a.Close()

		runs, err := a.openHistory(ctx).Recent(ctx, *historySite, *historyLimit)
		if err != nil {
			a.Close()
			serviceutil.Fatal("failed to list runs", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Run", "Started", "Site", "Product", "Status", "Step", "Price", "Order"})
		for _, r := range runs {
			t.AppendRow(table.Row{
				r.ID,
				formatUnix(r.StartedAt),
				r.Site,
				r.Product,
				r.Status,
				r.Step,
				price.French.Format(r.Price),
				r.OrderNumber,
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run_id>",
	Short: "Shows every step of a run.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a := setup(ctx)
		defer a.Close()

		run, steps, err := a.openHistory(ctx).Run(ctx, args[0])
		if errors.Is(err, sql.ErrNoRows) {
			a.Close()
			serviceutil.Fatal("no run with this id", nil)
		}
		if err != nil {
			a.Close()
			serviceutil.Fatal("failed to read run", err)
		}

		summary := table.NewWriter()
		summary.SetOutputMirror(os.Stdout)
		summary.AppendRows([]table.Row{
			{"Run", run.ID},
			{"Site", run.Site},
			{"Product", run.Product},
			{"Keyword", run.Keyword},
			{"Quantity", run.Quantity},
			{"Place order", run.PlaceOrder},
			{"Status", run.Status},
			{"Error", run.Error},
		})
		summary.SetStyle(table.StyleRounded)
		summary.Render()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"#", "Time", "Step", "Ok", "Detail", "Screenshot"})
		for _, s := range steps {
			t.AppendRow(table.Row{s.Idx, formatUnix(s.Time), s.Name, s.Ok, s.Detail, s.Screenshot})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		if run.Status == db.StatusRunning {
			slog.Warn("this run never finished, the process was probably killed")
		}
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune [--older-than <duration> | --before <date>]",
	Short: "Deletes old runs from the history.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a := setup(ctx)
		defer a.Close()

		before := time.Now().Add(-*pruneAge)
		if *pruneBefore != "" {
			date, err := dateutil.Parse(*pruneBefore)
			if err != nil {
				a.Close()
				serviceutil.Fatal("invalid --before date", err)
			}
			before = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.Local)
		}
		count, err := a.openHistory(ctx).Prune(ctx, before)
		if err != nil {
			a.Close()
			serviceutil.Fatal("failed to prune history", err)
		}
		slog.Info("history pruned", "runs", count, "before", before.Format(time.DateTime))
	},
}
