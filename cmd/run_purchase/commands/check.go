package commands

import (
	"fmt"
	"log/slog"
	"os"
	"purchase-automation/lib/netcheck"
	"purchase-automation/lib/restyutil"
	libtelemetry "purchase-automation/lib/telemetry"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var dumpRequests *bool

func init() {
	dumpRequests = checkCmd.Flags().Bool("dump", false, "Write every request and response to dev/.state/netcheck, this turns on debug logging.")
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check [--dump]",
	Short: "Checks that this machine can reach every configured site.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a := setup(ctx)
		defer a.Close()

		opts := netcheck.Options{}
		if *dumpRequests {
			opts.InstrumentOutput = requestDumps("<dev_state>/netcheck")
		}
		checker := netcheck.NewChecker(opts)

		info, err := checker.IPInfo(ctx)
		if err != nil {
			slog.Warn("failed to fetch ip info", "err", err)
		}
		keys := make([]string, 0, len(info))
		for k := range info {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		ip := table.NewWriter()
		ip.SetOutputMirror(os.Stdout)
		ip.SetTitle("Public IP")
		for _, k := range keys {
			ip.AppendRow(table.Row{k, fmt.Sprint(info[k])})
		}
		ip.SetStyle(table.StyleRounded)
		ip.Render()

		failed := 0
		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Site", "URL", "Reachable"})
		for _, name := range a.sites.Names() {
			s := a.lookupSite(name)
			ok := checker.CheckConnection(ctx, s.BaseURL)
			if !ok {
				failed++
			}
			t.AppendRow(table.Row{s.Name, s.BaseURL, ok})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		if failed > 0 {
			a.Close()
			os.Exit(1)
		}
	},
}

// requestDumps opens the directory `check --dump` writes to. Dumps are
// only written at debug level so the log level is lowered to it.
func requestDumps(dir string) restyutil.InstrumentOutput {
	libtelemetry.SetLogLevel(slog.LevelDebug)
	output, err := restyutil.NewFilesystemOutput(dir)
	if err != nil {
		slog.Warn("requests will not be dumped", "err", err)
		return nil
	}
	return output
}
