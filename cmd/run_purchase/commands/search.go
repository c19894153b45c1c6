package commands

import (
	"os"
	"purchase-automation/internal/browser"
	"purchase-automation/internal/pages"
	"purchase-automation/lib/price"
	"purchase-automation/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	searchSite  *string
	searchLimit *int
	searchSort  *string
)

func init() {
	searchSite = searchCmd.Flags().String("site", "kingjouet", "The site to search on.")
	searchLimit = searchCmd.Flags().Int("limit", 10, "The maximum number of results shown, 0 shows all of them.")
	searchSort = searchCmd.Flags().String("sort", "", "A sort option of the results page, ex. \"Prix croissant\".")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <keyword> [--site <site>] [--limit <n>]",
	Short: "Searches a site and lists the results without buying anything.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a := setup(ctx)
		defer a.Close()

		s := a.lookupSite(*searchSite)
		launcher := a.launchBrowser()
		session, err := launcher.NewSession(ctx, browser.SessionOptions{
			ViewportWidth:  s.Viewport.Width,
			ViewportHeight: s.Viewport.Height,
			UserAgent:      s.UserAgent,
			Locale:         s.Locale,
			DefaultTimeout: a.cfg.DefaultTimeout.Duration(),
		})
		if err != nil {
			a.Close()
			serviceutil.Fatal("failed to open browser session", err)
		}
		defer session.Close()

		base := pages.NewBase(session.Page(), s, a.tel, a.pagesOptions())
		home := pages.NewHome(base)
		err = home.Open(ctx)
		if err != nil {
			a.Close()
			serviceutil.Fatal("failed to open home page", err)
		}
		search, err := home.Search(ctx, args[0])
		if err != nil {
			a.Close()
			serviceutil.Fatal("search failed", err)
		}
		if *searchSort != "" {
			err = search.SortBy(ctx, *searchSort)
			if err != nil {
				a.Close()
				serviceutil.Fatal("failed to sort results", err)
			}
		}
		products, err := search.Products(ctx, *searchLimit)
		if err != nil {
			a.Close()
			serviceutil.Fatal("failed to read results", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"#", "Name", "Price", "Availability"})
		for i, p := range products {
			t.AppendRow(table.Row{i, p.Name, price.French.Format(p.Price), p.Availability})
		}
		t.AppendFooter(table.Row{"", "", "Results", search.ResultsCount(ctx)})
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
