package commands

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(sitesCmd)
}

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Lists the sites purchases can run on.",
	Run: func(cmd *cobra.Command, args []string) {
		a := setup(cmd.Context())
		defer a.Close()

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Name", "URL", "Locale", "Login"})
		for _, name := range a.sites.Names() {
			s := a.lookupSite(name)
			_, login := a.cfg.CredentialsFor(s.Name)
			t.AppendRow(table.Row{s.Name, s.BaseURL, s.Locale, login})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
