package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"purchase-automation/internal/purchase"
	"purchase-automation/lib/fakedata"
	"purchase-automation/lib/price"
	"purchase-automation/lib/serviceutil"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
	headless   *bool
)

type runFlags struct {
	site         string
	product      string
	keyword      string
	name         string
	quantity     int
	maxPrice     float64
	productsFile string
	placeOrder   bool
	testData     string
	generateData bool
	report       string
}

var run runFlags

var rootCmd = &cobra.Command{
	Use:   "run_purchase --site <site> --product <product_id>",
	Short: "run_purchase buys products on e-commerce sites with a real browser.",
	Long: `run_purchase goes through the purchase funnel of a site: home page,
search, product page, cart and checkout. Orders are only placed with
--place-order, runs stop once the payment form is filled otherwise.`,
	Run: func(cmd *cobra.Command, args []string) {
		requests, err := run.requests()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			cmd.Usage()
			os.Exit(1)
		}

		ctx := cmd.Context()
		a := setup(ctx)
		defer a.Close()

		data := run.loadTestData()
		runner := purchase.NewRunner(
			a.launchBrowser(),
			a.sites,
			a.openHistory(ctx),
			a.notifier(),
			a.tel,
			purchase.Options{
				Pages:           a.pagesOptions(),
				RunMode:         a.cfg.RunMode,
				MaxParallelRuns: a.cfg.MaxParallelRuns,
				Data:            data,
				Credentials:     a.cfg.CredentialsFor,
			},
		)

		slog.Info(
			"starting purchase runs",
			"runs", len(requests),
			"mode", a.cfg.RunMode,
			"place_order", run.placeOrder,
		)
		results, err := runner.RunAll(ctx, requests)
		printResults(results)

		if run.report != "" {
			reportErr := purchase.WriteReport(run.report, results)
			if reportErr != nil {
				slog.Error("failed to write report", "path", run.report, "err", reportErr)
			} else {
				slog.Info("report written", "path", run.report)
			}
		}
		if err != nil {
			a.Close()
			serviceutil.Fatal("some runs failed", err)
		}
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The configuration file, <name>.local.json5 is merged over it.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log debug messages.")
	headless = rootCmd.PersistentFlags().Bool("headless", false, "Run the browser without a window.")

	flags := rootCmd.Flags()
	flags.StringVar(&run.site, "site", "", "The site to buy on, ex. kingjouet.")
	flags.StringVar(&run.product, "product", "", "The product id, it is searched for when --keyword is not given.")
	flags.StringVar(&run.keyword, "keyword", "", "The text typed in the search bar.")
	flags.StringVar(&run.name, "name", "", "The product name, the closest search result is opened.")
	flags.IntVar(&run.quantity, "quantity", 1, "The quantity to add to the cart.")
	flags.Float64Var(&run.maxPrice, "max-price", 0, "Stop when the product costs more than this.")
	flags.StringVar(&run.productsFile, "products", "", "A products.json file, every product in it is bought.")
	flags.BoolVar(&run.placeOrder, "place-order", false, "Actually place the orders.")
	flags.StringVar(&run.testData, "test-data", "data/test_data.json", "The buyer identity and payment card.")
	flags.BoolVar(&run.generateData, "generate-test-data", false, "Make up a buyer instead of reading --test-data.")
	flags.StringVar(&run.report, "report", "", "Write a csv report of the runs to this path.")

	rootCmd.MarkFlagsMutuallyExclusive("product", "products")
	rootCmd.MarkFlagsMutuallyExclusive("test-data", "generate-test-data")
}

// requests turns the flags into the runs to make. With --products, --site
// only keeps the products of that site.
func (f runFlags) requests() ([]purchase.Request, error) {
	var products []purchase.Product
	switch {
	case f.productsFile != "":
		var err error
		products, err = purchase.LoadProducts(f.productsFile)
		if err != nil {
			return nil, err
		}
		if f.site != "" {
			kept := products[:0]
			for _, p := range products {
				if strings.EqualFold(p.Site, f.site) {
					kept = append(kept, p)
				}
			}
			products = kept
		}
		if len(products) == 0 {
			return nil, fmt.Errorf("no products to buy in %s", f.productsFile)
		}
	case f.product != "":
		if f.site == "" {
			return nil, errors.New("--site is required with --product")
		}
		p := purchase.Product{
			ID:       f.product,
			Site:     f.site,
			Keyword:  f.keyword,
			Name:     f.name,
			Quantity: f.quantity,
			MaxPrice: f.maxPrice,
		}
		err := p.Validate()
		if err != nil {
			return nil, err
		}
		products = []purchase.Product{p}
	default:
		return nil, errors.New("one of --product or --products is required")
	}
	return purchase.Requests(products, f.placeOrder), nil
}

func (f runFlags) loadTestData() purchase.TestData {
	if f.generateData {
		data, err := purchase.GenerateTestData(fakedata.New(nil))
		if err != nil {
			serviceutil.Fatal("failed to generate test data", err)
		}
		slog.Info("generated a test buyer", "email", data.User.Email)
		return data
	}
	data, err := purchase.LoadTestData(f.testData)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("no test data, runs will not get past the payment step", "path", f.testData)
		return purchase.TestData{}
	}
	if err != nil {
		serviceutil.Fatal("failed to read test data", err)
	}
	return data
}

func printResults(results []purchase.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Site", "Product", "Status", "Step", "Price", "Total", "Order", "Duration"})
	for _, r := range results {
		t.AppendRow(table.Row{
			r.Site,
			r.Product,
			r.Status,
			r.Step,
			price.French.Format(r.Price),
			price.French.Format(r.Totals.Total),
			r.OrderNumber,
			r.Duration().Round(time.Millisecond),
		})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(os.Stderr, "%s %s: %v\n", r.Site, r.Product, r.Err)
		}
	}
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
