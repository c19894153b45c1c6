package pages

import (
	"context"
	"fmt"
	"purchase-automation/lib/htmlutil"
	"purchase-automation/lib/price"
	"purchase-automation/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
)

const (
	report_search_results = "search_page.results"
	report_search_price   = "search_page.parse-price"
	report_search_open    = "search_page.open-product"
	report_search_sort    = "search_page.sort"
)

const (
	AvailabilityInStock     = "in stock"
	AvailabilityUnavailable = "unavailable"
	unknownProductName      = "unknown product"
)

type ProductSummary struct {
	Name         string
	Price        float64
	Availability string
	URL          string
}

type Search struct {
	*Base
}

func NewSearch(base *Base) Search {
	return Search{Base: base}
}

// ResultsCount reads the number of results announced by the page, 0 when
// it is not shown.
func (s Search) ResultsCount(ctx context.Context) int {
	selector := s.site.Selectors.SearchStats
	if !s.IsVisible(ctx, selector, 0) {
		return 0
	}
	count, ok := textutil.FirstInt(s.GetText(ctx, selector, ""))
	if !ok {
		return 0
	}
	return count
}

func (s Search) items(ctx context.Context) (*goquery.Selection, error) {
	selectors := s.site.Selectors
	err := s.WaitForSelector(ctx, selectors.ResultList, s.site.Timeouts.SearchResults.Duration())
	if err != nil {
		return nil, err
	}
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Find(selectors.ResultItem), nil
}

// priceOf reads a price split between a euros element and a cents element,
// the cents element may or may not be nested in the euros one.
func priceOf(root *goquery.Selection, eurosSelector, centsSelector string) (float64, error) {
	euros := root.Find(eurosSelector).First()
	cents := ""
	if centsSelector != "" {
		cents = htmlutil.Text(root.Find(centsSelector).First())
		euros = euros.Clone()
		euros.Find(centsSelector).Remove()
	}
	return price.FromParts(htmlutil.Text(euros), cents)
}

func (s Search) summarize(i int, item *goquery.Selection) ProductSummary {
	selectors := s.site.Selectors

	name := htmlutil.Text(item.Find(selectors.ResultName).First())
	if name == "" {
		name = unknownProductName
	}
	amount, err := priceOf(item, selectors.ResultPriceEuros, selectors.ResultPriceCents)
	if err != nil {
		s.tel.ReportWarning(report_search_price, i, name, err)
	}
	availability := AvailabilityUnavailable
	if item.Find(selectors.ResultAvailability).Length() > 0 {
		availability = AvailabilityInStock
	}
	href, _ := item.Find(selectors.ResultLink).First().Attr("href")
	if href != "" {
		href = s.site.Resolve(href)
	}

	return ProductSummary{
		Name:         name,
		Price:        amount,
		Availability: availability,
		URL:          href,
	}
}

// Products extracts up to `limit` results, a limit <= 0 returns every
// result.
func (s Search) Products(ctx context.Context, limit int) ([]ProductSummary, error) {
	items, err := s.items(ctx)
	if err != nil {
		s.tel.ReportBroken(report_search_results, err)
		return nil, err
	}

	var out []ProductSummary
	items.EachWithBreak(func(i int, item *goquery.Selection) bool {
		if limit > 0 && i >= limit {
			return false
		}
		out = append(out, s.summarize(i, item))
		return true
	})
	return out, nil
}

// resultLink is the selector of the link of the result at `index`.
func (s Search) resultLink(index int) string {
	return fmt.Sprintf(
		"%s:nth-child(%d) %s",
		s.site.Selectors.ResultItem, index+1, s.site.Selectors.ResultLink,
	)
}

// OpenProduct opens the result at `index`. When that fails for any other
// index than the first, the first result is opened instead.
func (s Search) OpenProduct(ctx context.Context, index int) (Product, error) {
	ctx, span := tracer.Start(ctx, "Search:OpenProduct")
	defer span.End()

	err := s.openProduct(ctx, index)
	if err != nil {
		if isContextErr(err) {
			return Product{}, err
		}
		s.tel.ReportWarning(report_search_open, index, err)
		s.TakeScreenshot(ctx, fmt.Sprintf("open_product_error_%d", index))
		if index == 0 {
			span.RecordError(err)
			return Product{}, err
		}
		return s.OpenProduct(ctx, 0)
	}
	return NewProduct(s.Base), nil
}

func (s Search) openProduct(ctx context.Context, index int) error {
	items, err := s.items(ctx)
	if err != nil {
		return err
	}
	if index < 0 || index >= items.Length() {
		return fmt.Errorf("%w: product %d of %d results", ErrIndexOutOfRange, index, items.Length())
	}
	err = s.Click(ctx, s.resultLink(index))
	if err != nil {
		return err
	}
	return s.WaitForNavigation(ctx, s.site.Timeouts.PageLoad.Duration())
}

// BestMatch returns the index of the result whose name is the closest to
// `name`, or -1 when there are no results.
func (s Search) BestMatch(ctx context.Context, name string) (int, error) {
	products, err := s.Products(ctx, 0)
	if err != nil {
		return -1, err
	}
	return bestMatch(products, name), nil
}

func bestMatch(products []ProductSummary, name string) int {
	target := textutil.NormalizeName(name)
	best := -1
	bestScore := -1.0
	for i, p := range products {
		score := matchr.JaroWinkler(textutil.NormalizeName(p.Name), target, false)
		if score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best
}

// SortBy picks an option of the sort dropdown.
func (s Search) SortBy(ctx context.Context, option string) error {
	err := s.SelectOption(ctx, s.site.Selectors.SortDropdown, option)
	if err != nil {
		s.tel.ReportWarning(report_search_sort, option, err)
		return err
	}
	return s.WaitForNavigation(ctx, s.site.Timeouts.SearchResults.Duration())
}
