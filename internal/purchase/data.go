package purchase

import (
	"fmt"
	"purchase-automation/internal/pages"
	"purchase-automation/lib/datafile"
	"purchase-automation/lib/fakedata"
	"purchase-automation/lib/price"
	"purchase-automation/lib/validate"
	"strconv"
	"strings"
	"time"
)

// Product is an entry of products.json.
type Product struct {
	ID   string `json:"id"`
	Site string `json:"site"`
	// Keyword is typed in the search bar, it defaults to the id.
	Keyword string `json:"keyword"`
	// Name picks the closest search result when set, the first result is
	// used otherwise.
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	MaxPrice float64 `json:"max_price"`
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("product has no id")
	}
	if strings.TrimSpace(p.Site) == "" {
		return fmt.Errorf("product %s has no site", p.ID)
	}
	if p.Quantity < 0 {
		return fmt.Errorf("product %s: negative quantity %d", p.ID, p.Quantity)
	}
	if p.MaxPrice < 0 {
		return fmt.Errorf("product %s: negative max price %v", p.ID, p.MaxPrice)
	}
	return nil
}

func LoadProducts(path string) ([]Product, error) {
	products, err := datafile.ReadJSON[[]Product](path)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		err = p.Validate()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return products, nil
}

type Identity struct {
	Email     string           `json:"email"`
	Password  string           `json:"password"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	Phone     string           `json:"phone"`
	Address   fakedata.Address `json:"address"`
}

// TestData is the content of test_data.json: who buys and how they pay.
type TestData struct {
	User           Identity      `json:"user"`
	Card           fakedata.Card `json:"card"`
	DeliveryOption int           `json:"delivery_option"`
}

func (d TestData) PaymentCard() pages.Card {
	return pages.Card{
		Owner:        d.Card.Owner,
		Number:       d.Card.Number,
		Expiry:       d.Card.Expiry,
		SecurityCode: d.Card.SecurityCode,
	}
}

func (d TestData) Validate() error {
	if d.User.Email != "" && !validate.Email(d.User.Email) {
		return fmt.Errorf("invalid email %q", d.User.Email)
	}
	if d.User.Phone != "" && !validate.Phone(d.User.Phone, "") {
		return fmt.Errorf("invalid phone number %q", d.User.Phone)
	}
	if d.Card.Expiry != "" {
		_, err := time.Parse("01/06", d.Card.Expiry)
		if err != nil {
			return fmt.Errorf("invalid card expiry %q, expected MM/YY", d.Card.Expiry)
		}
	}
	if d.DeliveryOption < 0 {
		return fmt.Errorf("negative delivery option %d", d.DeliveryOption)
	}
	return nil
}

func LoadTestData(path string) (TestData, error) {
	data, err := datafile.ReadJSON[TestData](path)
	if err != nil {
		return TestData{}, err
	}
	err = data.Validate()
	if err != nil {
		return TestData{}, fmt.Errorf("%s: %w", path, err)
	}
	return data, nil
}

// GenerateTestData makes up a french buyer with a card that is not backed
// by any account.
func GenerateTestData(gen fakedata.Generator) (TestData, error) {
	email, err := gen.Email()
	if err != nil {
		return TestData{}, err
	}
	password, err := gen.String(12)
	if err != nil {
		return TestData{}, err
	}
	first, last := gen.Name()
	return TestData{
		User: Identity{
			Email:     email,
			Password:  password,
			FirstName: first,
			LastName:  last,
			Phone:     gen.Phone("+33"),
			Address:   gen.Address(),
		},
		Card: gen.Card(first + " " + last),
	}, nil
}

// WriteReport writes one csv row per result.
func WriteReport(path string, results []Result) error {
	records := make([]map[string]string, len(results))
	for i, r := range results {
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		records[i] = map[string]string{
			"run_id":       r.RunID,
			"site":         r.Site,
			"product":      r.Product,
			"product_name": r.ProductName,
			"status":       r.Status,
			"step":         r.Step,
			"quantity":     strconv.Itoa(r.Quantity),
			"price":        price.French.Format(r.Price),
			"total":        price.French.Format(r.Totals.Total),
			"differences":  strconv.Itoa(len(r.Differences)),
			"order_number": r.OrderNumber,
			"error":        errText,
			"duration":     r.Duration().String(),
		}
	}
	return datafile.WriteCSV(path, records)
}
