package datafile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "products.csv")
	err := WriteCSV(path, []map[string]string{
		{"name": "Puzzle", "price": "12.99"},
		{"name": "Lego, Star Wars", "stock": "yes"},
	})
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "name,price,stock\nPuzzle,12.99,\n\"Lego, Star Wars\",,yes\n", string(contents))

	records, err := ReadCSV(path)
	require.NoError(t, err)
	require.Equal(t, []map[string]string{
		{"name": "Puzzle", "price": "12.99", "stock": ""},
		{"name": "Lego, Star Wars", "price": "", "stock": "yes"},
	}, records)
}

func TestWriteCSVEmpty(t *testing.T) {
	require.Error(t, WriteCSV(filepath.Join(t.TempDir(), "x.csv"), nil))
}

func TestReadCSVMissing(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "missing.csv"))
	require.True(t, os.IsNotExist(err))
}

func TestJSON(t *testing.T) {
	type item struct {
		ID       string  `json:"id"`
		MaxPrice float64 `json:"max_price"`
	}
	path := filepath.Join(t.TempDir(), "nested", "items.json")
	err := WriteJSON(path, []item{{ID: "a", MaxPrice: 10}})
	require.NoError(t, err)

	items, err := ReadJSON[[]item](path)
	require.NoError(t, err)
	require.Equal(t, []item{{ID: "a", MaxPrice: 10}}, items)

	err = os.WriteFile(path, []byte("{"), 0600)
	require.NoError(t, err)
	_, err = ReadJSON[[]item](path)
	require.Error(t, err)
}
