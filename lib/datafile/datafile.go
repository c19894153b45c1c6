package datafile

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ReadCSV reads a csv file whose first row is a header into one map per
// row.
func ReadCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}
	if len(rows) == 0 {
		return []map[string]string{}, nil
	}

	header := rows[0]
	records := make([]map[string]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]string, len(header))
		for i, key := range header {
			if i < len(row) {
				record[key] = row[i]
			}
		}
		records = append(records, record)
	}
	return records, nil
}

// WriteCSV writes records as a csv file, the header is made of every key
// used by the records in sorted order. Parent directories are created.
func WriteCSV(path string, records []map[string]string) error {
	if len(records) == 0 {
		return fmt.Errorf("write csv %s: no records", path)
	}

	keySet := map[string]struct{}{}
	for _, r := range records {
		for k := range r {
			keySet[k] = struct{}{}
		}
	}
	header := make([]string, 0, len(keySet))
	for k := range keySet {
		header = append(header, k)
	}
	sort.Strings(header)

	err := os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	err = w.Write(header)
	if err != nil {
		return err
	}
	for _, r := range records {
		row := make([]string, len(header))
		for i, k := range header {
			row[i] = r[k]
		}
		err = w.Write(row)
		if err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func ReadJSON[T any](path string) (T, error) {
	var out T
	contents, err := os.ReadFile(path)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(contents, &out)
	if err != nil {
		return out, fmt.Errorf("read json %s: %w", path, err)
	}
	return out, nil
}

// WriteJSON writes an indented json file, parent directories are created.
func WriteJSON(path string, value any) error {
	contents, err := json.MarshalIndent(value, "", "    ")
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(path), 0777)
	if err != nil {
		return err
	}
	return os.WriteFile(path, contents, 0644)
}
