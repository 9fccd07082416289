package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/AntonStoeckl/minquantity-rule/quantityrule"
)

var importHeader = []string{"article", "min_quantity"}

var errImportHeaderMismatch = errors.New("import CSV header mismatch")
var errImportEmpty = errors.New("import CSV must have a header and at least one data row")

type importRow struct {
	line     int
	article  string
	quantity decimal.Decimal
}

// readImportRows reads article,min_quantity records. Quantities use the decimal point
// or the fallback format; a ';' delimiter is accepted for files written with a decimal comma.
func readImportRows(r io.Reader, fallback quantityrule.NumberFormat) ([]importRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read import CSV: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	if firstLine, _, _ := strings.Cut(string(data), "\n"); strings.Contains(firstLine, ";") {
		reader.Comma = ';'
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read import CSV: %w", err)
	}

	if len(records) < 2 {
		return nil, errImportEmpty
	}

	if !validateHeader(records[0], importHeader) {
		return nil, fmt.Errorf("%w: expected %v, got %v", errImportHeaderMismatch, importHeader, records[0])
	}

	rows := make([]importRow, 0, len(records)-1)
	for i, record := range records[1:] {
		if len(record) != len(importHeader) {
			return nil, fmt.Errorf("import CSV row %d: expected %d columns, got %d", i+2, len(importHeader), len(record))
		}

		article := strings.TrimSpace(record[0])
		if article == "" {
			return nil, fmt.Errorf("import CSV row %d: %w", i+2, quantityrule.ErrEmptyArticleCode)
		}

		quantity, parseErr := parseQuantity(record[1], fallback)
		if parseErr != nil {
			return nil, fmt.Errorf("import CSV row %d: %w", i+2, parseErr)
		}

		rows = append(rows, importRow{line: i + 2, article: article, quantity: quantity})
	}

	return rows, nil
}

func validateHeader(header, expected []string) bool {
	if len(header) != len(expected) {
		return false
	}

	for i, column := range header {
		if !strings.EqualFold(strings.TrimSpace(column), expected[i]) {
			return false
		}
	}

	return true
}
