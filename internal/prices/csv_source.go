// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package prices

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	// DuckDB driver - read_csv does the CSV dialect detection
	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/agrimarket/internal/geo"
)

// Source produces a fresh price table.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Table, error)
}

// columnAliases maps accepted CSV headers (lower-cased) to canonical names.
var columnAliases = map[string]string{
	"date":                "date",
	"county":              "county",
	"market":              "market",
	"crop":                "crop",
	"commodity":           "crop",
	"retail_price":        "retail_price",
	"retail_price_kes":    "retail_price",
	"wholesale_price":     "wholesale_price",
	"wholesale_price_kes": "wholesale_price",
	"unit":                "unit",
	"lat":                 "lat",
	"latitude":            "lat",
	"lon":                 "lon",
	"lng":                 "lon",
	"longitude":           "lon",
}

var requiredColumns = []string{"county", "market", "crop", "retail_price"}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
	"2-Jan-2006",
}

// CSVSource loads prices from a CSV file. All columns are read as text by
// DuckDB and converted here so one malformed cell skips one row instead of
// failing the whole load.
type CSVSource struct {
	path string
}

// NewCSVSource creates a source for the file at path.
func NewCSVSource(path string) *CSVSource {
	return &CSVSource{path: path}
}

// Name implements Source.
func (s *CSVSource) Name() string {
	return "csv:" + s.path
}

// Load implements Source.
func (s *CSVSource) Load(ctx context.Context) (*Table, error) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, fmt.Errorf("price csv: %w", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer db.Close() //nolint:errcheck // in-memory database, nothing to flush

	query := fmt.Sprintf(
		"SELECT * FROM read_csv('%s', all_varchar = true, header = true)",
		strings.ReplaceAll(s.path, "'", "''"),
	)
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("read_csv %s: %w", s.path, err)
	}
	defer rows.Close()

	header, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	var raw [][]string
	for rows.Next() {
		cells := make([]sql.NullString, len(header))
		dest := make([]interface{}, len(header))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan csv row %d: %w", len(raw)+2, err)
		}
		row := make([]string, len(cells))
		for i, c := range cells {
			if c.Valid {
				row[i] = c.String
			}
		}
		raw = append(raw, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate csv rows: %w", err)
	}

	records, skipped, err := ParseRows(header, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	return NewTable(s.Name(), records, skipped), nil
}

// ParseRows converts text rows into records. Line numbers in skip reports
// count the header as line 1. A missing required column is an error; a bad
// cell skips its row.
func ParseRows(header []string, rows [][]string) ([]Record, []SkippedRow, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if canonical, ok := columnAliases[key]; ok {
			if _, dup := idx[canonical]; !dup {
				idx[canonical] = i
			}
		}
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("missing required column %q", col)
		}
	}

	cell := func(row []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	records := make([]Record, 0, len(rows))
	var skipped []SkippedRow

	for n, row := range rows {
		line := n + 2
		market := cell(row, "market")
		skip := func(reason string) {
			skipped = append(skipped, SkippedRow{Line: line, Market: market, Reason: reason})
		}

		rec := Record{
			Market: market,
			County: cell(row, "county"),
			Crop:   cell(row, "crop"),
			Unit:   cell(row, "unit"),
		}
		if rec.Market == "" || rec.Crop == "" {
			skip("missing market or crop")
			continue
		}

		price, err := parsePrice(cell(row, "retail_price"))
		if err != nil {
			skip("retail_price: " + err.Error())
			continue
		}
		rec.RetailPrice = price

		if ws := cell(row, "wholesale_price"); ws != "" {
			w, err := parsePrice(ws)
			if err != nil {
				skip("wholesale_price: " + err.Error())
				continue
			}
			rec.WholesalePrice = &w
		}

		if ds := cell(row, "date"); ds != "" {
			d, err := parseDate(ds)
			if err != nil {
				skip(err.Error())
				continue
			}
			rec.Date = d
		}

		latS, lonS := cell(row, "lat"), cell(row, "lon")
		if latS != "" && lonS != "" {
			lat, errLat := strconv.ParseFloat(latS, 64)
			lon, errLon := strconv.ParseFloat(lonS, 64)
			p := geo.Point{Lat: lat, Lon: lon}
			if errLat != nil || errLon != nil || p.Validate() != nil {
				skip(fmt.Sprintf("invalid coordinates (%s, %s)", latS, lonS))
				continue
			}
			rec.Coords = &p
		}

		records = append(records, rec)
	}

	return records, skipped, nil
}

// parsePrice accepts plain numbers and thousands separators ("1,250").
// NaN and negative values parse; the ranking engine skips them with a reason.
func parsePrice(s string) (float64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsInf(v, 0) {
		return 0, fmt.Errorf("not finite: %q", s)
	}
	return v, nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
