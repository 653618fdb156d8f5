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
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/tomtom215/agrimarket/internal/geo"
)

// Schema creates the markets / market_prices tables. Prices are unique per
// (market, crop, date).
const Schema = `
CREATE TABLE IF NOT EXISTS markets (
	id     SERIAL PRIMARY KEY,
	name   VARCHAR(100) NOT NULL,
	county VARCHAR(100) NOT NULL,
	lat    DOUBLE PRECISION,
	lon    DOUBLE PRECISION,
	UNIQUE (name, county)
);

CREATE TABLE IF NOT EXISTS market_prices (
	id              SERIAL PRIMARY KEY,
	market_id       INTEGER NOT NULL REFERENCES markets(id) ON DELETE CASCADE,
	crop            VARCHAR(50) NOT NULL,
	date            DATE NOT NULL,
	retail_price    DOUBLE PRECISION,
	wholesale_price DOUBLE PRECISION,
	UNIQUE (market_id, crop, date)
);
`

// priceRow is the scan target for the joined price query.
type priceRow struct {
	Market         string          `db:"market"`
	County         string          `db:"county"`
	Lat            sql.NullFloat64 `db:"lat"`
	Lon            sql.NullFloat64 `db:"lon"`
	Crop           string          `db:"crop"`
	Date           time.Time       `db:"date"`
	RetailPrice    sql.NullFloat64 `db:"retail_price"`
	WholesalePrice sql.NullFloat64 `db:"wholesale_price"`
}

const selectPrices = `
	SELECT
		m.name   AS market,
		m.county AS county,
		m.lat    AS lat,
		m.lon    AS lon,
		p.crop   AS crop,
		p.date   AS date,
		p.retail_price,
		p.wholesale_price
	FROM market_prices p
	JOIN markets m ON m.id = p.market_id
	ORDER BY p.date, m.name, p.id`

// PostgresSource loads prices from PostgreSQL.
type PostgresSource struct {
	db *sqlx.DB
}

// OpenPostgres connects and pings.
func OpenPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// NewPostgresSource creates a source over db.
func NewPostgresSource(db *sqlx.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// Name implements Source.
func (s *PostgresSource) Name() string {
	return "postgres"
}

// EnsureSchema creates the tables if missing.
func (s *PostgresSource) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply price schema: %w", err)
	}
	return nil
}

// Load implements Source. Rows with a NULL retail price are skipped.
func (s *PostgresSource) Load(ctx context.Context) (*Table, error) {
	var rows []priceRow
	if err := s.db.SelectContext(ctx, &rows, selectPrices); err != nil {
		return nil, fmt.Errorf("query market prices: %w", err)
	}

	records := make([]Record, 0, len(rows))
	var skipped []SkippedRow
	for _, r := range rows {
		if !r.RetailPrice.Valid {
			skipped = append(skipped, SkippedRow{Market: r.Market, Reason: "retail_price is null"})
			continue
		}
		rec := Record{
			Market:      r.Market,
			County:      r.County,
			Crop:        r.Crop,
			Date:        r.Date.UTC(),
			RetailPrice: r.RetailPrice.Float64,
		}
		if r.WholesalePrice.Valid {
			w := r.WholesalePrice.Float64
			rec.WholesalePrice = &w
		}
		if r.Lat.Valid && r.Lon.Valid {
			p := geo.Point{Lat: r.Lat.Float64, Lon: r.Lon.Float64}
			if p.Validate() == nil {
				rec.Coords = &p
			}
		}
		records = append(records, rec)
	}

	return NewTable(s.Name(), records, skipped), nil
}

// Upsert writes records, creating markets as needed. Existing prices for the
// same (market, crop, date) are replaced. Records without a date are rejected.
func (s *PostgresSource) Upsert(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, r := range records {
		if r.Date.IsZero() {
			return fmt.Errorf("record for %s/%s has no date", r.Market, r.Crop)
		}
		if math.IsNaN(r.RetailPrice) || math.IsInf(r.RetailPrice, 0) {
			return fmt.Errorf("record for %s/%s has non-finite price", r.Market, r.Crop)
		}

		var lat, lon sql.NullFloat64
		if r.Coords != nil {
			lat = sql.NullFloat64{Float64: r.Coords.Lat, Valid: true}
			lon = sql.NullFloat64{Float64: r.Coords.Lon, Valid: true}
		}

		var marketID int64
		err := tx.GetContext(ctx, &marketID, `
			INSERT INTO markets (name, county, lat, lon)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (name, county) DO UPDATE
				SET lat = COALESCE(EXCLUDED.lat, markets.lat),
				    lon = COALESCE(EXCLUDED.lon, markets.lon)
			RETURNING id`,
			r.Market, r.County, lat, lon)
		if err != nil {
			return fmt.Errorf("upsert market %s: %w", r.Market, err)
		}

		var wholesale sql.NullFloat64
		if r.WholesalePrice != nil {
			wholesale = sql.NullFloat64{Float64: *r.WholesalePrice, Valid: true}
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO market_prices (market_id, crop, date, retail_price, wholesale_price)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (market_id, crop, date) DO UPDATE
				SET retail_price = EXCLUDED.retail_price,
				    wholesale_price = EXCLUDED.wholesale_price`,
			marketID, NormalizeCrop(r.Crop), r.Date, r.RetailPrice, wholesale)
		if err != nil {
			return fmt.Errorf("upsert price %s/%s: %w", r.Market, r.Crop, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}
