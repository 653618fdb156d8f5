// AgriMarket - Crop Market Ranking and Selling Advice
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/agrimarket

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // duckdb driver
	"github.com/goccy/go-json"

	"github.com/tomtom215/agrimarket/internal/logging"
)

// DuckDBStore implements Store using DuckDB for persistent storage.
type DuckDBStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// OpenDuckDB opens a DuckDB database. An empty path opens an in-memory
// database.
func OpenDuckDB(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb %q: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb %q: %w", path, err)
	}
	return db, nil
}

// NewDuckDBStore creates a DuckDB-backed audit store.
// Call CreateTable before first use.
func NewDuckDBStore(db *sql.DB) *DuckDBStore {
	return &DuckDBStore{db: db}
}

const recordColumns = `id, timestamp, request_id, correlation_id,
	farmer_name, location, crop, language, no_data,
	candidate_count, best_market, best_market_county, best_price, sell_start, sell_end,
	explanation_source, model_name, data_sources, prompt_snippet`

// CreateTable creates the advice_audit table if it doesn't exist.
func (s *DuckDBStore) CreateTable(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS advice_audit (
			id TEXT PRIMARY KEY,
			timestamp TIMESTAMPTZ NOT NULL,
			request_id TEXT,
			correlation_id TEXT,

			farmer_name TEXT NOT NULL,
			location TEXT NOT NULL,
			crop TEXT NOT NULL,
			language TEXT NOT NULL,
			no_data BOOLEAN NOT NULL,

			candidate_count INTEGER NOT NULL,
			best_market TEXT,
			best_market_county TEXT,
			best_price DOUBLE,
			sell_start TIMESTAMPTZ,
			sell_end TIMESTAMPTZ,

			explanation_source TEXT NOT NULL,
			model_name TEXT,
			data_sources TEXT NOT NULL,
			prompt_snippet TEXT NOT NULL,

			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_advice_audit_timestamp ON advice_audit(timestamp);
		CREATE INDEX IF NOT EXISTS idx_advice_audit_crop ON advice_audit(crop);
	`

	for _, stmt := range strings.Split(query, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	logging.Info().Msg("Advice audit table created/verified")
	return nil
}

// Save persists a record. Existing IDs are ignored.
func (s *DuckDBStore) Save(ctx context.Context, r *Record) error {
	if r == nil {
		return fmt.Errorf("record cannot be nil")
	}

	sources, err := json.Marshal(r.DataSources)
	if err != nil {
		return fmt.Errorf("marshal data sources: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `INSERT INTO advice_audit (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING`

	_, err = s.db.ExecContext(ctx, query,
		r.ID, r.Timestamp, nullString(r.RequestID), nullString(r.CorrelationID),
		r.FarmerName, r.Location, r.Crop, r.Language, r.NoData,
		r.CandidateCount, nullString(r.BestMarket), nullString(r.BestMarketCounty), nullable(r.BestPrice), nullable(r.SellStart), nullable(r.SellEnd),
		r.ExplanationSource, nullString(r.ModelName), string(sources), r.PromptSnippet,
	)
	if err != nil {
		return fmt.Errorf("failed to save audit record: %w", err)
	}
	return nil
}

// Get retrieves a record by ID.
func (s *DuckDBStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM advice_audit WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

// Query retrieves records matching the filter, newest first.
func (s *DuckDBStore) Query(ctx context.Context, filter QueryFilter) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := buildWhere(&filter)
	query := `SELECT ` + recordColumns + ` FROM advice_audit` + where + ` ORDER BY timestamp DESC, id`
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit records: %w", err)
	}
	defer rows.Close()

	results := []Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit records: %w", err)
	}
	return results, nil
}

// Count returns the number of records matching the filter.
func (s *DuckDBStore) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	where, args := buildWhere(&filter)
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM advice_audit`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count audit records: %w", err)
	}
	return n, nil
}

// Delete removes records older than the cutoff.
func (s *DuckDBStore) Delete(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM advice_audit WHERE timestamp < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("failed to delete audit records: %w", err)
	}
	return res.RowsAffected()
}

func buildWhere(f *QueryFilter) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.Crop != "" {
		conds = append(conds, "lower(crop) = lower(?)")
		args = append(args, f.Crop)
	}
	if f.Location != "" {
		conds = append(conds, "lower(location) = lower(?)")
		args = append(args, f.Location)
	}
	if f.ExplanationSource != "" {
		conds = append(conds, "explanation_source = ?")
		args = append(args, f.ExplanationSource)
	}
	if f.StartTime != nil {
		conds = append(conds, "timestamp >= ?")
		args = append(args, *f.StartTime)
	}
	if f.EndTime != nil {
		conds = append(conds, "timestamp <= ?")
		args = append(args, *f.EndTime)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*Record, error) {
	var (
		r                                    Record
		requestID, correlationID, bestMarket sql.NullString
		bestCounty, modelName                sql.NullString
		bestPrice                            sql.NullFloat64
		sellStart, sellEnd                   sql.NullTime
		sources                              string
	)

	err := row.Scan(
		&r.ID, &r.Timestamp, &requestID, &correlationID,
		&r.FarmerName, &r.Location, &r.Crop, &r.Language, &r.NoData,
		&r.CandidateCount, &bestMarket, &bestCounty, &bestPrice, &sellStart, &sellEnd,
		&r.ExplanationSource, &modelName, &sources, &r.PromptSnippet,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan audit record: %w", err)
	}

	r.RequestID = requestID.String
	r.CorrelationID = correlationID.String
	r.BestMarket = bestMarket.String
	r.BestMarketCounty = bestCounty.String
	r.ModelName = modelName.String
	if bestPrice.Valid {
		v := bestPrice.Float64
		r.BestPrice = &v
	}
	if sellStart.Valid {
		v := sellStart.Time
		r.SellStart = &v
	}
	if sellEnd.Valid {
		v := sellEnd.Time
		r.SellEnd = &v
	}
	if err := json.Unmarshal([]byte(sources), &r.DataSources); err != nil {
		return nil, fmt.Errorf("failed to decode data sources: %w", err)
	}
	return &r, nil
}

// nullString and nullable map empty values to SQL NULL.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullable[T any](p *T) interface{} {
	if p == nil {
		return nil
	}
	return *p
}
