package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver

	"github.com/Doshir1/compound-fixed-rate-swap/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS rate_points (
	market      TEXT             NOT NULL,
	ts          BIGINT           NOT NULL,
	borrow_rate DOUBLE PRECISION NOT NULL,
	supply_rate DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (market, ts)
)`

// Postgres is a RateStore backed by PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a connection pool, verifies connectivity, and creates
// the schema if needed.
func NewPostgres(dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty postgres DSN")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Postgres{db: db}, nil
}

// SaveRates upserts points inside a single transaction.
func (p *Postgres) SaveRates(ctx context.Context, market string, points []models.RatePoint) (int, error) {
	if market == "" {
		return 0, fmt.Errorf("empty market name")
	}
	if len(points) == 0 {
		return 0, nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO rate_points (market, ts, borrow_rate, supply_rate)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (market, ts) DO UPDATE
		SET borrow_rate = EXCLUDED.borrow_rate,
		    supply_rate = EXCLUDED.supply_rate`)
	if err != nil {
		return 0, fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, pt := range points {
		if _, err := stmt.ExecContext(ctx, market, pt.Timestamp, pt.BorrowRate, pt.SupplyRate); err != nil {
			return 0, fmt.Errorf("upsert point ts=%d: %w", pt.Timestamp, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(points), nil
}

// LoadRates returns archived points inside [from, to], ascending.
func (p *Postgres) LoadRates(ctx context.Context, market string, from, to int64) ([]models.RatePoint, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT ts, borrow_rate, supply_rate
		FROM rate_points
		WHERE market = $1 AND ts BETWEEN $2 AND $3
		ORDER BY ts ASC`, market, from, to)
	if err != nil {
		return nil, fmt.Errorf("query rates: %w", err)
	}
	defer rows.Close()

	var out []models.RatePoint
	for rows.Next() {
		var pt models.RatePoint
		if err := rows.Scan(&pt.Timestamp, &pt.BorrowRate, &pt.SupplyRate); err != nil {
			return nil, fmt.Errorf("scan rate row: %w", err)
		}
		out = append(out, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rates: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("market %s window [%d, %d]: %w", market, from, to, ErrNoRates)
	}
	return out, nil
}

// Coverage reports the archived range for a market.
func (p *Postgres) Coverage(ctx context.Context, market string) (*Coverage, error) {
	cov := &Coverage{Market: market}
	err := p.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(MIN(ts), 0), COALESCE(MAX(ts), 0)
		FROM rate_points
		WHERE market = $1`, market).Scan(&cov.Points, &cov.From, &cov.To)
	if err != nil {
		return nil, fmt.Errorf("query coverage: %w", err)
	}
	return cov, nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error { return p.db.Close() }
