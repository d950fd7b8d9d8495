package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"profitscout/internal/domain/chain"
	"profitscout/internal/metrics"
	"profitscout/pkg/errors"
)

// ChainRepository implements chain.Repository for ClickHouse
type ChainRepository struct {
	conn driver.Conn
}

// NewChainRepository creates a new chain snapshot repository
func NewChainRepository(conn driver.Conn) *ChainRepository {
	return &ChainRepository{conn: conn}
}

// unavailable tags a store failure so run-level callers can abort instead of
// treating it as one ticker's missing data
func unavailable(err error, msg string) error {
	return fmt.Errorf("%s: %w (%w)", msg, errors.ErrStoreUnavailable, err)
}

// LatestCaptureDate returns the most recent capture date for a ticker
func (r *ChainRepository) LatestCaptureDate(ctx context.Context, ticker string) (time.Time, error) {
	defer metrics.ObserveStoreQuery("clickhouse", "latest_capture_date", time.Now())

	query := `
		SELECT capture_date
		FROM options_chain
		WHERE ticker = ?
		ORDER BY capture_date DESC
		LIMIT 1
	`

	rows, err := r.conn.Query(ctx, query, ticker)
	if err != nil {
		return time.Time{}, unavailable(err, "query latest capture date")
	}
	defer rows.Close()

	if !rows.Next() {
		return time.Time{}, errors.Wrapf(errors.ErrNoSnapshot, "ticker %s", ticker)
	}

	var captureDate time.Time
	if err := rows.Scan(&captureDate); err != nil {
		return time.Time{}, errors.Wrap(err, "scan capture date")
	}
	return captureDate, nil
}

// GetSnapshot returns all contracts for (ticker, captureDate)
func (r *ChainRepository) GetSnapshot(ctx context.Context, ticker string, captureDate time.Time) (*chain.Snapshot, error) {
	defer metrics.ObserveStoreQuery("clickhouse", "chain_snapshot", time.Now())

	query := `
		SELECT
			ticker, contract_id, option_type, expiration_date, strike,
			last_price, bid, ask, volume, open_interest,
			implied_volatility, delta, theta, vega, gamma,
			underlying_price, capture_date
		FROM options_chain
		WHERE ticker = ? AND capture_date = ?
		ORDER BY option_type, expiration_date, strike
	`

	rows, err := r.conn.Query(ctx, query, ticker, captureDate)
	if err != nil {
		return nil, unavailable(err, "query chain snapshot")
	}
	defer rows.Close()

	var contracts []chain.ContractQuote
	for rows.Next() {
		var (
			q          chain.ContractQuote
			optionType string
		)
		if err := rows.Scan(
			&q.Ticker, &q.ContractID, &optionType, &q.ExpirationDate, &q.Strike,
			&q.LastPrice, &q.Bid, &q.Ask, &q.Volume, &q.OpenInterest,
			&q.ImpliedVolatility, &q.Delta, &q.Theta, &q.Vega, &q.Gamma,
			&q.UnderlyingPrice, &q.CaptureDate,
		); err != nil {
			return nil, errors.Wrap(err, "scan contract")
		}
		q.OptionType = chain.OptionType(optionType)
		contracts = append(contracts, q)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err, "iterate chain snapshot")
	}

	if len(contracts) == 0 {
		return nil, errors.Wrapf(errors.ErrNoSnapshot, "ticker %s at %s", ticker, captureDate.Format("2006-01-02"))
	}

	return &chain.Snapshot{
		Ticker:      ticker,
		CaptureDate: captureDate,
		Contracts:   contracts,
	}, nil
}

// GetLatestSnapshot returns the snapshot with the maximum capture date
func (r *ChainRepository) GetLatestSnapshot(ctx context.Context, ticker string) (*chain.Snapshot, error) {
	captureDate, err := r.LatestCaptureDate(ctx, ticker)
	if err != nil {
		return nil, err
	}
	return r.GetSnapshot(ctx, ticker, captureDate)
}
