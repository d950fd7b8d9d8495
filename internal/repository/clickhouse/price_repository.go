package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"profitscout/internal/domain/pricehistory"
	"profitscout/internal/metrics"
	"profitscout/pkg/errors"
)

// PriceRepository implements pricehistory.Repository for ClickHouse
type PriceRepository struct {
	conn driver.Conn
}

// NewPriceRepository creates a new daily price history repository
func NewPriceRepository(conn driver.Conn) *PriceRepository {
	return &PriceRepository{conn: conn}
}

// GetHistory returns the trailing windowDays of bars for a ticker, ascending
// by date. An empty result is normal for unknown or recently listed tickers.
func (r *PriceRepository) GetHistory(ctx context.Context, ticker string, windowDays int) ([]pricehistory.DailyBar, error) {
	defer metrics.ObserveStoreQuery("clickhouse", "price_history", time.Now())

	// Inner query grabs the newest windowDays rows, outer flips them back
	// to ascending for the indicator pipeline
	query := `
		SELECT ticker, date, open, high, low, close, volume
		FROM (
			SELECT ticker, date, open, high, low, close, volume
			FROM price_history
			WHERE ticker = ?
			ORDER BY date DESC
			LIMIT ?
		)
		ORDER BY date ASC
	`

	rows, err := r.conn.Query(ctx, query, ticker, windowDays)
	if err != nil {
		return nil, unavailable(err, "query price history")
	}
	defer rows.Close()

	var bars []pricehistory.DailyBar
	for rows.Next() {
		var b pricehistory.DailyBar
		if err := rows.Scan(&b.Ticker, &b.Date, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, errors.Wrap(err, "scan daily bar")
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(err, "iterate price history")
	}

	return bars, nil
}

// GetLatestClose returns the most recent close and its date
func (r *PriceRepository) GetLatestClose(ctx context.Context, ticker string) (float64, time.Time, error) {
	defer metrics.ObserveStoreQuery("clickhouse", "latest_close", time.Now())

	query := `
		SELECT close, date
		FROM price_history
		WHERE ticker = ?
		ORDER BY date DESC
		LIMIT 1
	`

	rows, err := r.conn.Query(ctx, query, ticker)
	if err != nil {
		return 0, time.Time{}, unavailable(err, "query latest close")
	}
	defer rows.Close()

	if !rows.Next() {
		return 0, time.Time{}, errors.Wrapf(errors.ErrNoPriceHistory, "ticker %s", ticker)
	}

	var (
		close float64
		date  time.Time
	)
	if err := rows.Scan(&close, &date); err != nil {
		return 0, time.Time{}, errors.Wrap(err, "scan latest close")
	}
	return close, date, nil
}
