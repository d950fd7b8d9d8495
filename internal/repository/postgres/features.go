package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"profitscout/internal/domain/features"
	"profitscout/internal/metrics"
	"profitscout/pkg/errors"
)

// FeaturesRepository implements features.Repository on PostgreSQL.
//
// Writes are keyed upserts: a non-null incoming field overwrites, a null one
// leaves the stored value alone. Rewriting the same record is a no-op, so the
// enrichment run is safe to repeat.
type FeaturesRepository struct {
	db *sqlx.DB
}

// NewFeaturesRepository creates a new technical feature repository
func NewFeaturesRepository(db *sqlx.DB) *FeaturesRepository {
	return &FeaturesRepository{db: db}
}

const upsertFeatureQuery = `
	INSERT INTO ticker_features (
		ticker, date,
		open, high, low, close, volume,
		rsi_14, macd, sma_50, sma_200,
		hv_30, iv_avg_atm, iv_signal,
		close_30d_delta_pct, rsi_30d_delta, macd_30d_delta,
		close_90d_delta_pct, rsi_90d_delta, macd_90d_delta,
		total_gex, net_call_gamma, net_put_gamma,
		call_wall, put_wall, max_pain,
		put_call_vol_ratio, put_call_oi_ratio
	) VALUES (
		:ticker, :date,
		:open, :high, :low, :close, :volume,
		:rsi_14, :macd, :sma_50, :sma_200,
		:hv_30, :iv_avg_atm, :iv_signal,
		:close_30d_delta_pct, :rsi_30d_delta, :macd_30d_delta,
		:close_90d_delta_pct, :rsi_90d_delta, :macd_90d_delta,
		:total_gex, :net_call_gamma, :net_put_gamma,
		:call_wall, :put_wall, :max_pain,
		:put_call_vol_ratio, :put_call_oi_ratio
	)
	ON CONFLICT (ticker, date) DO UPDATE SET
		open = COALESCE(EXCLUDED.open, ticker_features.open),
		high = COALESCE(EXCLUDED.high, ticker_features.high),
		low = COALESCE(EXCLUDED.low, ticker_features.low),
		close = COALESCE(EXCLUDED.close, ticker_features.close),
		volume = COALESCE(EXCLUDED.volume, ticker_features.volume),
		rsi_14 = COALESCE(EXCLUDED.rsi_14, ticker_features.rsi_14),
		macd = COALESCE(EXCLUDED.macd, ticker_features.macd),
		sma_50 = COALESCE(EXCLUDED.sma_50, ticker_features.sma_50),
		sma_200 = COALESCE(EXCLUDED.sma_200, ticker_features.sma_200),
		hv_30 = COALESCE(EXCLUDED.hv_30, ticker_features.hv_30),
		iv_avg_atm = COALESCE(EXCLUDED.iv_avg_atm, ticker_features.iv_avg_atm),
		iv_signal = COALESCE(NULLIF(EXCLUDED.iv_signal, ''), ticker_features.iv_signal),
		close_30d_delta_pct = COALESCE(EXCLUDED.close_30d_delta_pct, ticker_features.close_30d_delta_pct),
		rsi_30d_delta = COALESCE(EXCLUDED.rsi_30d_delta, ticker_features.rsi_30d_delta),
		macd_30d_delta = COALESCE(EXCLUDED.macd_30d_delta, ticker_features.macd_30d_delta),
		close_90d_delta_pct = COALESCE(EXCLUDED.close_90d_delta_pct, ticker_features.close_90d_delta_pct),
		rsi_90d_delta = COALESCE(EXCLUDED.rsi_90d_delta, ticker_features.rsi_90d_delta),
		macd_90d_delta = COALESCE(EXCLUDED.macd_90d_delta, ticker_features.macd_90d_delta),
		total_gex = COALESCE(EXCLUDED.total_gex, ticker_features.total_gex),
		net_call_gamma = COALESCE(EXCLUDED.net_call_gamma, ticker_features.net_call_gamma),
		net_put_gamma = COALESCE(EXCLUDED.net_put_gamma, ticker_features.net_put_gamma),
		call_wall = COALESCE(EXCLUDED.call_wall, ticker_features.call_wall),
		put_wall = COALESCE(EXCLUDED.put_wall, ticker_features.put_wall),
		max_pain = COALESCE(EXCLUDED.max_pain, ticker_features.max_pain),
		put_call_vol_ratio = COALESCE(EXCLUDED.put_call_vol_ratio, ticker_features.put_call_vol_ratio),
		put_call_oi_ratio = COALESCE(EXCLUDED.put_call_oi_ratio, ticker_features.put_call_oi_ratio)`

// Upsert merges records into the feature store keyed by (ticker, date)
func (r *FeaturesRepository) Upsert(ctx context.Context, records []features.Record) error {
	if len(records) == 0 {
		return nil
	}
	defer metrics.ObserveStoreQuery("postgres", "feature_upsert", time.Now())

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin feature upsert: %w (%w)", errors.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	if err := r.upsertIn(ctx, tx, records); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit feature upsert: %w (%w)", errors.ErrStoreUnavailable, err)
	}
	return nil
}

// upsertIn merges records through q one statement per record
func (r *FeaturesRepository) upsertIn(ctx context.Context, q DBTX, records []features.Record) error {
	for i := range records {
		if _, err := q.NamedExecContext(ctx, upsertFeatureQuery, &records[i]); err != nil {
			return errors.Wrapf(err, "upsert features for %s", records[i].Ticker)
		}
	}
	return nil
}

const featureColumns = `
	ticker, date,
	open, high, low, close, volume,
	rsi_14, macd, sma_50, sma_200,
	hv_30, iv_avg_atm, iv_signal,
	close_30d_delta_pct, rsi_30d_delta, macd_30d_delta,
	close_90d_delta_pct, rsi_90d_delta, macd_90d_delta,
	total_gex, net_call_gamma, net_put_gamma,
	call_wall, put_wall, max_pain,
	put_call_vol_ratio, put_call_oi_ratio`

// GetLatest returns the most recent record for a ticker
func (r *FeaturesRepository) GetLatest(ctx context.Context, ticker string) (*features.Record, error) {
	defer metrics.ObserveStoreQuery("postgres", "latest_features", time.Now())

	query := fmt.Sprintf(`
		SELECT %s
		FROM ticker_features
		WHERE ticker = $1
		ORDER BY date DESC
		LIMIT 1`, featureColumns)

	var rec features.Record
	err := r.db.GetContext(ctx, &rec, query, ticker)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrNotFound, "no features for ticker %s", ticker)
	}
	if err != nil {
		return nil, errors.Wrap(err, "select latest features")
	}
	return &rec, nil
}
