package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"profitscout/internal/domain/candidate"
	"profitscout/internal/metrics"
	"profitscout/pkg/errors"
)

// CandidateRepository implements candidate.Repository on PostgreSQL.
//
// Batches are committed generation-style: records are inserted under a fresh
// run id, then a single-row pointer table is swapped to that run inside the
// same transaction. Readers resolve records through the pointer, so they see
// either the previous complete run or the new complete run, never a mix.
type CandidateRepository struct {
	db *sqlx.DB
}

// NewCandidateRepository creates a new candidate batch repository
func NewCandidateRepository(db *sqlx.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

const insertCandidateQuery = `
	INSERT INTO option_candidates (
		selection_run_id, ticker, signal,
		contract_id, option_type, expiration_date, strike,
		last_price, bid, ask, volume, open_interest,
		implied_volatility, delta, theta, vega, gamma,
		underlying_price, capture_date,
		mid_price, spread_pct, dte, moneyness, moneyness_pct,
		expected_move_pct, breakeven_distance_pct,
		composite_score, rank
	) VALUES (
		:selection_run_id, :ticker, :signal,
		:contract_id, :option_type, :expiration_date, :strike,
		:last_price, :bid, :ask, :volume, :open_interest,
		:implied_volatility, :delta, :theta, :vega, :gamma,
		:underlying_price, :capture_date,
		:mid_price, :spread_pct, :dte, :moneyness, :moneyness_pct,
		:expected_move_pct, :breakeven_distance_pct,
		:composite_score, :rank
	)`

const candidateColumns = `
	selection_run_id, ticker, signal,
	contract_id, option_type, expiration_date, strike,
	last_price, bid, ask, volume, open_interest,
	implied_volatility, delta, theta, vega, gamma,
	underlying_price, capture_date,
	mid_price, spread_pct, dte, moneyness, moneyness_pct,
	expected_move_pct, breakeven_distance_pct,
	composite_score, rank`

// ReplaceBatch atomically replaces the latest candidate set with batch.
// An empty batch is a valid run and still advances the pointer.
func (r *CandidateRepository) ReplaceBatch(ctx context.Context, batch *candidate.Batch) error {
	if batch == nil || batch.RunID == uuid.Nil {
		return errors.Wrap(errors.ErrInvalidInput, "batch requires a run id")
	}
	defer metrics.ObserveStoreQuery("postgres", "replace_batch", time.Now())

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace batch: %w (%w)", errors.ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	if err := r.replaceIn(ctx, tx, batch); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace batch: %w (%w)", errors.ErrStoreUnavailable, err)
	}
	return nil
}

// replaceIn runs the three statements of a generation swap against q
func (r *CandidateRepository) replaceIn(ctx context.Context, q DBTX, batch *candidate.Batch) error {
	if len(batch.Records) > 0 {
		if _, err := q.NamedExecContext(ctx, insertCandidateQuery, batch.Records); err != nil {
			return errors.Wrapf(err, "insert candidate records for run %s", batch.RunID)
		}
	}

	_, err := q.ExecContext(ctx, `
		INSERT INTO selection_state (id, selection_run_id, run_at)
		VALUES (TRUE, $1, $2)
		ON CONFLICT (id) DO UPDATE SET
			selection_run_id = EXCLUDED.selection_run_id,
			run_at = EXCLUDED.run_at`,
		batch.RunID, batch.RunAt,
	)
	if err != nil {
		return errors.Wrapf(err, "advance selection pointer to run %s", batch.RunID)
	}

	// Superseded generations are unreachable once the pointer moves
	if _, err := q.ExecContext(ctx,
		`DELETE FROM option_candidates WHERE selection_run_id <> $1`,
		batch.RunID,
	); err != nil {
		return errors.Wrap(err, "prune superseded candidate generations")
	}
	return nil
}

// GetLatestBatch returns the latest committed run's records with composite
// score at or above minScore (0 returns all)
func (r *CandidateRepository) GetLatestBatch(ctx context.Context, minScore float64) ([]candidate.Record, error) {
	defer metrics.ObserveStoreQuery("postgres", "latest_batch", time.Now())

	runID, err := r.latestRunID(ctx)
	if err != nil {
		return nil, err
	}

	var records []candidate.Record
	query := fmt.Sprintf(`
		SELECT %s
		FROM option_candidates
		WHERE selection_run_id = $1 AND composite_score >= $2
		ORDER BY ticker, option_type, rank`, candidateColumns)

	if err := r.db.SelectContext(ctx, &records, query, runID, minScore); err != nil {
		return nil, errors.Wrap(err, "select latest candidate batch")
	}
	return records, nil
}

// GetLatestRunTickers returns the distinct tickers in the latest committed run
func (r *CandidateRepository) GetLatestRunTickers(ctx context.Context) ([]string, error) {
	defer metrics.ObserveStoreQuery("postgres", "latest_run_tickers", time.Now())

	runID, err := r.latestRunID(ctx)
	if err != nil {
		return nil, err
	}

	var tickers []string
	err = r.db.SelectContext(ctx, &tickers, `
		SELECT DISTINCT ticker
		FROM option_candidates
		WHERE selection_run_id = $1
		ORDER BY ticker`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "select latest run tickers")
	}
	return tickers, nil
}

func (r *CandidateRepository) latestRunID(ctx context.Context) (uuid.UUID, error) {
	var runID uuid.UUID
	err := r.db.GetContext(ctx, &runID,
		`SELECT selection_run_id FROM selection_state WHERE id = TRUE`)
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, errors.ErrRunNotCommitted
	}
	if err != nil {
		return uuid.Nil, errors.Wrap(err, "resolve latest selection run")
	}
	return runID, nil
}
