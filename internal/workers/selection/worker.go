package selection

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"profitscout/internal/domain/candidate"
	"profitscout/internal/domain/chain"
	"profitscout/internal/events"
	"profitscout/internal/metrics"
	"profitscout/internal/services/pricecache"
	"profitscout/internal/services/selector"
	"profitscout/internal/workers"
	"profitscout/pkg/errors"
)

// StaticUniverse serves a fixed ticker list from configuration
type StaticUniverse struct {
	tickers []string
}

// NewStaticUniverse creates a universe provider over a fixed ticker list
func NewStaticUniverse(tickers []string) *StaticUniverse {
	return &StaticUniverse{tickers: tickers}
}

// EligibleTickers implements candidate.UniverseProvider
func (u *StaticUniverse) EligibleTickers(_ context.Context) ([]string, error) {
	return u.tickers, nil
}

// Worker runs periodic candidate selection: fan out over the eligible
// universe, select per ticker, then commit the full batch atomically.
//
// Per-ticker failures are isolated and logged; only a store-level outage
// aborts the run, and an aborted run commits nothing.
type Worker struct {
	*workers.BaseWorker

	chains     chain.Repository
	prices     *pricecache.Cache
	candidates candidate.Repository
	universe   candidate.UniverseProvider
	selector   *selector.Selector
	publisher  events.Publisher

	maxConcurrency int
}

// Deps bundles the worker's collaborators
type Deps struct {
	Chains     chain.Repository
	Prices     *pricecache.Cache
	Candidates candidate.Repository
	Universe   candidate.UniverseProvider
	Selector   *selector.Selector
	Publisher  events.Publisher
}

// NewWorker creates the selection worker
func NewWorker(deps Deps, interval time.Duration, maxConcurrency int, enabled bool) *Worker {
	if maxConcurrency <= 0 {
		maxConcurrency = 16
	}
	return &Worker{
		BaseWorker:     workers.NewBaseWorker("candidate_selection", interval, enabled),
		chains:         deps.Chains,
		prices:         deps.Prices,
		candidates:     deps.Candidates,
		universe:       deps.Universe,
		selector:       deps.Selector,
		publisher:      deps.Publisher,
		maxConcurrency: maxConcurrency,
	}
}

type tickerResult struct {
	ticker  string
	records []candidate.Record
	err     error
}

// Run executes one complete selection run
func (w *Worker) Run(ctx context.Context) error {
	start := time.Now()
	err := w.run(ctx, start)
	duration := time.Since(start)

	status := "success"
	if err != nil {
		status = "error"
		w.RecordError(err, duration)
	} else {
		w.RecordRun(duration)
	}
	metrics.WorkerExecutions.WithLabelValues(w.Name(), status).Inc()
	metrics.WorkerDuration.WithLabelValues(w.Name()).Observe(duration.Seconds())
	metrics.WorkerLastRun.WithLabelValues(w.Name()).SetToCurrentTime()
	return err
}

func (w *Worker) run(ctx context.Context, start time.Time) error {
	tickers, err := w.universe.EligibleTickers(ctx)
	if err != nil {
		return errors.Wrap(err, "resolve eligible universe")
	}
	if len(tickers) == 0 {
		w.Log().Warn("selection universe is empty, nothing to do")
		return nil
	}

	runID := uuid.New()
	w.Log().Infow("selection run starting",
		"run_id", runID, "tickers", len(tickers))

	results := make([]tickerResult, len(tickers))

	var wg sync.WaitGroup
	sem := make(chan struct{}, w.maxConcurrency)
	for i, ticker := range tickers {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			records, err := w.selectTicker(ctx, runID, ticker)
			results[i] = tickerResult{ticker: ticker, records: records, err: err}
		}(i, ticker)
	}
	wg.Wait()

	var (
		batch  []candidate.Record
		failed int
	)
	for _, res := range results {
		switch {
		case res.err == nil:
			batch = append(batch, res.records...)
			metrics.TickersProcessed.WithLabelValues(w.Name(), "success").Inc()
		case errors.Is(res.err, errors.ErrStoreUnavailable):
			// Nothing has been committed yet; the previous batch stays
			// authoritative
			return errors.Wrapf(res.err, "selection run %s aborted", runID)
		case errors.Is(res.err, errors.ErrNoSnapshot) || errors.Is(res.err, errors.ErrNoPriceHistory):
			metrics.TickersProcessed.WithLabelValues(w.Name(), "no_data").Inc()
			w.Log().Debugw("ticker skipped, no data", "ticker", res.ticker, "error", res.err)
		default:
			failed++
			metrics.TickersProcessed.WithLabelValues(w.Name(), "failed").Inc()
			w.Log().Errorw("ticker selection failed", "ticker", res.ticker, "error", res.err)
		}
	}

	if err := w.candidates.ReplaceBatch(ctx, &candidate.Batch{
		RunID:   runID,
		RunAt:   start.UTC(),
		Records: batch,
	}); err != nil {
		return errors.Wrapf(err, "commit selection run %s", runID)
	}

	byType := map[chain.OptionType]int{}
	for i := range batch {
		byType[batch[i].OptionType]++
	}
	for _, side := range []chain.OptionType{chain.Call, chain.Put} {
		metrics.CandidatesSelected.WithLabelValues(string(side)).Set(float64(byType[side]))
	}

	w.Log().Infow("selection run committed",
		"run_id", runID,
		"candidates", humanize.Comma(int64(len(batch))),
		"tickers_failed", failed,
		"duration", time.Since(start),
	)

	event := &events.SelectionCompletedEvent{
		RunID:          runID,
		RunAt:          start.UTC(),
		TickersTotal:   len(tickers),
		TickersFailed:  failed,
		CandidateCount: len(batch),
		DurationMs:     time.Since(start).Milliseconds(),
	}
	if err := w.publisher.PublishSelectionCompleted(ctx, event); err != nil {
		// The run itself succeeded; a lost event is not worth failing it
		w.Log().Warnw("failed to publish selection event", "run_id", runID, "error", err)
	}

	return nil
}

// selectTicker resolves the latest chain and spot for one ticker and runs the
// selector over it
func (w *Worker) selectTicker(ctx context.Context, runID uuid.UUID, ticker string) ([]candidate.Record, error) {
	snap, err := w.chains.GetLatestSnapshot(ctx, ticker)
	if err != nil {
		if !errors.Is(err, errors.ErrNoSnapshot) && !errors.Is(err, errors.ErrStoreUnavailable) {
			err = errors.NewTickerError(ticker, err)
		}
		return nil, err
	}

	// Spot priority: chain-embedded underlying price, then latest close
	spot := snap.UnderlyingPrice()
	if spot <= 0 {
		close, _, err := w.prices.LatestClose(ctx, ticker)
		if err != nil {
			return nil, err
		}
		spot = close
	}

	return w.selector.Select(runID, selector.Input{
		Snapshot:     snap,
		SpotFallback: spot,
	}), nil
}
