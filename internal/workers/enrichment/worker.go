package enrichment

import (
	"context"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"profitscout/internal/domain/candidate"
	"profitscout/internal/domain/chain"
	"profitscout/internal/domain/features"
	"profitscout/internal/domain/pricehistory"
	domstructure "profitscout/internal/domain/structure"
	"profitscout/internal/events"
	"profitscout/internal/metrics"
	featuresvc "profitscout/internal/services/features"
	"profitscout/internal/services/structure"
	"profitscout/internal/workers"
	"profitscout/pkg/errors"
)

// Worker runs periodic feature enrichment: for every ticker in the latest
// selection run it computes technical indicators from price history, layers
// market-structure context from the latest chain on top, and upserts one
// record per (ticker, date).
//
// When no selection run has been committed yet the configured universe is
// enriched instead, so the feature store warms up before the first run.
type Worker struct {
	*workers.BaseWorker

	chains     chain.Repository
	prices     pricehistory.Repository
	candidates candidate.Repository
	feats      features.Repository
	universe   candidate.UniverseProvider
	analyzer   *structure.Analyzer
	calculator *featuresvc.Calculator
	publisher  events.Publisher

	priceWindowDays int
	maxConcurrency  int
}

// Deps bundles the worker's collaborators
type Deps struct {
	Chains     chain.Repository
	Prices     pricehistory.Repository
	Candidates candidate.Repository
	Features   features.Repository
	Universe   candidate.UniverseProvider
	Analyzer   *structure.Analyzer
	Calculator *featuresvc.Calculator
	Publisher  events.Publisher
}

// NewWorker creates the enrichment worker
func NewWorker(deps Deps, interval time.Duration, priceWindowDays, maxConcurrency int, enabled bool) *Worker {
	if maxConcurrency <= 0 {
		maxConcurrency = 16
	}
	return &Worker{
		BaseWorker:      workers.NewBaseWorker("feature_enrichment", interval, enabled),
		chains:          deps.Chains,
		prices:          deps.Prices,
		candidates:      deps.Candidates,
		feats:           deps.Features,
		universe:        deps.Universe,
		analyzer:        deps.Analyzer,
		calculator:      deps.Calculator,
		publisher:       deps.Publisher,
		priceWindowDays: priceWindowDays,
		maxConcurrency:  maxConcurrency,
	}
}

type tickerResult struct {
	ticker string
	record *features.Record
	err    error
}

// Run executes one complete enrichment run
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
	tickers, err := w.resolveTickers(ctx)
	if err != nil {
		return err
	}
	if len(tickers) == 0 {
		w.Log().Warn("no tickers to enrich")
		return nil
	}

	w.Log().Infow("enrichment run starting", "tickers", len(tickers))

	results := make([]tickerResult, len(tickers))

	var wg sync.WaitGroup
	sem := make(chan struct{}, w.maxConcurrency)
	for i, ticker := range tickers {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			rec, err := w.enrichTicker(ctx, ticker)
			results[i] = tickerResult{ticker: ticker, record: rec, err: err}
		}(i, ticker)
	}
	wg.Wait()

	var (
		records []features.Record
		failed  int
	)
	for _, res := range results {
		switch {
		case res.err == nil:
			records = append(records, *res.record)
			metrics.TickersProcessed.WithLabelValues(w.Name(), "success").Inc()
		case errors.Is(res.err, errors.ErrStoreUnavailable):
			return errors.Wrap(res.err, "enrichment run aborted")
		case errors.Is(res.err, errors.ErrNoPriceHistory):
			metrics.TickersProcessed.WithLabelValues(w.Name(), "no_data").Inc()
			w.Log().Debugw("ticker skipped, no price history", "ticker", res.ticker)
		default:
			failed++
			metrics.TickersProcessed.WithLabelValues(w.Name(), "failed").Inc()
			w.Log().Errorw("ticker enrichment failed", "ticker", res.ticker, "error", res.err)
		}
	}

	if err := w.feats.Upsert(ctx, records); err != nil {
		return errors.Wrap(err, "upsert feature records")
	}
	metrics.FeatureRecordsUpserted.Add(float64(len(records)))

	w.Log().Infow("enrichment run completed",
		"records", humanize.Comma(int64(len(records))),
		"tickers_failed", failed,
		"duration", time.Since(start),
	)

	event := &events.EnrichmentCompletedEvent{
		RunAt:         start.UTC(),
		TickersTotal:  len(tickers),
		TickersFailed: failed,
		RecordsSaved:  len(records),
		DurationMs:    time.Since(start).Milliseconds(),
	}
	if err := w.publisher.PublishEnrichmentCompleted(ctx, event); err != nil {
		w.Log().Warnw("failed to publish enrichment event", "error", err)
	}

	return nil
}

// resolveTickers prefers the latest committed selection run, falling back to
// the static universe before any run exists
func (w *Worker) resolveTickers(ctx context.Context) ([]string, error) {
	tickers, err := w.candidates.GetLatestRunTickers(ctx)
	if err == nil && len(tickers) > 0 {
		return tickers, nil
	}
	if err != nil && !errors.Is(err, errors.ErrRunNotCommitted) {
		return nil, errors.Wrap(err, "resolve latest run tickers")
	}
	return w.universe.EligibleTickers(ctx)
}

// enrichTicker computes one feature record for the most recent date
func (w *Worker) enrichTicker(ctx context.Context, ticker string) (*features.Record, error) {
	history, err := w.prices.GetHistory(ctx, ticker, w.priceWindowDays)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, errors.Wrapf(errors.ErrNoPriceHistory, "ticker %s", ticker)
	}

	// Market structure is optional context: a missing chain degrades to a
	// technicals-only record
	var structSnap domstructure.Snapshot
	snap, err := w.chains.GetLatestSnapshot(ctx, ticker)
	switch {
	case err == nil:
		spot := snap.UnderlyingPrice()
		if spot <= 0 {
			spot = history[len(history)-1].Close
		}
		structSnap = w.analyzer.Analyze(snap, spot)
	case errors.Is(err, errors.ErrNoSnapshot):
		w.Log().Debugw("no chain snapshot, skipping market structure", "ticker", ticker)
	default:
		return nil, err
	}

	rec, err := w.calculator.Compute(featuresvc.Input{
		Ticker:   ticker,
		History:  history,
		IVAvgATM: structSnap.IVAvgATM,
	})
	if err != nil {
		return nil, errors.NewTickerError(ticker, err)
	}

	overlayStructure(rec, &structSnap, snap != nil)
	return rec, nil
}

// overlayStructure copies market-structure metrics onto the feature record.
// Gamma magnitudes are always defined once a chain exists; the pointer
// metrics carry their own undefined states.
func overlayStructure(rec *features.Record, s *domstructure.Snapshot, hasChain bool) {
	if !hasChain {
		return
	}
	totalGEX := s.TotalGEX
	callGamma := s.NetCallGamma
	putGamma := s.NetPutGamma
	rec.TotalGEX = &totalGEX
	rec.NetCallGamma = &callGamma
	rec.NetPutGamma = &putGamma
	rec.CallWall = s.CallWall
	rec.PutWall = s.PutWall
	rec.MaxPain = s.MaxPain
	rec.PutCallVolRatio = s.PutCallVolumeRatio
	rec.PutCallOIRatio = s.PutCallOIRatio
}
