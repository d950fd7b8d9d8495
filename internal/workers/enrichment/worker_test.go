package enrichment

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profitscout/internal/domain/candidate"
	"profitscout/internal/domain/chain"
	"profitscout/internal/domain/features"
	"profitscout/internal/domain/pricehistory"
	"profitscout/internal/events"
	featuresvc "profitscout/internal/services/features"
	"profitscout/internal/services/structure"
	"profitscout/pkg/errors"
)

var captureDate = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

type fakeChains struct {
	snapshots map[string]*chain.Snapshot
	failWith  error
}

func (f *fakeChains) LatestCaptureDate(_ context.Context, ticker string) (time.Time, error) {
	if snap, ok := f.snapshots[ticker]; ok {
		return snap.CaptureDate, nil
	}
	return time.Time{}, errors.ErrNoSnapshot
}

func (f *fakeChains) GetSnapshot(ctx context.Context, ticker string, _ time.Time) (*chain.Snapshot, error) {
	return f.GetLatestSnapshot(ctx, ticker)
}

func (f *fakeChains) GetLatestSnapshot(_ context.Context, ticker string) (*chain.Snapshot, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	snap, ok := f.snapshots[ticker]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNoSnapshot, "ticker %s", ticker)
	}
	return snap, nil
}

type fakePrices struct {
	history map[string][]pricehistory.DailyBar
}

func (f *fakePrices) GetHistory(_ context.Context, ticker string, _ int) ([]pricehistory.DailyBar, error) {
	return f.history[ticker], nil
}

func (f *fakePrices) GetLatestClose(_ context.Context, ticker string) (float64, time.Time, error) {
	bars := f.history[ticker]
	if len(bars) == 0 {
		return 0, time.Time{}, errors.ErrNoPriceHistory
	}
	last := bars[len(bars)-1]
	return last.Close, last.Date, nil
}

type fakeCandidates struct {
	tickers []string
	err     error
}

func (f *fakeCandidates) ReplaceBatch(context.Context, *candidate.Batch) error { return nil }

func (f *fakeCandidates) GetLatestBatch(context.Context, float64) ([]candidate.Record, error) {
	return nil, errors.ErrRunNotCommitted
}

func (f *fakeCandidates) GetLatestRunTickers(context.Context) ([]string, error) {
	return f.tickers, f.err
}

type fakeFeatures struct {
	mu      sync.Mutex
	upserts [][]features.Record
}

func (f *fakeFeatures) Upsert(_ context.Context, records []features.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts = append(f.upserts, records)
	return nil
}

func (f *fakeFeatures) GetLatest(context.Context, string) (*features.Record, error) {
	return nil, errors.ErrNotFound
}

type staticUniverse []string

func (u staticUniverse) EligibleTickers(context.Context) ([]string, error) { return u, nil }

func bars(n int, seed int64) []pricehistory.DailyBar {
	rng := rand.New(rand.NewSource(seed))
	start := captureDate.AddDate(0, 0, -n)
	price := 100.0
	out := make([]pricehistory.DailyBar, n)
	for i := 0; i < n; i++ {
		price *= 1 + (rng.Float64()-0.48)*0.02
		out[i] = pricehistory.DailyBar{
			Ticker: "ACME",
			Date:   start.AddDate(0, 0, i),
			Open:   price * 0.995,
			High:   price * 1.01,
			Low:    price * 0.99,
			Close:  price,
			Volume: 1_000_000,
		}
	}
	return out
}

func atmSnapshot(ticker string) *chain.Snapshot {
	spot := 100.0
	return &chain.Snapshot{
		Ticker:      ticker,
		CaptureDate: captureDate,
		Contracts: []chain.ContractQuote{
			{
				Ticker: ticker, OptionType: chain.Call, Strike: 102,
				ExpirationDate: captureDate.AddDate(0, 0, 30),
				OpenInterest:   900, Volume: 200, Gamma: 0.02,
				ImpliedVolatility: 0.40,
				UnderlyingPrice:   &spot, CaptureDate: captureDate,
			},
			{
				Ticker: ticker, OptionType: chain.Put, Strike: 98,
				ExpirationDate: captureDate.AddDate(0, 0, 30),
				OpenInterest:   600, Volume: 300, Gamma: 0.015,
				ImpliedVolatility: 0.50,
				UnderlyingPrice:   &spot, CaptureDate: captureDate,
			},
		},
	}
}

func newTestWorker(chains *fakeChains, prices *fakePrices, cands *fakeCandidates, feats *fakeFeatures, universe []string) *Worker {
	return NewWorker(Deps{
		Chains:     chains,
		Prices:     prices,
		Candidates: cands,
		Features:   feats,
		Universe:   staticUniverse(universe),
		Analyzer:   structure.NewAnalyzer(),
		Calculator: featuresvc.NewCalculator(),
		Publisher:  events.NopPublisher{},
	}, time.Hour, 400, 4, true)
}

func TestRun_EnrichesLatestRunTickers(t *testing.T) {
	chains := &fakeChains{snapshots: map[string]*chain.Snapshot{"ACME": atmSnapshot("ACME")}}
	prices := &fakePrices{history: map[string][]pricehistory.DailyBar{"ACME": bars(400, 1)}}
	cands := &fakeCandidates{tickers: []string{"ACME"}}
	feats := &fakeFeatures{}

	w := newTestWorker(chains, prices, cands, feats, []string{"IGNORED"})
	require.NoError(t, w.Run(context.Background()))

	require.Len(t, feats.upserts, 1)
	require.Len(t, feats.upserts[0], 1)
	rec := feats.upserts[0][0]

	assert.Equal(t, "ACME", rec.Ticker)
	assert.NotNil(t, rec.RSI14)
	assert.NotNil(t, rec.SMA200)
	assert.NotNil(t, rec.HV30)

	// Structure overlay from the chain
	require.NotNil(t, rec.TotalGEX)
	require.NotNil(t, rec.CallWall)
	assert.Equal(t, 102.0, *rec.CallWall)
	require.NotNil(t, rec.PutWall)
	assert.Equal(t, 98.0, *rec.PutWall)
	require.NotNil(t, rec.IVAvgATM)
	assert.InDelta(t, 0.45, *rec.IVAvgATM, 1e-9)
	require.NotNil(t, rec.PutCallVolRatio)
	assert.InDelta(t, 1.5, *rec.PutCallVolRatio, 1e-9)
}

func TestRun_FallsBackToUniverse(t *testing.T) {
	chains := &fakeChains{snapshots: map[string]*chain.Snapshot{}}
	prices := &fakePrices{history: map[string][]pricehistory.DailyBar{"GLOB": bars(400, 2)}}
	cands := &fakeCandidates{err: errors.ErrRunNotCommitted}
	feats := &fakeFeatures{}

	w := newTestWorker(chains, prices, cands, feats, []string{"GLOB"})
	require.NoError(t, w.Run(context.Background()))

	require.Len(t, feats.upserts, 1)
	require.Len(t, feats.upserts[0], 1)
	rec := feats.upserts[0][0]
	assert.Equal(t, "GLOB", rec.Ticker)

	// No chain: technicals only, structure stays undefined
	assert.NotNil(t, rec.RSI14)
	assert.Nil(t, rec.TotalGEX)
	assert.Nil(t, rec.MaxPain)
	assert.Equal(t, features.IVSignalUnknown, rec.IVSignal)
}

func TestRun_MissingHistorySkipsTicker(t *testing.T) {
	chains := &fakeChains{snapshots: map[string]*chain.Snapshot{}}
	prices := &fakePrices{history: map[string][]pricehistory.DailyBar{"ACME": bars(400, 3)}}
	cands := &fakeCandidates{tickers: []string{"ACME", "NEWCO"}}
	feats := &fakeFeatures{}

	w := newTestWorker(chains, prices, cands, feats, nil)
	require.NoError(t, w.Run(context.Background()))

	require.Len(t, feats.upserts, 1)
	require.Len(t, feats.upserts[0], 1)
	assert.Equal(t, "ACME", feats.upserts[0][0].Ticker)
}

func TestRun_StoreOutageAborts(t *testing.T) {
	chains := &fakeChains{failWith: errors.Wrap(errors.ErrStoreUnavailable, "connection refused")}
	prices := &fakePrices{history: map[string][]pricehistory.DailyBar{"ACME": bars(400, 4)}}
	cands := &fakeCandidates{tickers: []string{"ACME"}}
	feats := &fakeFeatures{}

	w := newTestWorker(chains, prices, cands, feats, nil)
	err := w.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrStoreUnavailable))
	assert.Empty(t, feats.upserts)
}
