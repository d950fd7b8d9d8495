package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics for analytics run lifecycle events
const (
	TopicSelectionCompleted  = "analytics.selection_completed"
	TopicEnrichmentCompleted = "analytics.enrichment_completed"
)

// SelectionCompletedEvent announces a committed candidate selection run
type SelectionCompletedEvent struct {
	RunID          uuid.UUID `json:"run_id"`
	RunAt          time.Time `json:"run_at"`
	TickersTotal   int       `json:"tickers_total"`
	TickersFailed  int       `json:"tickers_failed"`
	CandidateCount int       `json:"candidate_count"`
	DurationMs     int64     `json:"duration_ms"`
}

// EnrichmentCompletedEvent announces a completed feature enrichment run
type EnrichmentCompletedEvent struct {
	RunAt         time.Time `json:"run_at"`
	TickersTotal  int       `json:"tickers_total"`
	TickersFailed int       `json:"tickers_failed"`
	RecordsSaved  int       `json:"records_saved"`
	DurationMs    int64     `json:"duration_ms"`
}
