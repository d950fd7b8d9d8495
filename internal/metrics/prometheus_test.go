package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveStoreQuery(t *testing.T) {
	StoreQueryDuration.Reset()

	ObserveStoreQuery("clickhouse", "chain_snapshot", time.Now())
	ObserveStoreQuery("clickhouse", "chain_snapshot", time.Now())
	ObserveStoreQuery("postgres", "replace_batch", time.Now())

	// One series per (store, operation) pair
	assert.Equal(t, 2, testutil.CollectAndCount(StoreQueryDuration))
}
