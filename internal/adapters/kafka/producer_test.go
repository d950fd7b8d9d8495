package kafka

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetWriter_ReusesWriterPerTopic(t *testing.T) {
	p := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}})
	defer p.Close()

	first := p.getWriter("analytics.selection_completed")
	second := p.getWriter("analytics.selection_completed")
	other := p.getWriter("analytics.enrichment_completed")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
}

func TestGetWriter_ConcurrentAccess(t *testing.T) {
	p := NewProducer(ProducerConfig{Brokers: []string{"localhost:9092"}})
	defer p.Close()

	const goroutines = 32
	topics := []string{"topic.a", "topic.b", "topic.c"}

	var wg sync.WaitGroup
	got := make([]map[string]interface{}, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen := make(map[string]interface{}, len(topics))
			for j := 0; j < 50; j++ {
				topic := topics[(i+j)%len(topics)]
				seen[topic] = p.getWriter(topic)
			}
			got[i] = seen
		}(i)
	}
	wg.Wait()

	// Every goroutine must have observed the same writer instance per topic
	for _, topic := range topics {
		require.NotNil(t, got[0][topic], fmt.Sprintf("no writer for %s", topic))
		for i := 1; i < goroutines; i++ {
			assert.Same(t, got[0][topic], got[i][topic])
		}
	}
}
