package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CrawlsTotal.WithLabelValues("success").Inc()
	m.ItemFailures.WithLabelValues("timeout").Add(2)
	m.CachedArticles.Set(7)

	assert.InDelta(t, 1, testutil.ToFloat64(m.CrawlsTotal.WithLabelValues("success")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.ItemFailures.WithLabelValues("timeout")), 0)
	assert.InDelta(t, 7, testutil.ToFloat64(m.CachedArticles), 0)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewTwiceOnSameRegistryPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
