package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollectorRecordsDomainCounters(t *testing.T) {
	m := NewMetricsCollector(prometheus.NewRegistry())

	m.RecordLikeToggle("liked")
	m.RecordLikeToggle("liked")
	m.RecordLikeToggle("unliked")
	assert.Equal(t, 2.0, testutil.ToFloat64(m.likeTogglesTotal.WithLabelValues("liked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.likeTogglesTotal.WithLabelValues("unliked")))

	m.FeedSubscriberAdded()
	m.FeedSubscriberAdded()
	m.FeedSubscriberRemoved()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.feedSubscribers))

	m.RecordSupportMessage(false)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.supportMessagesTotal.WithLabelValues("error")))

	m.RecordHTTPRequest("GET", "/posts", "2xx", 10*time.Millisecond, 512)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequestsTotal.WithLabelValues("GET", "/posts", "2xx")))
}

func TestStatusCategory(t *testing.T) {
	assert.Equal(t, "2xx", StatusCategory(204))
	assert.Equal(t, "4xx", StatusCategory(429))
	assert.Equal(t, "5xx", StatusCategory(503))
	assert.Equal(t, "unknown", StatusCategory(100))
}

func TestGlobalCollectorIsSingleton(t *testing.T) {
	assert.Same(t, GetGlobalCollector(), GetGlobalCollector())
}

func TestCollectorRecordsOrphanCleanupOutcomes(t *testing.T) {
	m := NewMetricsCollector(prometheus.NewRegistry())

	m.RecordOrphanCleanup(true)
	m.RecordOrphanCleanup(true)
	m.RecordOrphanCleanup(false)
	assert.Equal(t, 2.0, testutil.ToFloat64(m.orphanCleanupTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.orphanCleanupTotal.WithLabelValues("error")))
}
