package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/tickets", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/tickets", "GET", 200, 30*time.Millisecond)
	m.RecordError("/tickets/:id", "GET", "NOT_FOUND")
	m.RecordNotificationFailure()

	snap := m.Snapshot()
	assert.Equal(t, int64(2), snap.Requests["GET /tickets|200"])
	assert.Equal(t, int64(20), snap.AvgLatencyMillis["GET /tickets|200"])
	assert.Equal(t, int64(1), snap.Errors["GET /tickets/:id|NOT_FOUND"])
	assert.Equal(t, int64(1), snap.NotificationFailures)
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	m.RecordNotificationFailure()
	assert.Empty(t, m.Snapshot().Requests)
}
