package webmonitor

import (
	"testing"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/metrics"
)

func TestCollectorIngestCountsMessages(t *testing.T) {
	store := NewStore(8)
	m := metrics.New()
	c := NewCollector(DefaultConfig(), store, m)

	c.ingest(detectPayload(t, 1, nil))
	c.ingest([]byte("garbage"))
	c.ingest(detectPayload(t, 2, nil))

	if m.MQTTMessages.Load() != 2 || m.MQTTDropped.Load() != 1 {
		t.Fatalf("messages=%d dropped=%d", m.MQTTMessages.Load(), m.MQTTDropped.Load())
	}
	_, msg, ok := store.Latest()
	if !ok || len(msg.Detect.Entities) != 2 {
		t.Fatalf("latest message not stored")
	}
	if version, _ := store.Info(); version != 2 {
		t.Fatalf("version = %d, want 2", version)
	}
}
