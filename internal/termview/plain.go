package termview

import (
	"sync"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/refresh"
)

// ChangeLogger prints a text slot only when its value differs from the last
// one printed. The image slot changes every cycle and is logged at DEBUG.
type ChangeLogger struct {
	log *logger.ModuleLogger

	mu   sync.Mutex
	last map[refresh.Slot]string
}

// NewChangeLogger returns a ChangeLogger writing through log.
func NewChangeLogger(log *logger.ModuleLogger) *ChangeLogger {
	return &ChangeLogger{log: log, last: make(map[refresh.Slot]string)}
}

// Write handles one slot write; pass it to MemorySurface.OnWrite.
func (c *ChangeLogger) Write(w refresh.Write) {
	if w.Slot == refresh.SlotImage {
		c.log.Debugf("%s = %s", w.Slot, w.Value)
		return
	}

	c.mu.Lock()
	prev, seen := c.last[w.Slot]
	c.last[w.Slot] = w.Value
	c.mu.Unlock()

	if seen && prev == w.Value {
		return
	}
	c.log.Infof("%s = %s", w.Slot, w.Value)
}
