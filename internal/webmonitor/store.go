package webmonitor

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/pkg/types"
)

var detectJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Store keeps the last detect message exactly as published, plus a short
// history of events that had entities.
type Store struct {
	historySize int

	mu         sync.Mutex
	raw        []byte
	msg        types.DetectMessage
	typed      bool // msg decoded from raw
	receivedAt time.Time
	version    int
	history    []EventSummary

	// decoded image of the current version
	image        []byte
	imageVersion int
}

// NewStore creates a Store that keeps up to historySize events.
func NewStore(historySize int) *Store {
	if historySize <= 0 {
		historySize = DefaultConfig().HistorySize
	}
	return &Store{historySize: historySize}
}

// Update replaces the latest message. Anything that is a JSON object is kept
// verbatim; payloads that are not are rejected and the previous message stays
// current. A message whose fields do not fit the typed view is still served
// raw but left out of the history and the index page.
func (s *Store) Update(raw []byte) error {
	if !isJSONObject(raw) {
		return fmt.Errorf("invalid detect message: not a JSON object")
	}

	var msg types.DetectMessage
	typed := true
	if err := detectJSON.Unmarshal(raw, &msg); err != nil {
		logger.Debug("Store", "Keeping message untyped: %v", err)
		msg = types.DetectMessage{}
		typed = false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.version++
	s.raw = append([]byte(nil), raw...)
	s.msg = msg
	s.typed = typed
	s.receivedAt = time.Now()
	s.image = nil
	s.imageVersion = 0

	if typed && msg.Detect != nil && len(msg.Detect.Entities) > 0 {
		s.history = append([]EventSummary{summarize(s.version, s.receivedAt, msg)}, s.history...)
		if len(s.history) > s.historySize {
			s.history = s.history[:s.historySize]
		}
	}
	return nil
}

func isJSONObject(raw []byte) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{' && detectJSON.Valid(trimmed)
}

// Latest returns the raw payload and its typed view. The typed view is
// empty when the message did not decode into it.
func (s *Store) Latest() ([]byte, types.DetectMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return nil, types.DetectMessage{}, false
	}
	return s.raw, s.msg, true
}

// Info returns the version and receive time of the latest message.
func (s *Store) Info() (version int, receivedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version, s.receivedAt
}

// Image returns the decoded detect image of the latest message.
func (s *Store) Image() ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.raw == nil {
		return nil, false
	}
	if s.imageVersion == s.version && s.image != nil {
		return s.image, true
	}

	encoded := ""
	if s.typed {
		if s.msg.Detect != nil {
			encoded = s.msg.Detect.Image
		}
	} else {
		encoded = detectJSON.Get(s.raw, "detect", "image").ToString()
	}
	if encoded == "" {
		return nil, false
	}

	// base64 -w 0 output may still carry a trailing newline
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return nil, false
	}
	s.image = data
	s.imageVersion = s.version
	return data, true
}

// Slim returns the latest message without the embedded image.
func (s *Store) Slim() (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.raw == nil {
		return nil, false
	}

	if !s.typed {
		var generic map[string]any
		if err := detectJSON.Unmarshal(s.raw, &generic); err != nil {
			return nil, false
		}
		if detect, ok := generic["detect"].(map[string]any); ok {
			delete(detect, "image")
		}
		return generic, true
	}

	msg := s.msg
	if msg.Detect != nil {
		d := *msg.Detect
		d.Image = ""
		msg.Detect = &d
	}
	return msg, true
}

// History returns recent events, newest first.
func (s *Store) History() []EventSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]EventSummary, len(s.history))
	copy(out, s.history)
	return out
}

func summarize(version int, receivedAt time.Time, msg types.DetectMessage) EventSummary {
	d := msg.Detect
	classes := make([]string, 0, len(d.Entities))
	instances := 0
	for _, e := range d.Entities {
		classes = append(classes, e.Name)
		instances += len(e.Details)
	}
	return EventSummary{
		Version:     version,
		Date:        d.Date,
		ReceivedAt:  float64(receivedAt.UnixMilli()) / 1000,
		EntityCount: len(d.Entities),
		Instances:   instances,
		Classes:     classes,
		CamTime:     d.CamTime,
		InfTime:     d.InfTime,
	}
}
