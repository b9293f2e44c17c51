package refresh

import "sync"

// DisplaySurface is the set of output slots the loop writes into. The loop
// owns the slots after Start; creating them is the caller's job.
type DisplaySurface interface {
	ImageSource() string
	SetImageSource(src string)
	SetDate(text string)
	SetEntityCount(text string)
	SetCaptureLatency(text string)
	SetInferenceLatency(text string)
}

// Slot names match the element ids of the monitor page.
type Slot string

const (
	SlotImage            Slot = "detect"
	SlotDate             Slot = "when"
	SlotEntityCount      Slot = "classes"
	SlotCaptureLatency   Slot = "camtime"
	SlotInferenceLatency Slot = "inftime"
)

// Write is one recorded slot mutation.
type Write struct {
	Slot  Slot
	Value string
}

// MemorySurface keeps slot values in memory and records every write.
type MemorySurface struct {
	mu      sync.Mutex
	image   string
	fields  Fields
	writes  []Write
	onWrite func(Write)
}

// NewMemorySurface creates a surface whose image slot starts at imageSrc.
func NewMemorySurface(imageSrc string) *MemorySurface {
	return &MemorySurface{image: imageSrc}
}

// OnWrite registers a callback invoked after every write.
func (m *MemorySurface) OnWrite(fn func(Write)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onWrite = fn
}

func (m *MemorySurface) ImageSource() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.image
}

func (m *MemorySurface) SetImageSource(src string) {
	m.set(SlotImage, src, func() { m.image = src })
}

func (m *MemorySurface) SetDate(text string) {
	m.set(SlotDate, text, func() { m.fields.Date = text })
}

func (m *MemorySurface) SetEntityCount(text string) {
	m.set(SlotEntityCount, text, func() { m.fields.EntityCount = text })
}

func (m *MemorySurface) SetCaptureLatency(text string) {
	m.set(SlotCaptureLatency, text, func() { m.fields.CaptureLatency = text })
}

func (m *MemorySurface) SetInferenceLatency(text string) {
	m.set(SlotInferenceLatency, text, func() { m.fields.InferenceLatency = text })
}

func (m *MemorySurface) set(slot Slot, value string, apply func()) {
	m.mu.Lock()
	apply()
	w := Write{Slot: slot, Value: value}
	m.writes = append(m.writes, w)
	fn := m.onWrite
	m.mu.Unlock()

	if fn != nil {
		fn(w)
	}
}

// Fields returns the current text slot values.
func (m *MemorySurface) Fields() Fields {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fields
}

// Writes returns a copy of all recorded writes in order.
func (m *MemorySurface) Writes() []Write {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Write, len(m.writes))
	copy(out, m.writes)
	return out
}
