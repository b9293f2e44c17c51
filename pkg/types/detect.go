package types

// DetectMessage is the payload published on the detect topic and served
// verbatim by the monitor's /json endpoint.
type DetectMessage struct {
	Detect    *Detect `json:"detect,omitempty"`
	Source    string  `json:"source,omitempty"`
	SourceURL string  `json:"source-url,omitempty"`
	DeviceID  string  `json:"device-id,omitempty"`
	// Publishers older than the monitor use "deviceid".
	LegacyDeviceID string `json:"deviceid,omitempty"`
	KafkaSub       string `json:"kafka-sub,omitempty"`
}

// Device returns the device id, preferring the current key.
func (m DetectMessage) Device() string {
	if m.DeviceID != "" {
		return m.DeviceID
	}
	return m.LegacyDeviceID
}

// Detect describes one inference run over one camera frame.
type Detect struct {
	Tool     string   `json:"tool,omitempty"`
	Date     float64  `json:"date"`     // epoch seconds
	CamTime  float64  `json:"cam-time"` // frame capture time
	InfTime  float64  `json:"inf-time"` // inference time
	Entities []Entity `json:"entities"`
	Image    string   `json:"image,omitempty"` // base64 JPEG
}

// Entity is one detected object class with its instances.
type Entity struct {
	Name    string    `json:"eclass,omitempty"`
	Details []Details `json:"details,omitempty"`
}

// Details is one instance of an entity, centre and size in pixels.
type Details struct {
	Confidence float64 `json:"confidence"`
	CX         float64 `json:"cx"`
	CY         float64 `json:"cy"`
	W          float64 `json:"w"`
	H          float64 `json:"h"`
}
