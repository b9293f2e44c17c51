package refresh

import (
	"fmt"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var statusJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// Snapshot is one polled detection event summary. It is never mutated after
// parsing; every successful cycle renders a fresh one in full.
type Snapshot struct {
	TimestampSeconds float64
	EntityCount      int
	CaptureLatency   float64
	InferenceLatency float64
}

// statusPayload uses pointers so that a missing or null field can be told
// apart from a zero value.
type statusPayload struct {
	Detect *struct {
		Date     *float64 `json:"date"`
		Entities *[]any   `json:"entities"`
		CamTime  *float64 `json:"cam-time"`
		InfTime  *float64 `json:"inf-time"`
	} `json:"detect"`
}

// ParseSnapshot decodes a status endpoint body. Any missing, null or
// mistyped field is a payload failure; nothing is partially filled.
func ParseSnapshot(body []byte) (Snapshot, error) {
	var p statusPayload
	if err := statusJSON.Unmarshal(body, &p); err != nil {
		return Snapshot{}, payloadFailure(fmt.Errorf("decode status: %w", err))
	}
	d := p.Detect
	if d == nil {
		return Snapshot{}, payloadFailure(fmt.Errorf("status has no detect object"))
	}

	missing := ""
	switch {
	case d.Date == nil:
		missing = "date"
	case d.Entities == nil:
		missing = "entities"
	case d.CamTime == nil:
		missing = "cam-time"
	case d.InfTime == nil:
		missing = "inf-time"
	}
	if missing != "" {
		return Snapshot{}, payloadFailure(fmt.Errorf("detect.%s missing or null", missing))
	}

	if ms := *d.Date * 1000; ms > maxDateMillis || ms < -maxDateMillis {
		return Snapshot{}, payloadFailure(fmt.Errorf("detect.date %g out of range", *d.Date))
	}

	return Snapshot{
		TimestampSeconds: *d.Date,
		EntityCount:      len(*d.Entities),
		CaptureLatency:   *d.CamTime,
		InferenceLatency: *d.InfTime,
	}, nil
}

// maxDateMillis bounds the representable date, the same range a browser Date
// accepts.
const maxDateMillis = 8.64e15

// DefaultDateLayout renders like a browser Date string.
const DefaultDateLayout = "Mon Jan 02 2006 15:04:05 GMT-0700 (MST)"

// DateFormat controls how the snapshot timestamp is rendered.
type DateFormat struct {
	Location *time.Location
	Layout   string
}

func (f DateFormat) withDefaults() DateFormat {
	if f.Location == nil {
		f.Location = time.Local
	}
	if f.Layout == "" {
		f.Layout = DefaultDateLayout
	}
	return f
}

// Fields holds the rendered text of the four text slots.
type Fields struct {
	Date             string
	EntityCount      string
	CaptureLatency   string
	InferenceLatency string
}

// Time converts the timestamp to millisecond precision, truncating any
// sub-millisecond remainder.
func (s Snapshot) Time() time.Time {
	return time.UnixMilli(int64(s.TimestampSeconds * 1000))
}

// Render is a pure function of the snapshot and the format.
func (s Snapshot) Render(f DateFormat) Fields {
	f = f.withDefaults()
	return Fields{
		Date:             s.Time().In(f.Location).Format(f.Layout),
		EntityCount:      strconv.Itoa(s.EntityCount),
		CaptureLatency:   formatNumber(s.CaptureLatency),
		InferenceLatency: formatNumber(s.InferenceLatency),
	}
}

// formatNumber gives the shortest decimal form: 12 -> "12", 0.25 -> "0.25".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
