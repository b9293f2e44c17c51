package webmonitor

// EventSummary is one entry of /api/history.
type EventSummary struct {
	Version     int      `json:"version"`
	Date        float64  `json:"date"`
	ReceivedAt  float64  `json:"received_at"`
	EntityCount int      `json:"entity_count"`
	Instances   int      `json:"instances"`
	Classes     []string `json:"classes"`
	CamTime     float64  `json:"cam-time"`
	InfTime     float64  `json:"inf-time"`
}

// HistoryResponse is the /api/history payload.
type HistoryResponse struct {
	Version int            `json:"version"`
	Events  []EventSummary `json:"events"`
}

// indexData feeds the index page template.
type indexData struct {
	Source          string
	SourceURL       string
	DeviceID        string
	EntityCount     int
	CamTime         float64
	InfTime         float64
	KafkaSub        string
	LastSeen        string
	RefreshInterval int64 // milliseconds
}
