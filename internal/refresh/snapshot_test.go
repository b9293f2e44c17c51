package refresh

import (
	"errors"
	"testing"
	"time"
)

func TestParseSnapshot(t *testing.T) {
	snap, err := ParseSnapshot([]byte(samplePayload))
	if err != nil {
		t.Fatalf("ParseSnapshot error: %v", err)
	}
	want := Snapshot{TimestampSeconds: 1700000000, EntityCount: 2, CaptureLatency: 12, InferenceLatency: 34}
	if snap != want {
		t.Fatalf("snapshot = %+v, want %+v", snap, want)
	}
}

func TestParseSnapshotRejectsIncompletePayloads(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"empty object", `{}`},
		{"not json", `<html>oops</html>`},
		{"detect null", `{"detect":null}`},
		{"missing date", `{"detect":{"entities":[],"cam-time":1,"inf-time":2}}`},
		{"missing cam-time", `{"detect":{"date":1,"entities":[],"inf-time":2}}`},
		{"missing inf-time", `{"detect":{"date":1,"entities":[],"cam-time":1}}`},
		{"entities null", `{"detect":{"date":1,"entities":null,"cam-time":1,"inf-time":2}}`},
		{"entities object", `{"detect":{"date":1,"entities":{},"cam-time":1,"inf-time":2}}`},
		{"date string", `{"detect":{"date":"today","entities":[],"cam-time":1,"inf-time":2}}`},
		{"inf-time bool", `{"detect":{"date":1,"entities":[],"cam-time":1,"inf-time":true}}`},
		{"date beyond int64 millis", `{"detect":{"date":1e300,"entities":[],"cam-time":1,"inf-time":2}}`},
		{"date before earliest", `{"detect":{"date":-8640000000001,"entities":[],"cam-time":1,"inf-time":2}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSnapshot([]byte(tc.body))
			var pf *PollFailure
			if !errors.As(err, &pf) {
				t.Fatalf("expected *PollFailure, got %v", err)
			}
			if pf.Reason != ReasonPayload {
				t.Fatalf("reason = %s, want %s", pf.Reason, ReasonPayload)
			}
		})
	}
}

func TestParseSnapshotAcceptsEmptyEntities(t *testing.T) {
	snap, err := ParseSnapshot([]byte(`{"detect":{"date":1.5,"entities":[],"cam-time":0.25,"inf-time":0,"image":"abc"},"source":"x"}`))
	if err != nil {
		t.Fatalf("ParseSnapshot error: %v", err)
	}
	if snap.EntityCount != 0 || snap.CaptureLatency != 0.25 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
}

func TestParseSnapshotAcceptsDateRangeLimits(t *testing.T) {
	for _, date := range []string{"8640000000000", "-8640000000000"} {
		body := `{"detect":{"date":` + date + `,"entities":[],"cam-time":1,"inf-time":2}}`
		snap, err := ParseSnapshot([]byte(body))
		if err != nil {
			t.Fatalf("date %s rejected: %v", date, err)
		}
		if got := snap.Time().UnixMilli(); got != int64(snap.TimestampSeconds)*1000 {
			t.Fatalf("date %s rendered as %d ms", date, got)
		}
	}
}

func TestRenderIsPure(t *testing.T) {
	snap := Snapshot{TimestampSeconds: 1700000000, EntityCount: 2, CaptureLatency: 12, InferenceLatency: 0.034}
	first := snap.Render(testFormat)
	second := snap.Render(testFormat)
	requireFields(t, first, second)

	wantDate := time.UnixMilli(1700000000 * 1000).In(testFormat.Location).Format(DefaultDateLayout)
	requireFields(t, first, Fields{
		Date:             wantDate,
		EntityCount:      "2",
		CaptureLatency:   "12",
		InferenceLatency: "0.034",
	})
	if wantDate != "Tue Nov 14 2023 23:13:20 GMT+0100 (CET)" {
		t.Fatalf("date layout changed: %q", wantDate)
	}
}

func TestSnapshotTimeTruncatesToMillis(t *testing.T) {
	snap := Snapshot{TimestampSeconds: 1.0019}
	if got := snap.Time().UnixMilli(); got != 1001 {
		t.Fatalf("UnixMilli = %d, want 1001", got)
	}
}
