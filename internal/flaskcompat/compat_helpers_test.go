package flaskcompat

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

// liveMonitor is a running monitor under test, either this server or the
// Flask one it replaces. MONITOR_BASE_URL selects it.
type liveMonitor struct {
	base string
	http *http.Client
}

func dialMonitor(t *testing.T) *liveMonitor {
	t.Helper()
	base := strings.TrimRight(os.Getenv("MONITOR_BASE_URL"), "/")
	if base == "" {
		base = "http://localhost:5200"
	}
	m := &liveMonitor{base: base, http: &http.Client{Timeout: 2 * time.Second}}

	resp, err := m.http.Get(base + "/json")
	if err != nil {
		t.Skipf("no monitor at %s (set MONITOR_BASE_URL to run): %v", base, err)
	}
	_ = resp.Body.Close()
	return m
}

// fetch issues a GET and returns the response with its body read.
func (m *liveMonitor) fetch(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := m.http.Get(m.base + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("GET %s: read body: %v", path, err)
	}
	return resp, body
}

// firstEvent returns the data of the first server-sent event on path.
func (m *liveMonitor) firstEvent(path string, timeout time.Duration) (string, http.Header, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.base+path, nil)
	if err != nil {
		return "", nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("GET %s: %s", path, resp.Status)
	}

	var data []string
	lines := bufio.NewReader(resp.Body)
	for {
		line, err := lines.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		switch {
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case line == "" && len(data) > 0:
			return strings.Join(data, "\n"), resp.Header, nil
		}
		if err != nil {
			return "", nil, fmt.Errorf("GET %s: no event before %v", path, err)
		}
	}
}

func decodeObject(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		t.Fatalf("not a JSON object: %v\n%s", err, body)
	}
	return obj
}

// lookup walks a dotted path through nested objects.
func lookup(obj map[string]any, path string) (any, bool) {
	var cur any = obj
	for _, key := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// detectFields are the fields a refreshing page reads from /json.
var detectFields = []struct {
	path string
	kind string
}{
	{"detect", "object"},
	{"detect.date", "number"},
	{"detect.entities", "array"},
	{"detect.cam-time", "number"},
	{"detect.inf-time", "number"},
}

func requireDetectFields(t *testing.T, obj map[string]any) {
	t.Helper()
	for _, f := range detectFields {
		v, ok := lookup(obj, f.path)
		if !ok {
			t.Fatalf("%s missing", f.path)
		}
		got := "other"
		switch v.(type) {
		case map[string]any:
			got = "object"
		case []any:
			got = "array"
		case float64:
			got = "number"
		}
		if got != f.kind {
			t.Fatalf("%s is %T, want %s", f.path, v, f.kind)
		}
	}
}
