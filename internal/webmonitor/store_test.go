package webmonitor

import (
	"encoding/base64"
	"strings"
	"testing"
)

const dogMessage = `{"detect":{"date":2,"entities":[{"eclass":"dog","details":[{"confidence":0.91,"cx":12.5,"cy":40.25,"w":30,"h":22.5}]}],"cam-time":1,"inf-time":2}}`

func TestStoreServesFractionalCoordinates(t *testing.T) {
	srv, store, _ := newTestServer(t, testConfig(t))
	if err := store.Update(detectPayload(t, 1, nil)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	if err := store.Update([]byte(dogMessage)); err != nil {
		t.Fatalf("Update with fractional cx: %v", err)
	}

	_, body := get(t, srv.URL+"/json", nil)
	if string(body) != dogMessage+"\n" {
		t.Fatalf("GET /json = %q, want the new message", body)
	}

	hist := store.History()
	if len(hist) != 2 || hist[0].Version != 2 || hist[0].Classes[0] != "dog" || hist[0].Instances != 1 {
		t.Fatalf("unexpected history %+v", hist)
	}
}

func TestStoreKeepsUntypedMessagesRaw(t *testing.T) {
	srv, store, _ := newTestServer(t, testConfig(t))
	image := []byte("jpeg-bytes")
	odd := `{"detect":{"date":3,"entities":[{"eclass":7}],"cam-time":1,"inf-time":2,"image":"` +
		base64.StdEncoding.EncodeToString(image) + `"}}`

	if err := store.Update([]byte(odd)); err != nil {
		t.Fatalf("Update: %v", err)
	}

	_, body := get(t, srv.URL+"/json", nil)
	if string(body) != odd+"\n" {
		t.Fatalf("GET /json = %q, want the message verbatim", body)
	}

	_, body = get(t, srv.URL+"/images/detect.jpg", nil)
	if string(body) != string(image) {
		t.Fatalf("image = %q, want decoded payload image", body)
	}

	slim, ok := store.Slim()
	if !ok {
		t.Fatalf("Slim reported no message")
	}
	detect := slim.(map[string]any)["detect"].(map[string]any)
	if _, has := detect["image"]; has {
		t.Fatalf("slim message still carries the image")
	}
	if detect["date"] != float64(3) {
		t.Fatalf("slim date = %v", detect["date"])
	}

	if len(store.History()) != 0 {
		t.Fatalf("untyped message entered the history")
	}
	_, body = get(t, srv.URL+"/", nil)
	if !strings.Contains(string(body), "No data yet.") {
		t.Fatalf("index rendered an untyped message: %q", body)
	}
}

func TestStoreRejectsNonObjects(t *testing.T) {
	store := NewStore(4)
	for _, raw := range []string{"", "not json", "[1,2]", `"detect"`, "42", `{"detect":`} {
		if err := store.Update([]byte(raw)); err == nil {
			t.Fatalf("Update(%q) accepted", raw)
		}
	}
	if _, _, ok := store.Latest(); ok {
		t.Fatalf("rejected payload became current")
	}
	if version, _ := store.Info(); version != 0 {
		t.Fatalf("version = %d, want 0", version)
	}
}
