package webmonitor

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/detect-monitor/internal/metrics"
)

const (
	contentTypeJSON     = "application/json"
	contentTypeProtobuf = "application/x-protobuf"
)

// Server serves the status endpoint, the detect image and the monitor page.
type Server struct {
	cfg         Config
	store       *Store
	metrics     *metrics.Metrics
	placeholder []byte
	now         func() time.Time
}

// NewServer returns a configured monitor server reading from store.
func NewServer(cfg Config, store *Store, m *metrics.Metrics) *Server {
	cfg = cfg.withDefaults()
	if m == nil {
		m = metrics.New()
	}

	placeholder, err := placeholderJPEG("No detection yet")
	if err != nil {
		logger.Error("Server", "Failed to render placeholder image: %v", err)
	}

	return &Server{
		cfg:         cfg,
		store:       store,
		metrics:     m,
		placeholder: placeholder,
		now:         time.Now,
	}
}

// Handler exposes the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/assets/", http.StripPrefix("/assets/", newAssetHandler(s.cfg.AssetsDir)))
	mux.HandleFunc("/json", s.handleJSON)
	mux.HandleFunc("/json/stream", s.handleJSONStream)
	mux.HandleFunc("/json/ws", s.handleStatusSocket)
	mux.HandleFunc("/images/detect.jpg", s.handleDetectImage)
	mux.HandleFunc("/images/detect.mjpg", s.handleDetectStream)
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.Handle("/metrics", s.metrics.Handler())

	return s.noCache(mux)
}

// noCache stamps every response so browsers always re-fetch.
func (s *Server) noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.metrics.HTTPRequests.Add(1)
		h := w.Header()
		h.Set("Pragma", "no-cache")
		h.Set("Expires", "0")
		h.Set("Cache-Control", "public, max-age=0")
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	_, msg, ok := s.store.Latest()
	if !ok || msg.Detect == nil {
		now := s.now().Format("2006/01/02 3:04PM")
		writeJSON(w, map[string]string{"error": now + " -- No data yet."})
		return
	}

	_, receivedAt := s.store.Info()
	data := indexData{
		Source:          msg.Source,
		SourceURL:       msg.SourceURL,
		DeviceID:        msg.Device(),
		EntityCount:     len(msg.Detect.Entities),
		CamTime:         msg.Detect.CamTime,
		InfTime:         msg.Detect.InfTime,
		KafkaSub:        msg.KafkaSub,
		LastSeen:        humanize.Time(receivedAt),
		RefreshInterval: s.cfg.RefreshInterval.Milliseconds(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, data); err != nil {
		logger.Error("Server", "Render index: %v", err)
	}
}

func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request) {
	raw, _, ok := s.store.Latest()

	if wantsProtobuf(r) {
		s.writeProtobuf(w, raw, ok)
		return
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	if !ok {
		_, _ = w.Write([]byte("{}\n"))
		return
	}
	_, _ = w.Write(raw)
	_, _ = w.Write([]byte("\n"))
}

func wantsProtobuf(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/protobuf") ||
		strings.Contains(accept, contentTypeProtobuf)
}

// writeProtobuf encodes the latest message as a google.protobuf.Struct.
func (s *Server) writeProtobuf(w http.ResponseWriter, raw []byte, ok bool) {
	fields := map[string]any{}
	if ok {
		if err := detectJSON.Unmarshal(raw, &fields); err != nil {
			writeJSONWithStatus(w, map[string]any{"error": err.Error()}, http.StatusInternalServerError)
			return
		}
	}

	st, err := structpb.NewStruct(fields)
	if err != nil {
		writeJSONWithStatus(w, map[string]any{"error": err.Error()}, http.StatusInternalServerError)
		return
	}
	data, err := proto.Marshal(st)
	if err != nil {
		writeJSONWithStatus(w, map[string]any{"error": err.Error()}, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeProtobuf)
	_, _ = w.Write(data)
}

func (s *Server) handleJSONStream(w http.ResponseWriter, r *http.Request) {
	streamStatus(r.Context(), w, s.cfg.StatusInterval, s.store)
}

func (s *Server) handleDetectImage(w http.ResponseWriter, r *http.Request) {
	if img, ok := s.store.Image(); ok {
		s.metrics.ImagesServed.Add(1)
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(img)
		return
	}

	s.metrics.PlaceholderServed.Add(1)
	if s.cfg.DummyImagePath != "" && fileExists(s.cfg.DummyImagePath) {
		http.ServeFile(w, r, s.cfg.DummyImagePath)
		return
	}
	if s.placeholder == nil {
		http.Error(w, "no image available", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(s.placeholder)
}

func (s *Server) handleDetectStream(w http.ResponseWriter, r *http.Request) {
	streamMJPEG(r.Context(), w, s.cfg.MJPEGInterval, func() []byte {
		if img, ok := s.store.Image(); ok {
			return img
		}
		return s.placeholder
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	version, _ := s.store.Info()
	writeJSON(w, HistoryResponse{Version: version, Events: s.store.History()})
}

func writeJSON(w http.ResponseWriter, payload any) {
	writeJSONWithStatus(w, payload, http.StatusOK)
}

func writeJSONWithStatus(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := detectJSON.NewEncoder(w).Encode(payload); err != nil {
		_, _ = fmt.Fprintf(w, `{"error":"%s"}`, err.Error())
	}
}
