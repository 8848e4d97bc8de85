// Package stub serves a fake /analyze endpoint with canned labels, for
// dry runs of the benchmark without cloud deployments.
package stub

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/FairForge/labelbench/internal/classifier"
)

// Config controls the stub's answers.
type Config struct {
	Path      string                        // default /analyze
	FormField string                        // default imageUrl
	Answers   map[string][]classifier.Label // image -> labels
	Fallback  []classifier.Label            // for unknown images
	Latency   time.Duration                 // added to every response
	FailEvery int                           // every Nth request returns 503; 0 disables
}

// DefaultAnswers returns plausible labels for the default benchmark images.
func DefaultAnswers() map[string][]classifier.Label {
	return map[string][]classifier.Label{
		"https://i.pinimg.com/736x/32/57/0a/32570ae14dc027d871d8abb0eed6dc31.jpg": {
			{Name: "Tree", Confidence: 99.1},
			{Name: "Mountain", Confidence: 97.4},
			{Name: "Sky", Confidence: 95.0},
			{Name: "Outdoors", Confidence: 93.2},
		},
		"https://cf.ltkcdn.net/family/images/orig/200821-2121x1414-family.jpg": {
			{Name: "Person", Confidence: 99.8},
			{Name: "Family", Confidence: 88.6},
			{Name: "Indoor", Confidence: 80.3},
		},
	}
}

// Server is the stub classifier.
type Server struct {
	config Config
	logger *zap.Logger
	router *mux.Router
	calls  atomic.Int64
}

// New builds a stub from config.
func New(config Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Path == "" {
		config.Path = classifier.DefaultPath
	}
	if config.FormField == "" {
		config.FormField = classifier.DefaultFormField
	}

	s := &Server{config: config, logger: logger, router: mux.NewRouter()}
	s.router.HandleFunc(config.Path, s.handleAnalyze).Methods(http.MethodPost)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Calls returns how many analyze requests were served.
func (s *Server) Calls() int64 { return s.calls.Load() }

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	n := s.calls.Add(1)

	if s.config.Latency > 0 {
		select {
		case <-time.After(s.config.Latency):
		case <-r.Context().Done():
			return
		}
	}

	if s.config.FailEvery > 0 && n%int64(s.config.FailEvery) == 0 {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	image := r.PostForm.Get(s.config.FormField)
	if image == "" {
		http.Error(w, "missing "+s.config.FormField, http.StatusBadRequest)
		return
	}

	labels, ok := s.config.Answers[image]
	if !ok {
		labels = s.config.Fallback
	}
	if labels == nil {
		labels = []classifier.Label{}
	}

	s.logger.Debug("analyze", zap.String("image", image), zap.Int("labels", len(labels)))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(labels)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"status": "healthy", "calls": s.calls.Load()})
}
