// Package viewer serves workflow views over HTTP and accepts status changes
// from a renderer.
package viewer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/5ALAM/workkflow/internal/graph"
	"github.com/5ALAM/workkflow/internal/store"
	"github.com/5ALAM/workkflow/internal/transition"
)

// StatusRequest is the body of POST /steps/{id}/status.
type StatusRequest struct {
	Status string `json:"status"`
}

// StepResponse describes one step and whether it can change status.
type StepResponse struct {
	Step          graph.Step     `json:"step"`
	CanTransition bool           `json:"can_transition"`
	Blocking      []graph.StepID `json:"blocking"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error    string         `json:"error"`
	Blocking []graph.StepID `json:"blocking,omitempty"`
}

type server struct {
	session *store.Session
}

// Handler returns the HTTP routes for a session.
func Handler(sess *store.Session) http.Handler {
	srv := &server{session: sess}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /views", srv.handleGetViews)
	mux.HandleFunc("GET /layout", srv.handleGetLayout)
	mux.HandleFunc("GET /eligible", srv.handleGetEligible)
	mux.HandleFunc("GET /steps/{id}", srv.handleGetStep)
	mux.HandleFunc("POST /steps/{id}/status", srv.handlePostStatus)
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("workkflow viewer\n\nGET  /views\nGET  /layout\nGET  /eligible\nGET  /steps/{id}\nPOST /steps/{id}/status\n"))
	})

	return logRequests(mux)
}

func (s *server) handleGetViews(w http.ResponseWriter, r *http.Request) {
	v, err := s.session.Views()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	res, err := s.session.Layout()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *server) handleGetEligible(w http.ResponseWriter, r *http.Request) {
	ids := transition.Eligible(s.session.Graph())
	if ids == nil {
		ids = []graph.StepID{}
	}
	writeJSON(w, http.StatusOK, ids)
}

func (s *server) handleGetStep(w http.ResponseWriter, r *http.Request) {
	id := graph.StepID(r.PathValue("id"))
	g := s.session.Graph()
	step, ok := g.Step(id)
	if !ok {
		writeError(w, fmt.Errorf("step %s: %w", id, transition.ErrUnknownStep))
		return
	}
	blocking := transition.Blocking(g, id)
	if blocking == nil {
		blocking = []graph.StepID{}
	}
	writeJSON(w, http.StatusOK, StepResponse{
		Step:          step,
		CanTransition: len(blocking) == 0,
		Blocking:      blocking,
	})
}

func (s *server) handlePostStatus(w http.ResponseWriter, r *http.Request) {
	id := graph.StepID(r.PathValue("id"))

	var req StatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid JSON: " + err.Error()})
		return
	}

	if _, err := s.session.Transition(id, req.Status); err != nil {
		slog.Warn("transition rejected", "step", id, "status", req.Status, "error", err)
		writeError(w, err)
		return
	}

	v, err := s.session.Views()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, graph.ErrUnknownStatus):
		return http.StatusBadRequest
	case errors.Is(err, transition.ErrUnknownStep):
		return http.StatusNotFound
	case errors.Is(err, transition.ErrDependencyNotSatisfied):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}
	var de *transition.DependencyNotSatisfiedError
	if errors.As(err, &de) {
		resp.Blocking = de.Blocking
	}
	writeJSON(w, statusFor(err), resp)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write response", "error", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.code,
			"duration", time.Since(start))
	})
}

// Start launches the viewer HTTP server on addr in the background.
// Returns the base URL (e.g. "http://127.0.0.1:7420") and the server so the
// caller can shut it down.
func Start(addr string, sess *store.Session) (string, *http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           Handler(sess),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("viewer stopped", "error", err)
		}
	}()

	return "http://" + ln.Addr().String(), srv, nil
}

// PostStatus asks a running viewer to change the status of a step.
func PostStatus(baseURL string, id graph.StepID, status string) error {
	data, err := json.Marshal(StatusRequest{Status: status})
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}

	endpoint := fmt.Sprintf("%s/steps/%s/status", baseURL, url.PathEscape(string(id)))
	resp, err := http.Post(endpoint, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("POST %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err == nil && e.Error != "" {
			return fmt.Errorf("viewer rejected status change (%d): %s", resp.StatusCode, e.Error)
		}
		return fmt.Errorf("POST %s returned %d", endpoint, resp.StatusCode)
	}
	return nil
}

// IsPortOpen checks if something is listening on the given address.
func IsPortOpen(addr string) bool {
	conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
