package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/RyanBlaney/sonido-clave/algorithms/tonal"
	"github.com/RyanBlaney/sonido-clave/config"
	"github.com/RyanBlaney/sonido-clave/logging"
	"github.com/RyanBlaney/sonido-clave/midi"
)

const requestIDHeader = "X-Request-ID"

// AnalyzeResponse is the body returned by POST /v1/analyze
type AnalyzeResponse struct {
	tonal.AnalysisResult
	Displayable bool `json:"displayable"`
}

// ChordsResponse is the body returned by GET /v1/keys/{key}/chords
type ChordsResponse struct {
	Key    tonal.PitchClass `json:"key"`
	Chords []string         `json:"chords"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// Server exposes the key detector over HTTP
type Server struct {
	detector *tonal.KeyDetector
	display  config.DisplayConfig
	config   config.ServerConfig
	handler  http.Handler
}

// New creates a server; the detector is shared by all requests
func New(detector *tonal.KeyDetector, display config.DisplayConfig, cfg config.ServerConfig) *Server {
	s := &Server{
		detector: detector,
		display:  display,
		config:   cfg,
	}

	router := mux.NewRouter().StrictSlash(true)
	router.Use(requestIDMiddleware, loggingMiddleware)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	api := router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/analyze", s.handleAnalyze).Methods(http.MethodPost)
	api.HandleFunc("/keys/{key}/chords", s.handleChords).Methods(http.MethodGet)
	api.HandleFunc("/keys/{key}/chords.mid", s.handleChordsMIDI).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
	s.handler = c.Handler(router)

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.handler,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("HTTP server listening", logging.Fields{
			"component": "server",
			"addr":      s.config.Addr,
		})
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	logging.Info("Shutting down HTTP server", logging.Fields{"component": "server"})
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	logger := logging.WithContext(r.Context())

	var frame tonal.SpectrumFrame
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err := decoder.Decode(&frame); err != nil {
		logger.Warn("Rejected analyze request body", logging.Fields{"error": err.Error()})
		writeError(w, http.StatusBadRequest, fmt.Errorf("malformed spectrum: %w", err))
		return
	}

	result, err := s.detector.AnalyzeAudio(frame)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, tonal.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	logger.Debug("Frame analysed", logging.Fields{
		"bins":       len(frame.Bins),
		"notes":      len(result.Notes),
		"key":        result.Key.String(),
		"confidence": result.Confidence,
	})

	writeJSON(w, http.StatusOK, AnalyzeResponse{
		AnalysisResult: result,
		Displayable:    s.display.Displayable(result),
	})
}

func (s *Server) handleChords(w http.ResponseWriter, r *http.Request) {
	key, err := tonal.ParsePitchClass(mux.Vars(r)["key"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	writeJSON(w, http.StatusOK, ChordsResponse{Key: key, Chords: tonal.SuggestChords(key)})
}

func (s *Server) handleChordsMIDI(w http.ResponseWriter, r *http.Request) {
	key, err := tonal.ParsePitchClass(mux.Vars(r)["key"])
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	var buf bytes.Buffer
	if err := midi.WriteKeyProgression(&buf, key, midi.DefaultProgressionOptions()); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	w.Header().Set("Content-Type", "audio/midi")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", key.String()+"-major.mid"))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.WithContext(r.Context()).Error(err, "Failed to write response", logging.Fields{"key": key.String()})
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := logging.ContextWithFields(r.Context(), logging.Fields{
			"component":  "server",
			"request_id": id,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(status int) {
	sr.status = status
	sr.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		logging.WithContext(r.Context()).Info("Handled request", logging.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
	})
}

// writeJSON marshals body before writing the status; a body that fails to
// encode is answered with 500
func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Error(err, "Failed to encode response", logging.Fields{"component": "server"})
		status = http.StatusInternalServerError
		data, _ = json.Marshal(errorResponse{
			Error:     "failed to encode response",
			RequestID: w.Header().Get(requestIDHeader),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		logging.Error(err, "Failed to write response", logging.Fields{"component": "server"})
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{
		Error:     err.Error(),
		RequestID: w.Header().Get(requestIDHeader),
	})
}
