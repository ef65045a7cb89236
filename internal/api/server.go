// Package api exposes the onboarding workflow over HTTP: multipart
// submission, run snapshots, and a websocket progress stream.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/iotplatform/device-onboarding/internal/models"
	"github.com/iotplatform/device-onboarding/internal/services"
)

// Server wires the run manager into HTTP handlers.
type Server struct {
	manager *services.RunManager
	logger  zerolog.Logger
}

// NewServer creates the HTTP layer over a run manager.
func NewServer(manager *services.RunManager, logger zerolog.Logger) *Server {
	return &Server{manager: manager, logger: logger}
}

// Routes builds the router. metricsHandler serves GET /metrics; pass nil to
// disable the endpoint.
func (s *Server) Routes(metricsHandler http.Handler) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/api/devices/onboard", s.handleOnboard).Methods(http.MethodPost)
	router.HandleFunc("/api/onboard/{id}", s.handleSnapshot).Methods(http.MethodGet)
	router.HandleFunc("/api/onboard/{id}/events", s.handleEvents).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if metricsHandler != nil {
		router.Handle("/metrics", metricsHandler).Methods(http.MethodGet)
	}
	return router
}

// handleOnboard accepts a multipart request with a "device" JSON part and a
// "file" PDF part, queues the workflow, and replies 202 with the run ID.
func (s *Server) handleOnboard(w http.ResponseWriter, r *http.Request) {
	// One extra MiB of headroom for the JSON part and multipart framing.
	if err := r.ParseMultipartForm(models.MaxDocumentSize + (1 << 20)); err != nil {
		s.writeError(w, http.StatusBadRequest, "unparseable multipart request")
		return
	}

	var draft models.DeviceDraft
	if err := json.Unmarshal([]byte(r.FormValue("device")), &draft); err != nil {
		s.writeError(w, http.StatusBadRequest, "device part is missing or not valid JSON")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "file part is missing")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, models.MaxDocumentSize+1))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}

	doc := models.DocumentUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}

	runID, err := s.manager.Start(draft, doc)
	if err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			s.writeError(w, http.StatusBadRequest, validationErr.Error())
			return
		}
		s.logger.Error().Err(err).Msg("Failed to start onboarding run")
		s.writeError(w, http.StatusInternalServerError, "failed to start onboarding run")
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]string{"run_id": runID})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.manager.Snapshot(mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, http.StatusNotFound, "unknown onboarding run")
		return
	}
	s.writeJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
