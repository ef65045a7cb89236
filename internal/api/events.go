package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const eventWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from a different origin than this API.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleEvents streams a run's progress events over a websocket. Buffered
// events are replayed first; the connection closes after the terminal event.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	events, cancel, err := s.manager.Subscribe(runID)
	if err != nil {
		s.writeError(w, http.StatusNotFound, "unknown onboarding run")
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("run_id", runID).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close()

	for event := range events {
		conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		if err := conn.WriteJSON(event); err != nil {
			s.logger.Debug().Err(err).Str("run_id", runID).Msg("Progress subscriber disconnected")
			return
		}
	}

	// Terminal state reached; send the final snapshot so the client can
	// read the result or error without a second request.
	if snapshot, err := s.manager.Snapshot(runID); err == nil {
		conn.SetWriteDeadline(time.Now().Add(eventWriteTimeout))
		if err := conn.WriteJSON(snapshot); err != nil {
			return
		}
	}

	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"))
}
