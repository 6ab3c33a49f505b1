package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"github.com/lawrns/foco/types"
)

// handleEvents streams board changes over server-sent events, one
// CloudEvents 1.0 JSON envelope per change. The stream stays open until
// the client leaves or the server drains.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, http.StatusInternalServerError, errors.New("response writer does not support streaming"))
		return
	}

	changes, cancel := s.hub.Subscribe(r.Context())
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// A comment frame up front tells the client the stream is live
	// before any change arrives.
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	for change := range changes {
		envelope, err := json.Marshal(s.envelope(change))
		if err != nil {
			s.logger.Error("event encode failed", "error", err)
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType(change), envelope)
		flusher.Flush()
	}
}

// eventType builds the CloudEvents type attribute,
// com.foco.<entity>.<op>.
func eventType(change types.Change) string {
	return fmt.Sprintf("com.foco.%s.%s", change.Entity, change.Op)
}

// envelope wraps a change in a CloudEvents 1.0 envelope. Source is the
// configured server name.
func (s *Server) envelope(change types.Change) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(uuid.New().String())
	event.SetSource(s.name)
	event.SetType(eventType(change))
	event.SetTime(change.At)
	event.SetSpecVersion(cloudevents.VersionV1)
	if err := event.SetData(cloudevents.ApplicationJSON, change); err != nil {
		s.logger.Error("event payload encode failed", "error", err)
	}
	return event
}
