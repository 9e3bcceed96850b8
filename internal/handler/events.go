package handler

import (
	"net/http"

	"github.com/matthewbaird/tapestry/internal/event"
)

// EventsHandler serves the recent engine event history.
type EventsHandler struct {
	recorder *event.RingRecorder
}

func NewEventsHandler(recorder *event.RingRecorder) *EventsHandler {
	return &EventsHandler{recorder: recorder}
}

// ListEvents returns recorded events, newest first.
func (h *EventsHandler) ListEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"events": h.recorder.Recent()})
}
