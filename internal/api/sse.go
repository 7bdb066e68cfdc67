package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// sseWriter frames named events onto a text/event-stream response. Each write
// is flushed immediately; buffering a stream defeats its purpose.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &sseWriter{w: w, flusher: flusher}, nil
}

// writeEvent emits one named event. Multi-line payloads become multiple data
// lines within the same event, per the event-stream framing rules.
func (s *sseWriter) writeEvent(event, data string) {
	fmt.Fprintf(s.w, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(s.w, "data: %s\n", line)
	}
	fmt.Fprint(s.w, "\n")
	s.flusher.Flush()
}

func (s *sseWriter) writeJSONEvent(event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.writeEvent("error", `{"message":"failed to encode event payload"}`)
		return
	}
	s.writeEvent(event, string(data))
}
