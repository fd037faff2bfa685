package http

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// listenToSubmUpdates streams judged-submission and match-finalized
// events to the client as server-sent events.
func (httpserver *HttpServer) listenToSubmUpdates(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	events, unsubscribe := httpserver.judgeSrvc.Listen()
	defer unsubscribe()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type(), data)
			flusher.Flush()
		}
	}
}
