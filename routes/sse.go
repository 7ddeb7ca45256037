package routes

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/em0-omg/pdf-highlight-api/jobs"
	"github.com/em0-omg/pdf-highlight-api/logger"
)

// JobsSSE streams highlight job updates over Server-Sent Events.
func JobsSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	updateCh := make(chan jobs.JobUpdate, 10)
	worker := jobs.GetWorker()
	worker.Subscribe(updateCh)

	logger.Info("SSE client connected")

	fmt.Fprintf(w, "event: connected\ndata: {\"status\": \"connected\"}\n\n")
	flusher.Flush()

	ctx := r.Context()

	for {
		select {
		case <-ctx.Done():
			logger.Info("SSE client disconnected")
			worker.Unsubscribe(updateCh)
			return
		case update := <-updateCh:
			data, err := json.Marshal(update)
			if err != nil {
				logger.Error("Failed to marshal job update", "error", err)
				continue
			}
			fmt.Fprintf(w, "event: job_update\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
