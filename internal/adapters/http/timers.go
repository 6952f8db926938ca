package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alizenart/closeted/internal/core/domain"
)

const timerStreamHeartbeat = 15 * time.Second

func (rt *Router) startTimer(w http.ResponseWriter, r *http.Request) {
	status, err := rt.services.Timers.Start(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, status)
}

func (rt *Router) timerStatus(w http.ResponseWriter, r *http.Request) {
	status, err := rt.services.Timers.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// streamTimer pushes every timer change as a server-sent event until the client leaves.
func (rt *Router) streamTimer(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "streaming is not supported"})
		return
	}

	updates := make(chan domain.TimerStatus, 8)
	stop, err := rt.services.Timers.Watch(r.Context(), chi.URLParam(r, "id"), func(status domain.TimerStatus) {
		select {
		case updates <- status:
		default:
		}
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer stop()

	if rt.metrics != nil {
		rt.metrics.TimerStreamOpened()
		defer rt.metrics.TimerStreamClosed()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(timerStreamHeartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case status := <-updates:
			payload, err := json.Marshal(status)
			if err != nil {
				return
			}
			if _, err := fmt.Fprintf(w, "event: timer\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
