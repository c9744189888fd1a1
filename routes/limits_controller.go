package routes

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/guidanceapp/incident-report/app"
	"github.com/guidanceapp/incident-report/httpx"
	"github.com/guidanceapp/incident-report/log"
	"github.com/guidanceapp/incident-report/ratelimit"
)

func GetLimits(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := app.Limits.Load(r.Context(), deviceID(r))
		now := time.Now()

		render.JSON(w, r, map[string]any{
			"submissions_today": ratelimit.DailyCountFor(state, now),
			"daily_cap":         ratelimit.DailyCap,
			"cooldown_seconds":  ratelimit.RemainingCooldown(state, now),
		})
	}
}

// WatchCooldown streams the per-second cooldown countdown as
// server-sent events so the form can show a live counter. The stream
// ends when the countdown hits zero or the client goes away.
func WatchCooldown(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			httpx.LogStatus(w, http.StatusInternalServerError, log.ErrorLevel, "limits.watch.no_flush")
			return
		}

		state := app.Limits.Load(r.Context(), deviceID(r))

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for remaining := range ratelimit.Countdown(r.Context(), state, time.Now) {
			fmt.Fprintf(w, "data: %d\n\n", remaining)
			flusher.Flush()
		}
	}
}
