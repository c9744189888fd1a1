package routes

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/guidanceapp/incident-report/app"
)

func Wire(app app.App) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.Logger, middleware.Recoverer)

	root.Mount("/api", apiRouter(app))

	return root
}

func apiRouter(app app.App) http.Handler {
	api := chi.NewRouter()

	api.Post("/incidents", SubmitIncident(app))
	api.Get("/limits", GetLimits(app))
	api.Get("/limits/watch", WatchCooldown(app))

	return api
}

// deviceID keys rate-limit state and drafts. The mobile client sends
// its installation id; anything without one falls back to remote IP.
func deviceID(r *http.Request) string {
	if id := r.Header.Get("X-Device-ID"); id != "" {
		return id
	}
	return strings.Split(r.RemoteAddr, ":")[0]
}
