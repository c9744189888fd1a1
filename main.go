package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/guidanceapp/incident-report/app"
	"github.com/guidanceapp/incident-report/config"
	"github.com/guidanceapp/incident-report/database"
	"github.com/guidanceapp/incident-report/log"
	"github.com/guidanceapp/incident-report/ratelimit"
	"github.com/guidanceapp/incident-report/record"
	"github.com/guidanceapp/incident-report/routes"
	"github.com/guidanceapp/incident-report/submit"
	"github.com/guidanceapp/incident-report/upload"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	if cfg.Debug {
		log.SetLevel(log.DebugLevel)
	}

	db, err := database.Open(cfg.DBUrl)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	defer db.Close()

	limits := ratelimit.NewStore(db)
	uploader := upload.New(cfg.MediaUploadUrl, cfg.UploadPreset)
	records := record.NewClient(cfg.RecordStoreUrl, cfg.RecordCollection)

	app := app.App{
		Config:      cfg,
		Limits:      limits,
		Submissions: submit.NewRegistry(limits, uploader, records),
	}

	handler := routes.Wire(app)

	err = runServer(cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

func runServer(cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		// long enough for a full cooldown countdown stream
		WriteTimeout: 90 * time.Second,
	}

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
