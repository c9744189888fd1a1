package app

import (
	"github.com/guidanceapp/incident-report/config"
	"github.com/guidanceapp/incident-report/ratelimit"
	"github.com/guidanceapp/incident-report/submit"
)

type App struct {
	config.Config
	Limits      *ratelimit.Store
	Submissions *submit.Registry
}
