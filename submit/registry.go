package submit

import (
	"sync"
	"time"

	"github.com/guidanceapp/incident-report/record"
)

// Registry hands out one orchestrator per device so each device gets
// its own draft and in-flight guard.
type Registry struct {
	limits   Limits
	uploader Uploader
	records  record.Writer
	now      func() time.Time

	mu      sync.Mutex
	devices map[string]*Orchestrator
}

func NewRegistry(limits Limits, uploader Uploader, records record.Writer) *Registry {
	return &Registry{
		limits:   limits,
		uploader: uploader,
		records:  records,
		now:      time.Now,
		devices:  make(map[string]*Orchestrator),
	}
}

func (r *Registry) Device(id string) *Orchestrator {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.devices[id]
	if !ok {
		o = NewOrchestrator(id, r.limits, r.uploader, r.records, r.now)
		r.devices[id] = o
	}
	return o
}
