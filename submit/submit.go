package submit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/guidanceapp/incident-report/log"
	"github.com/guidanceapp/incident-report/model"
	"github.com/guidanceapp/incident-report/ratelimit"
	"github.com/guidanceapp/incident-report/record"
)

// Phase is where a submission sequence currently is. Anything other
// than Idle means a sequence is in flight and the draft is frozen.
type Phase int

const (
	Idle Phase = iota
	Validating
	Uploading
	Persisting
	Finalizing
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Uploading:
		return "uploading"
	case Persisting:
		return "persisting"
	case Finalizing:
		return "finalizing"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// ErrBusy means a submit arrived while a sequence was already in
// flight. The trigger is a no-op, not queued.
var ErrBusy = errors.New("submission already in flight")

// ErrPersist marks a failed record-store write. The draft survives
// for retry and the rate limiter was not touched.
var ErrPersist = errors.New("record store write failed")

type BlockReason string

const (
	ReasonCooldown      BlockReason = "cooldown"
	ReasonDailyCap      BlockReason = "daily_cap"
	ReasonMissingFields BlockReason = "missing_fields"
)

// Blocked reports why validation refused a submission. No side effects
// have happened when it is returned.
type Blocked struct {
	Reason          BlockReason
	CooldownSeconds int
	SubmittedToday  int
	MissingFields   []string
}

func (b *Blocked) Error() string {
	switch b.Reason {
	case ReasonCooldown:
		return fmt.Sprintf("please wait %d seconds before submitting again", b.CooldownSeconds)
	case ReasonDailyCap:
		return fmt.Sprintf("daily limit of %d submissions reached", ratelimit.DailyCap)
	default:
		return "missing required fields: " + strings.Join(b.MissingFields, ", ")
	}
}

// Limits is the slice of the rate limiter the orchestrator consumes.
// *ratelimit.Store satisfies it.
type Limits interface {
	Load(ctx context.Context, device string) model.SubmissionState
	RecordSuccess(ctx context.Context, device string, state model.SubmissionState, now time.Time) (model.SubmissionState, error)
}

// Uploader is the media upload contract: best effort, never fails,
// possibly shorter output than input.
type Uploader interface {
	Upload(ctx context.Context, images []model.ImageRef) []string
}

// Result reports one completed submission.
type Result struct {
	ID          string
	Attachments []string
	State       model.SubmissionState
}

// Orchestrator runs the end-to-end sequence for one device: validate
// the draft, consult the rate limiter, upload media, write the record,
// advance the persisted state, reset the draft. At most one sequence
// is in flight at a time.
type Orchestrator struct {
	device   string
	limits   Limits
	uploader Uploader
	records  record.Writer
	now      func() time.Time

	mu    sync.Mutex
	phase Phase
	draft *model.IncidentDraft
}

func NewOrchestrator(device string, limits Limits, uploader Uploader, records record.Writer, now func() time.Time) *Orchestrator {
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		device:   device,
		limits:   limits,
		uploader: uploader,
		records:  records,
		now:      now,
		draft:    model.NewDraft(now()),
	}
}

// Phase returns the current phase.
func (o *Orchestrator) Phase() Phase {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.phase
}

// Stage mutates the draft, but only while no submission is in flight.
func (o *Orchestrator) Stage(fn func(d *model.IncidentDraft) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.phase != Idle {
		return ErrBusy
	}
	return fn(o.draft)
}

func (o *Orchestrator) setPhase(p Phase) {
	o.mu.Lock()
	o.phase = p
	o.mu.Unlock()
}

// Submit runs one submission attempt. It returns *Blocked when
// validation refuses, ErrBusy on a re-entrant trigger, a wrapped store
// error when the record write fails (draft preserved, no rate limiter
// update), and a Result on success (draft reset).
func (o *Orchestrator) Submit(ctx context.Context) (*Result, error) {
	o.mu.Lock()
	if o.phase != Idle {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	o.phase = Validating
	draft := o.draft
	o.mu.Unlock()

	now := o.now()
	state := o.limits.Load(ctx, o.device)

	if blocked := validate(draft, state, now); blocked != nil {
		o.setPhase(Idle)
		return nil, blocked
	}

	attachments := []string{}
	if len(draft.Images) > 0 {
		o.setPhase(Uploading)
		attachments = o.uploader.Upload(ctx, draft.Images)
	}

	o.setPhase(Persisting)
	id, err := o.records.Insert(ctx, draft.Record(attachments))
	if err != nil {
		// draft stays as-is so the user can retry; a failed
		// submission counts against neither cap nor cooldown
		o.setPhase(Idle)
		return nil, fmt.Errorf("%w: %s", ErrPersist, err)
	}

	o.setPhase(Finalizing)
	next, err := o.limits.RecordSuccess(ctx, o.device, state, o.now())
	if err != nil {
		// the record is already written; losing the local counter
		// only loosens an advisory limit
		log.Warnf("state.save (%s): %s", o.device, err)
	}

	o.mu.Lock()
	o.draft.Reset(o.now())
	o.phase = Idle
	o.mu.Unlock()

	return &Result{ID: id, Attachments: attachments, State: next}, nil
}

// validate applies the submit-guard checks in the order the form
// always has: cooldown, then daily cap, then required fields.
func validate(draft *model.IncidentDraft, state model.SubmissionState, now time.Time) *Blocked {
	if remaining := ratelimit.RemainingCooldown(state, now); remaining > 0 {
		return &Blocked{
			Reason:          ReasonCooldown,
			CooldownSeconds: remaining,
			SubmittedToday:  ratelimit.DailyCountFor(state, now),
		}
	}
	if count := ratelimit.DailyCountFor(state, now); count >= ratelimit.DailyCap {
		return &Blocked{Reason: ReasonDailyCap, SubmittedToday: count}
	}
	if missing := draft.Missing(); len(missing) > 0 {
		return &Blocked{Reason: ReasonMissingFields, MissingFields: missing}
	}
	return nil
}
