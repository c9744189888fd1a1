package routes

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/render"

	"github.com/guidanceapp/incident-report/app"
	"github.com/guidanceapp/incident-report/httpx"
	"github.com/guidanceapp/incident-report/log"
	"github.com/guidanceapp/incident-report/model"
	"github.com/guidanceapp/incident-report/ratelimit"
	"github.com/guidanceapp/incident-report/submit"
)

const maxUploadBytes = 12 << 20

func SubmitIncident(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orch := app.Submissions.Device(deviceID(r))

		err := r.ParseMultipartForm(maxUploadBytes)
		if err != nil {
			httpx.LogStatus(w, http.StatusBadRequest, log.DebugLevel, "request.parse_multipart")
			return
		}

		if utf8.RuneCountInString(r.FormValue("description")) > model.MaxDescriptionChars {
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.description",
				"description must be at most %d characters", model.MaxDescriptionChars)
			return
		}

		images, err := formImages(r)
		if err != nil {
			httpx.LogInternalError(w, "request.read_images", err)
			return
		}

		err = orch.Stage(func(d *model.IncidentDraft) error {
			d.IncidentType = r.FormValue("incidentType")
			d.Location = r.FormValue("location")
			d.Description = r.FormValue("description")
			d.UrgencyLevel = r.FormValue("urgencyLevel")
			d.ContactInfo = r.FormValue("contactInfo")
			if ds := r.FormValue("incidentDate"); ds != "" {
				if t, err := time.Parse(time.RFC3339, ds); err == nil {
					d.IncidentDate = t
				}
			}
			d.Images = nil
			return d.AddImages(images)
		})
		switch {
		case errors.Is(err, submit.ErrBusy):
			httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "submit.in_flight")
			return
		case errors.Is(err, model.ErrTooManyImages):
			httpx.LogStatusMsg(w, http.StatusBadRequest, log.DebugLevel, "request.images",
				"you can only upload up to %d images", model.MaxImages)
			return
		case err != nil:
			httpx.LogInternalError(w, "submit.stage", err)
			return
		}

		res, err := orch.Submit(r.Context())
		if err != nil {
			var blocked *submit.Blocked
			switch {
			case errors.Is(err, submit.ErrBusy):
				httpx.LogStatus(w, http.StatusConflict, log.DebugLevel, "submit.in_flight")
			case errors.As(err, &blocked):
				writeBlocked(w, r, blocked)
			case errors.Is(err, submit.ErrPersist):
				// the record store is an upstream; the draft is
				// preserved so the client can retry
				httpx.LogBadGateway(w, "submit.persist", err)
			default:
				httpx.LogInternalError(w, "submit", err)
			}
			return
		}

		w.WriteHeader(http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"id":                res.ID,
			"attachments":       res.Attachments,
			"submissions_today": res.State.Count,
		})
	}
}

func writeBlocked(w http.ResponseWriter, r *http.Request, blocked *submit.Blocked) {
	log.Debug("submit.blocked:", blocked.Reason)

	if blocked.Reason == submit.ReasonMissingFields {
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, map[string]any{
			"error":          blocked.Error(),
			"reason":         blocked.Reason,
			"missing_fields": blocked.MissingFields,
		})
		return
	}

	if blocked.CooldownSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(blocked.CooldownSeconds))
	}
	w.WriteHeader(http.StatusTooManyRequests)
	render.JSON(w, r, map[string]any{
		"error":             blocked.Error(),
		"reason":            blocked.Reason,
		"retry_after":       blocked.CooldownSeconds,
		"submissions_today": blocked.SubmittedToday,
		"daily_cap":         ratelimit.DailyCap,
	})
}

// formImages collects the uploaded parts in submission order.
func formImages(r *http.Request) (images []model.ImageRef, err error) {
	if r.MultipartForm == nil {
		return
	}
	for _, fh := range r.MultipartForm.File["images"] {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		images = append(images, model.ImageRef{
			Name:        fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return
}
