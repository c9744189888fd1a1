package model

import (
	"errors"
	"time"
)

const (
	// MaxImages is the hard cap on attachments per draft, enforced at
	// every entry point that adds images.
	MaxImages = 5

	// MaxDescriptionChars mirrors the input limit of the mobile form.
	MaxDescriptionChars = 100
)

var ErrTooManyImages = errors.New("at most 5 images per incident")

// SubmissionState is the persisted per-device submission history.
// Field names match the JSON blob the mobile app has always stored:
// a day label, the count of successful submissions for that day, and
// the last successful submission time in epoch milliseconds (0 = never).
type SubmissionState struct {
	Date       string `json:"date"`
	Count      int    `json:"count"`
	LastSubmit int64  `json:"lastSubmit,omitempty"`
}

// ImageRef is a locally held image waiting to be uploaded.
type ImageRef struct {
	Name        string
	ContentType string
	Data        []byte
}

// IncidentDraft is the in-memory form state. It is mutable until a
// submission starts, then frozen for the duration of the in-flight
// request (the orchestrator enforces this).
type IncidentDraft struct {
	IncidentType string
	Location     string
	IncidentDate time.Time
	Description  string
	UrgencyLevel string
	ContactInfo  string
	Images       []ImageRef
}

func NewDraft(now time.Time) *IncidentDraft {
	return &IncidentDraft{IncidentDate: now}
}

// AddImage appends a single captured image. Adding beyond the cap is
// rejected, not truncated.
func (d *IncidentDraft) AddImage(img ImageRef) error {
	if len(d.Images) >= MaxImages {
		return ErrTooManyImages
	}
	d.Images = append(d.Images, img)
	return nil
}

// AddImages appends a multi-selection. The whole batch is rejected if
// it would push the draft past the cap.
func (d *IncidentDraft) AddImages(imgs []ImageRef) error {
	if len(d.Images)+len(imgs) > MaxImages {
		return ErrTooManyImages
	}
	d.Images = append(d.Images, imgs...)
	return nil
}

// RemoveImage drops the image at position i, if any.
func (d *IncidentDraft) RemoveImage(i int) {
	if i < 0 || i >= len(d.Images) {
		return
	}
	d.Images = append(d.Images[:i], d.Images[i+1:]...)
}

// Missing lists the required fields that are still empty.
func (d *IncidentDraft) Missing() (fields []string) {
	if d.IncidentType == "" {
		fields = append(fields, "incidentType")
	}
	if d.Location == "" {
		fields = append(fields, "location")
	}
	if d.Description == "" {
		fields = append(fields, "description")
	}
	if d.UrgencyLevel == "" {
		fields = append(fields, "urgencyLevel")
	}
	return
}

// Reset returns the draft to its empty default after a successful
// submission. The incident date snaps back to the current day.
func (d *IncidentDraft) Reset(now time.Time) {
	*d = IncidentDraft{IncidentDate: now}
}

// Record builds the document to persist from the draft plus the
// uploaded attachment URLs. The creation timestamp is assigned by the
// record store, not here.
func (d *IncidentDraft) Record(attachments []string) IncidentRecord {
	if attachments == nil {
		attachments = []string{}
	}
	return IncidentRecord{
		IncidentType: d.IncidentType,
		Location:     d.Location,
		IncidentDate: d.IncidentDate.Format(time.RFC3339),
		Description:  d.Description,
		UrgencyLevel: d.UrgencyLevel,
		Attachments:  attachments,
		ContactInfo:  d.ContactInfo,
	}
}

// IncidentRecord is the document written to the remote record store,
// immutable once written.
type IncidentRecord struct {
	ID           string   `json:"id,omitempty"`
	IncidentType string   `json:"incidentType"`
	Location     string   `json:"location"`
	IncidentDate string   `json:"incidentDate"`
	Description  string   `json:"description"`
	UrgencyLevel string   `json:"urgencyLevel"`
	Attachments  []string `json:"attachments"`
	ContactInfo  string   `json:"contactInfo"`
}
