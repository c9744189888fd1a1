package ratelimit

import (
	"time"

	"github.com/guidanceapp/incident-report/model"
)

const (
	// CooldownWindow is the minimum interval between successful submissions.
	CooldownWindow = 60 * time.Second

	// DailyCap is the maximum number of successful submissions per calendar day.
	DailyCap = 5
)

// DayKey labels a calendar day the way the stored blob always has
// (the mobile app used Date.toDateString()).
func DayKey(t time.Time) string {
	return t.Format("Mon Jan 02 2006")
}

// RemainingCooldown returns how many whole seconds of the cooldown
// window are left at time now. Zero when no submission was ever made
// or the window has elapsed.
func RemainingCooldown(s model.SubmissionState, now time.Time) int {
	if s.LastSubmit == 0 {
		return 0
	}
	elapsed := (now.UnixMilli() - s.LastSubmit) / 1000
	window := int64(CooldownWindow / time.Second)
	if elapsed >= window {
		return 0
	}
	return int(window - elapsed)
}

// DailyCountFor returns the submission count for today. A state
// recorded on a different day reads as zero; the stored record is not
// touched until the next successful submission.
func DailyCountFor(s model.SubmissionState, today time.Time) int {
	if s.Date != DayKey(today) {
		return 0
	}
	return s.Count
}

// CanSubmit reports whether both rules allow a submission at time now.
func CanSubmit(s model.SubmissionState, now time.Time) bool {
	return RemainingCooldown(s, now) == 0 && DailyCountFor(s, now) < DailyCap
}

// Advance computes the state after a successful submission at time
// now: same-day count incremented (or restarted at 1 after rollover),
// cooldown anchored at now.
func Advance(s model.SubmissionState, now time.Time) model.SubmissionState {
	return model.SubmissionState{
		Date:       DayKey(now),
		Count:      DailyCountFor(s, now) + 1,
		LastSubmit: now.UnixMilli(),
	}
}
