package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/guidanceapp/incident-report/model"
)

var noon = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func TestRemainingCooldown(t *testing.T) {
	tests := []struct {
		name       string
		lastSubmit time.Time
		now        time.Time
		want       int
	}{
		{"never submitted", time.Time{}, noon, 0},
		{"just submitted", noon, noon, 60},
		{"half elapsed", noon, noon.Add(30 * time.Second), 30},
		{"one second left", noon, noon.Add(59 * time.Second), 1},
		{"exactly elapsed", noon, noon.Add(60 * time.Second), 0},
		{"long elapsed", noon, noon.Add(time.Hour), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := model.SubmissionState{}
			if !tt.lastSubmit.IsZero() {
				state.LastSubmit = tt.lastSubmit.UnixMilli()
			}
			got := RemainingCooldown(state, tt.now)
			assert.Equal(t, tt.want, got)
			assert.GreaterOrEqual(t, got, 0)
		})
	}
}

func TestDailyCountFor(t *testing.T) {
	state := model.SubmissionState{Date: DayKey(noon), Count: 3}

	assert.Equal(t, 3, DailyCountFor(state, noon))
	assert.Equal(t, 3, DailyCountFor(state, noon.Add(11*time.Hour)))

	// any other calendar day reads as zero, whatever the count says
	assert.Equal(t, 0, DailyCountFor(state, noon.Add(24*time.Hour)))
	assert.Equal(t, 0, DailyCountFor(model.SubmissionState{Date: "Mon Jan 01 2024", Count: 5}, noon))
}

func TestCanSubmit(t *testing.T) {
	t.Run("zero state", func(t *testing.T) {
		assert.True(t, CanSubmit(model.SubmissionState{}, noon))
	})

	t.Run("cooldown active", func(t *testing.T) {
		state := model.SubmissionState{Date: DayKey(noon), Count: 1, LastSubmit: noon.UnixMilli()}
		assert.False(t, CanSubmit(state, noon.Add(30*time.Second)))
		assert.True(t, CanSubmit(state, noon.Add(60*time.Second)))
	})

	t.Run("daily cap reached", func(t *testing.T) {
		state := model.SubmissionState{
			Date:       DayKey(noon),
			Count:      DailyCap,
			LastSubmit: noon.Add(-time.Hour).UnixMilli(),
		}
		assert.False(t, CanSubmit(state, noon))
	})

	t.Run("cap resets on day rollover", func(t *testing.T) {
		state := model.SubmissionState{
			Date:       DayKey(noon),
			Count:      DailyCap,
			LastSubmit: noon.UnixMilli(),
		}
		assert.True(t, CanSubmit(state, noon.Add(24*time.Hour)))
	})
}

func TestAdvance(t *testing.T) {
	t.Run("same day increments", func(t *testing.T) {
		state := model.SubmissionState{Date: DayKey(noon), Count: 2, LastSubmit: noon.UnixMilli()}
		later := noon.Add(5 * time.Minute)

		next := Advance(state, later)
		assert.Equal(t, DayKey(noon), next.Date)
		assert.Equal(t, 3, next.Count)
		assert.Equal(t, later.UnixMilli(), next.LastSubmit)
	})

	t.Run("rollover restarts at one", func(t *testing.T) {
		state := model.SubmissionState{Date: DayKey(noon), Count: 5, LastSubmit: noon.UnixMilli()}
		tomorrow := noon.Add(24 * time.Hour)

		next := Advance(state, tomorrow)
		assert.Equal(t, DayKey(tomorrow), next.Date)
		assert.Equal(t, 1, next.Count)
	})

	t.Run("fresh state", func(t *testing.T) {
		next := Advance(model.SubmissionState{}, noon)
		assert.Equal(t, model.SubmissionState{
			Date:       DayKey(noon),
			Count:      1,
			LastSubmit: noon.UnixMilli(),
		}, next)
	})
}
