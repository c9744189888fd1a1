package ratelimit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/guidanceapp/incident-report/log"
	"github.com/guidanceapp/incident-report/model"
)

// Store persists one SubmissionState blob per device in the local
// state table. It is the only side-effecting boundary of this package.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db}
}

// Load reads the state for a device. It fails soft: a missing row, a
// read error or a corrupt blob all read as the zero state so the
// submission path is never blocked by local storage trouble.
func (s *Store) Load(ctx context.Context, device string) (state model.SubmissionState) {
	var data string
	err := s.db.
		QueryRowContext(ctx, "SELECT data FROM submission_state WHERE device_id = ?", device).
		Scan(&data)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Warnf("state.load: %s", err)
		}
		return
	}

	err = json.Unmarshal([]byte(data), &state)
	if err != nil {
		log.Warnf("state.load.parse: %s", err)
		return model.SubmissionState{}
	}
	return
}

// Save replaces the whole blob for a device in a single write.
func (s *Store) Save(ctx context.Context, device string, state model.SubmissionState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO submission_state (device_id, data) VALUES (?, ?)
		ON CONFLICT (device_id) DO UPDATE SET data = excluded.data`,
		device,
		string(data),
	)
	return err
}

// RecordSuccess advances the state for a successful submission at time
// now and persists it. This is the only operation that increases the
// daily count.
func (s *Store) RecordSuccess(ctx context.Context, device string, state model.SubmissionState, now time.Time) (model.SubmissionState, error) {
	next := Advance(state, now)
	err := s.Save(ctx, device, next)
	if err != nil {
		return state, err
	}
	return next, nil
}
