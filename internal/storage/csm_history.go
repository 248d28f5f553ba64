// Package storage provides CSM trigger-event history persistence, grounded
// on the teacher's rl_storage.go outcome-log pattern.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"causality/internal/csm"
)

// CSMTriggerEvent is one persisted TriggerRecord from a CSM.Evaluate call.
type CSMTriggerEvent struct {
	StateKey   string
	Activated  bool
	Gated      bool
	GateReason string
	ActionErr  string
	CreatedAt  time.Time
}

// RecordCSMTrigger persists one state's TriggerRecord from a CSM.Evaluate
// call.
func (s *SQLiteStorage) RecordCSMTrigger(rec csm.TriggerRecord) error {
	actionErr := ""
	if rec.ActionErr != nil {
		actionErr = rec.ActionErr.Error()
	}

	_, err := s.db.Exec(`
		INSERT INTO csm_trigger_events (state_key, activated, gated, gate_reason, action_error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.StateKey, boolToInt(rec.Activated), boolToInt(rec.Gated), rec.GateReason, actionErr, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to record csm trigger event: %w", err)
	}
	return nil
}

// GetCSMTriggerHistory returns the most recent trigger events for a given
// state_key, newest first, bounded by limit.
func (s *SQLiteStorage) GetCSMTriggerHistory(stateKey string, limit int) ([]*CSMTriggerEvent, error) {
	rows, err := s.db.Query(`
		SELECT state_key, activated, gated, gate_reason, action_error, created_at
		FROM csm_trigger_events
		WHERE state_key = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, stateKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query csm trigger history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*CSMTriggerEvent
	for rows.Next() {
		ev, err := scanCSMTriggerEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func scanCSMTriggerEvent(row *sql.Rows) (*CSMTriggerEvent, error) {
	var stateKey, gateReason, actionErr string
	var activated, gated int
	var createdAt int64

	if err := row.Scan(&stateKey, &activated, &gated, &gateReason, &actionErr, &createdAt); err != nil {
		return nil, fmt.Errorf("failed to scan csm trigger event: %w", err)
	}

	return &CSMTriggerEvent{
		StateKey:   stateKey,
		Activated:  activated == 1,
		Gated:      gated == 1,
		GateReason: gateReason,
		ActionErr:  actionErr,
		CreatedAt:  time.Unix(createdAt, 0),
	}, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
