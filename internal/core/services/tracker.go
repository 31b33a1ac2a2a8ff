// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/quickmv/quick-music-videos/internal/core/model"
)

// PhaseTracker records per-phase progress written by the workers and read
// by polling HTTP clients. Status writes are last-writer-wins with no
// monotonicity enforcement; well-behaved workers never regress progress
// within one attempt, but a retry re-entering processing after a terminal
// status is legitimate and overwrites. The design assumes at most one
// active worker per phase per session; no lock enforces that precondition.
type PhaseTracker struct {
	Backend    SessionBackend
	StatusTTL  time.Duration
	ResultsTTL time.Duration
}

// NewPhaseTracker creates a tracker over the given backend. Status records
// share the session lifetime; result payloads live longer (24h by default)
// so finished media stays downloadable after the form session itself lapses.
func NewPhaseTracker(backend SessionBackend, statusTTL, resultsTTL time.Duration) *PhaseTracker {
	return &PhaseTracker{Backend: backend, StatusTTL: statusTTL, ResultsTTL: resultsTTL}
}

func statusKey(sessionID string, phase int) string {
	return fmt.Sprintf("session:%s:phase%d_status", sessionID, phase)
}

func resultsKey(sessionID string, phase int) string {
	return fmt.Sprintf("session:%s:phase%d_results", sessionID, phase)
}

// SetStatus overwrites the phase's status record with a fresh timestamp.
func (t *PhaseTracker) SetStatus(ctx context.Context, sessionID string, phase int, status string, progress int, message, errText string) error {
	record := &model.StatusRecord{
		Status:    status,
		Progress:  progress,
		Message:   message,
		Error:     errText,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to serialize status record: %w", err)
	}
	if err := t.Backend.Set(ctx, statusKey(sessionID, phase), data, t.StatusTTL); err != nil {
		return fmt.Errorf("failed to write status record: %w", err)
	}
	slog.Info("phase status updated",
		"session_id", sessionID, "phase", phase, "status", status, "progress", progress)
	return nil
}

// GetStatus returns the stored record, or a synthesized not_started record
// with progress 0 when none exists. Malformed records are logged and
// reported as not_started rather than failing the poll.
func (t *PhaseTracker) GetStatus(ctx context.Context, sessionID string, phase int) (*model.StatusRecord, error) {
	data, found, err := t.Backend.Get(ctx, statusKey(sessionID, phase))
	if err != nil {
		return nil, fmt.Errorf("failed to read status record: %w", err)
	}
	if !found {
		return &model.StatusRecord{Status: model.StatusNotStarted, Progress: 0}, nil
	}
	record := &model.StatusRecord{}
	if err := json.Unmarshal(data, record); err != nil {
		slog.Warn("malformed status record", "session_id", sessionID, "phase", phase, "error", err)
		return &model.StatusRecord{Status: model.StatusNotStarted, Progress: 0}, nil
	}
	return record, nil
}

// SetResults stores the phase's result payload under the results TTL.
func (t *PhaseTracker) SetResults(ctx context.Context, sessionID string, phase int, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to serialize results: %w", err)
	}
	if err := t.Backend.Set(ctx, resultsKey(sessionID, phase), data, t.ResultsTTL); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

// GetResults returns the raw result payload, or ErrSessionNotFound when the
// phase has not produced results (or they have expired).
func (t *PhaseTracker) GetResults(ctx context.Context, sessionID string, phase int) (json.RawMessage, error) {
	data, found, err := t.Backend.Get(ctx, resultsKey(sessionID, phase))
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	if !found {
		return nil, ErrSessionNotFound
	}
	return data, nil
}

// GetMusicResults returns the typed phase 2 payload for the video pipeline.
func (t *PhaseTracker) GetMusicResults(ctx context.Context, sessionID string) (*model.MusicResults, error) {
	raw, err := t.GetResults(ctx, sessionID, model.PhaseMusic)
	if err != nil {
		return nil, err
	}
	results := &model.MusicResults{}
	if err := json.Unmarshal(raw, results); err != nil {
		slog.Warn("malformed music results", "session_id", sessionID, "error", err)
		return nil, ErrSessionNotFound
	}
	return results, nil
}
