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

package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quickmv/quick-music-videos/internal/core/model"
	"github.com/quickmv/quick-music-videos/internal/core/services"
	test "github.com/quickmv/quick-music-videos/internal/testutil"
	"github.com/zeebo/assert"
)

func TestPhaseStatusDefault(t *testing.T) {
	ctx := context.Background()
	tracker := services.NewPhaseTracker(services.NewMemoryBackend(), time.Minute, time.Minute)

	record, err := tracker.GetStatus(ctx, "unknown", model.PhaseMusic)
	test.HandleErr(err, t)
	assert.Equal(t, model.StatusNotStarted, record.Status)
	assert.Equal(t, 0, record.Progress)
}

func TestPhaseStatusLastWriterWins(t *testing.T) {
	ctx := context.Background()
	tracker := services.NewPhaseTracker(services.NewMemoryBackend(), time.Minute, time.Minute)

	test.HandleErr(tracker.SetStatus(ctx, "s1", model.PhaseMusic, model.StatusProcessing, 50, "halfway", ""), t)
	test.HandleErr(tracker.SetStatus(ctx, "s1", model.PhaseMusic, model.StatusCompleted, 100, "done", ""), t)

	record, err := tracker.GetStatus(ctx, "s1", model.PhaseMusic)
	test.HandleErr(err, t)
	assert.Equal(t, model.StatusCompleted, record.Status)
	assert.Equal(t, 100, record.Progress)
	assert.Equal(t, "done", record.Message)
	assert.True(t, record.Timestamp != "")
}

func TestPhaseStatusIsPerPhase(t *testing.T) {
	ctx := context.Background()
	tracker := services.NewPhaseTracker(services.NewMemoryBackend(), time.Minute, time.Minute)

	test.HandleErr(tracker.SetStatus(ctx, "s1", model.PhaseMusic, model.StatusCompleted, 100, "", ""), t)

	record, err := tracker.GetStatus(ctx, "s1", model.PhaseVideo)
	test.HandleErr(err, t)
	assert.Equal(t, model.StatusNotStarted, record.Status)
}

func TestPhaseResults(t *testing.T) {
	ctx := context.Background()
	tracker := services.NewPhaseTracker(services.NewMemoryBackend(), time.Minute, time.Minute)

	_, err := tracker.GetResults(ctx, "s1", model.PhaseMusic)
	assert.True(t, errors.Is(err, services.ErrSessionNotFound))

	payload := &model.MusicResults{
		Success:    true,
		SessionID:  "s1",
		Songs:      []*model.Song{{SongID: "song-1", AudioURL: "https://cdn.example.com/a.mp3"}},
		TotalSongs: 1,
		Phase:      model.PhaseMusic,
	}
	test.HandleErr(tracker.SetResults(ctx, "s1", model.PhaseMusic, payload), t)

	raw, err := tracker.GetResults(ctx, "s1", model.PhaseMusic)
	test.HandleErr(err, t)
	assert.True(t, len(raw) > 0)

	typed, err := tracker.GetMusicResults(ctx, "s1")
	test.HandleErr(err, t)
	assert.Equal(t, 1, typed.TotalSongs)
	assert.Equal(t, "song-1", typed.Songs[0].SongID)
}

func TestPhaseResultsOutliveStatus(t *testing.T) {
	ctx := context.Background()
	tracker := services.NewPhaseTracker(services.NewMemoryBackend(), 50*time.Millisecond, time.Minute)

	test.HandleErr(tracker.SetStatus(ctx, "s1", model.PhaseVideo, model.StatusCompleted, 100, "", ""), t)
	test.HandleErr(tracker.SetResults(ctx, "s1", model.PhaseVideo, &model.VideoResults{Success: true, SessionID: "s1"}), t)

	time.Sleep(80 * time.Millisecond)

	record, err := tracker.GetStatus(ctx, "s1", model.PhaseVideo)
	test.HandleErr(err, t)
	assert.Equal(t, model.StatusNotStarted, record.Status)

	_, err = tracker.GetResults(ctx, "s1", model.PhaseVideo)
	test.HandleErr(err, t)
}
