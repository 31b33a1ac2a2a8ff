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

package commands

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/quickmv/quick-music-videos/internal/cloud"
	"github.com/quickmv/quick-music-videos/internal/core/cor"
	"github.com/quickmv/quick-music-videos/internal/core/model"
	"github.com/quickmv/quick-music-videos/internal/core/services"
)

// MusicResultsWriter persists the music phase results, marks the phase
// completed, and publishes the trigger for the video phase. It is the
// terminal command of the music chain.
type MusicResultsWriter struct {
	cor.BaseCommand
	tracker   *services.PhaseTracker
	publisher cloud.Publisher
	channel   string
}

// NewMusicResultsWriter creates the command. A nil publisher skips the
// hand-off, which is the behavior in fallback mode where no worker can be
// listening anyway.
func NewMusicResultsWriter(name string, tracker *services.PhaseTracker, publisher cloud.Publisher, channel string) *MusicResultsWriter {
	return &MusicResultsWriter{
		BaseCommand: *cor.NewBaseCommand(name),
		tracker:     tracker,
		publisher:   publisher,
		channel:     channel,
	}
}

// Execute writes the results record and completion status, then publishes
// the session id on the next-phase channel.
func (c *MusicResultsWriter) Execute(context cor.Context) {
	result := context.Get(c.GetInputParam()).(*services.GenerationResult)
	sessionID := context.Get(GetSessionIDParamName()).(string)

	results := &model.MusicResults{
		Success:      true,
		SessionID:    sessionID,
		Songs:        result.Songs,
		TotalSongs:   len(result.Songs),
		GenerationID: result.GenerationID,
		TagsUsed:     result.TagsUsed,
		CompletedAt:  time.Now().UTC().Format(time.RFC3339),
		Phase:        model.PhaseMusic,
	}

	if err := c.tracker.SetResults(context.GetContext(), sessionID, model.PhaseMusic, results); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to store music results: %w", err))
		return
	}

	message := fmt.Sprintf("Successfully generated and stored %d songs", len(result.Songs))
	_ = c.tracker.SetStatus(context.GetContext(), sessionID, model.PhaseMusic, model.StatusCompleted, 100, message, "")

	if c.publisher != nil {
		if err := c.publisher.Publish(context.GetContext(), c.channel, sessionID); err != nil {
			slog.Error("failed to publish video phase trigger", "session_id", sessionID, "channel", c.channel, "error", err)
		}
	} else {
		slog.Debug("no publisher configured, skipping video phase trigger", "session_id", sessionID)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetMusicResultsParamName(), results)
	context.Add(c.GetOutputParam(), results)
}
