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
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/quickmv/quick-music-videos/internal/cloud"
	"github.com/quickmv/quick-music-videos/internal/core/cor"
	"github.com/quickmv/quick-music-videos/internal/core/model"
	"github.com/quickmv/quick-music-videos/internal/core/services"
)

// VideoResultsWriter persists the video phase results, marks the phase
// completed, and announces the finished session on the completion channel.
// It is the terminal command of the video chain.
type VideoResultsWriter struct {
	cor.BaseCommand
	tracker   *services.PhaseTracker
	publisher cloud.Publisher
	channel   string
}

// NewVideoResultsWriter creates the command.
func NewVideoResultsWriter(name string, tracker *services.PhaseTracker, publisher cloud.Publisher, channel string) *VideoResultsWriter {
	return &VideoResultsWriter{
		BaseCommand: *cor.NewBaseCommand(name),
		tracker:     tracker,
		publisher:   publisher,
		channel:     channel,
	}
}

// Execute writes the results record and completion status, then publishes
// the completion announcement.
func (c *VideoResultsWriter) Execute(context cor.Context) {
	videos := context.Get(c.GetInputParam()).([]*model.Video)
	sessionID := context.Get(GetSessionIDParamName()).(string)

	results := &model.VideoResults{
		Success:     true,
		SessionID:   sessionID,
		Videos:      videos,
		TotalVideos: len(videos),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Phase:       model.PhaseVideo,
	}

	if err := c.tracker.SetResults(context.GetContext(), sessionID, model.PhaseVideo, results); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to store video results: %w", err))
		return
	}

	message := fmt.Sprintf("Generated %d videos", len(videos))
	_ = c.tracker.SetStatus(context.GetContext(), sessionID, model.PhaseVideo, model.StatusCompleted, 100, message, "")

	if c.publisher != nil {
		payload, _ := json.Marshal(map[string]interface{}{
			"session_id":  sessionID,
			"video_count": len(videos),
		})
		if err := c.publisher.Publish(context.GetContext(), c.channel, string(payload)); err != nil {
			slog.Error("failed to publish completion announcement", "session_id", sessionID, "channel", c.channel, "error", err)
		}
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), results)
}
