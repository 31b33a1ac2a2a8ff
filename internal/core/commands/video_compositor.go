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

	"github.com/quickmv/quick-music-videos/internal/core/cor"
	"github.com/quickmv/quick-music-videos/internal/core/model"
	"github.com/quickmv/quick-music-videos/internal/core/services"
)

// VideoCompositor submits one compositing job per song and reports
// progress as each finishes. Progress is the fraction of songs started,
// matching what a client watching the phase status expects to see.
type VideoCompositor struct {
	cor.BaseCommand
	compositor *services.CompositorService
	tracker    *services.PhaseTracker
	media      *services.MediaStorageService
}

// NewVideoCompositor creates the command.
func NewVideoCompositor(name string, compositor *services.CompositorService, tracker *services.PhaseTracker, media *services.MediaStorageService) *VideoCompositor {
	return &VideoCompositor{
		BaseCommand: *cor.NewBaseCommand(name),
		compositor:  compositor,
		tracker:     tracker,
		media:       media,
	}
}

// IsExecutable additionally requires the music results.
func (c *VideoCompositor) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) && context.Get(GetMusicResultsParamName()) != nil
}

// audioURI picks the most durable location for a song's audio. Songs that
// never made it into the bucket fall back to the vendor URL; the
// compositor accepts both.
func (c *VideoCompositor) audioURI(song *model.Song) string {
	if song.GCSPath != "" && c.media != nil {
		return c.media.GCSURI(song.GCSPath)
	}
	return song.AudioURL
}

// Execute composes one video per song.
func (c *VideoCompositor) Execute(context cor.Context) {
	urlSets := context.Get(c.GetInputParam()).([][]string)
	results := context.Get(GetMusicResultsParamName()).(*model.MusicResults)
	sessionID := context.Get(GetSessionIDParamName()).(string)

	videos := make([]*model.Video, 0, len(results.Songs))
	for i, song := range results.Songs {
		progress := int(float64(i) / float64(len(results.Songs)) * 100)
		message := fmt.Sprintf("Creating video %d/%d", i+1, len(results.Songs))
		_ = c.tracker.SetStatus(context.GetContext(), sessionID, model.PhaseVideo, model.StatusProcessing, progress, message, "")

		objectName := fmt.Sprintf("videos/%s/video_%s_%d.mp4", sessionID, sessionID, i+1)

		job := &services.CompositeJob{
			SessionID:    sessionID,
			AudioGCSURI:  c.audioURI(song),
			ImageURLs:    urlSets[i],
			OutputGCSURI: c.outputURI(objectName),
		}

		result, err := c.compositor.Compose(context.GetContext(), job)
		if err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("video %d failed: %w", i+1, err))
			return
		}

		video := &model.Video{
			VideoID:    fmt.Sprintf("video_%d", i+1),
			GCSPath:    objectName,
			Duration:   result.Duration,
			ImagesUsed: len(urlSets[i]),
			Tempo:      result.Tempo,
		}
		if c.media != nil {
			video.DownloadURL = c.media.PublicURL(objectName)
		}
		videos = append(videos, video)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), videos)
}

func (c *VideoCompositor) outputURI(objectName string) string {
	if c.media != nil {
		return c.media.GCSURI(objectName)
	}
	return objectName
}
