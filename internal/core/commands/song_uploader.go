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

	"github.com/quickmv/quick-music-videos/internal/core/cor"
	"github.com/quickmv/quick-music-videos/internal/core/services"
)

// SongUploader copies each generated song from the vendor's URL into the
// media bucket. Vendor URLs expire, so songs must land in our bucket
// before the video phase needs them. An upload failure keeps the vendor
// URL on the song instead of failing the chain; the song is still
// playable, just not durable.
type SongUploader struct {
	cor.BaseCommand
	media *services.MediaStorageService
}

// NewSongUploader creates the command. A nil media service turns the
// command into a pass-through, which keeps local development working
// without GCS credentials.
func NewSongUploader(name string, media *services.MediaStorageService) *SongUploader {
	return &SongUploader{BaseCommand: *cor.NewBaseCommand(name), media: media}
}

// Execute uploads the songs and fills in their storage fields.
func (c *SongUploader) Execute(context cor.Context) {
	result := context.Get(c.GetInputParam()).(*services.GenerationResult)
	sessionID := context.Get(GetSessionIDParamName()).(string)

	for i, song := range result.Songs {
		if c.media == nil || song.AudioURL == "" {
			continue
		}

		objectName := fmt.Sprintf("music/%s/song_%d_%s.mp3", sessionID, i+1, song.SongID)
		size, err := c.media.UploadFromURL(context.GetContext(), song.AudioURL, objectName)
		if err != nil {
			slog.Warn("song upload failed, keeping vendor url", "session_id", sessionID, "song_id", song.SongID, "error", err)
			continue
		}

		song.GCSPath = objectName
		song.Filename = objectName
		song.FileSize = size
		song.PublicURL = c.media.PublicURL(objectName)
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), result)
}
