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

// This file defines the phase status records and result payloads written by
// the asynchronous workers and polled by HTTP clients. Each phase is tracked
// independently: the music and video workers progress, retry, and fail on
// their own, so there is no single global state machine per session.
package model

// Pipeline phases. Phase 1 (preference capture) completes synchronously in
// the submission handler and has no worker of its own.
const (
	PhasePreferences = 1
	PhaseMusic       = 2
	PhaseVideo       = 3
)

// Phase status values. StatusNotStarted is synthesized by the tracker when
// no record exists; workers only ever write the other three.
const (
	StatusNotStarted = "not_started"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// StatusRecord is the per-phase progress record. Writes are last-writer-wins
// with a fresh timestamp; a retry after failed or completed re-enters
// processing and may legitimately regress progress.
type StatusRecord struct {
	Status    string `json:"status"`
	Progress  int    `json:"progress"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Song describes one generated track. AudioURL is the vendor-hosted URL;
// GCSPath, PublicURL, Filename, and FileSize are filled in only after a
// successful upload to object storage. When the upload fails the vendor URL
// is kept as a fallback.
type Song struct {
	SongID    string       `json:"song_id"`
	Title     string       `json:"title"`
	AudioURL  string       `json:"audio_url"`
	GCSPath   string       `json:"gcs_path,omitempty"`
	PublicURL string       `json:"public_url,omitempty"`
	Filename  string       `json:"filename,omitempty"`
	FileSize  int64        `json:"file_size,omitempty"`
	Duration  float64      `json:"duration"`
	Tags      string       `json:"tags"`
	Prompt    string       `json:"prompt"`
	Status    string       `json:"status"`
	CreatedAt string       `json:"created_at"`
	Metadata  SongMetadata `json:"metadata"`
}

// SongMetadata carries the generation context alongside each song.
type SongMetadata struct {
	Genre string `json:"genre"`
	Mood  string `json:"mood"`
	Tempo string `json:"tempo"`
}

// MusicResults is the phase 2 result payload.
type MusicResults struct {
	Success      bool    `json:"success"`
	SessionID    string  `json:"session_id"`
	Songs        []*Song `json:"songs"`
	TotalSongs   int     `json:"total_songs"`
	GenerationID string  `json:"generation_id,omitempty"`
	TagsUsed     string  `json:"tags_used"`
	CompletedAt  string  `json:"completed_at"`
	Phase        int     `json:"phase"`
}

// Video describes one composited music video. Duration, ImagesUsed, and
// Tempo are reported by the compositor, which owns beat analysis.
type Video struct {
	VideoID     string  `json:"video_id"`
	GCSPath     string  `json:"gcs_path"`
	DownloadURL string  `json:"download_url"`
	Duration    float64 `json:"duration"`
	ImagesUsed  int     `json:"images_used"`
	Tempo       float64 `json:"tempo"`
}

// VideoResults is the phase 3 result payload.
type VideoResults struct {
	Success     bool     `json:"success"`
	SessionID   string   `json:"session_id"`
	Videos      []*Video `json:"videos"`
	TotalVideos int      `json:"total_videos"`
	GeneratedAt string   `json:"generated_at"`
	Phase       int      `json:"phase"`
}

// PromptEnhancement is the response shape of the prompt enhancement
// endpoints, shared by the image and music variants.
type PromptEnhancement struct {
	EnhancedPrompt string   `json:"enhanced_prompt"`
	Alternatives   []string `json:"alternatives"`
	TechnicalNotes string   `json:"technical_notes"`
	OriginalPrompt string   `json:"original_prompt"`
	CharacterCount int      `json:"character_count"`
}

// ImageSuggestion is one AI-proposed image concept for the slideshow.
type ImageSuggestion struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
