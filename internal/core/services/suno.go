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

// This file defines the client for the Suno music generation API (via the
// apibox gateway). Generation is asynchronous: a POST returns a task ID and
// the client polls the record-info endpoint until clips carry audio URLs.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/quickmv/quick-music-videos/internal/core/model"
)

// tempoTags maps a tempo label to the descriptive phrase the music model
// responds to.
var tempoTags = map[string]string{
	"slow":      "slow tempo, relaxed",
	"medium":    "medium tempo, steady",
	"fast":      "fast tempo, energetic",
	"very_fast": "very fast tempo, intense",
}

// maxSongsPerGeneration caps how many clips of a generation are kept.
const maxSongsPerGeneration = 2

// SunoService generates songs from a preference document.
type SunoService struct {
	BaseURL         string
	APIKey          string
	Model           string
	CallbackURL     string
	HTTPClient      *http.Client
	MaxPollAttempts int
	PollDelay       time.Duration
}

// NewSunoService creates the client from configuration. The API key comes
// from the environment, never from config files.
func NewSunoService(cfg *SunoOptions) *SunoService {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 120
	}
	attempts := cfg.MaxPollAttempts
	if attempts <= 0 {
		attempts = 30
	}
	delay := cfg.PollDelaySeconds
	if delay <= 0 {
		delay = 10
	}
	return &SunoService{
		BaseURL:         strings.TrimSuffix(cfg.BaseURL, "/"),
		APIKey:          cfg.APIKey,
		Model:           cfg.Model,
		CallbackURL:     cfg.CallbackURL,
		HTTPClient:      &http.Client{Timeout: time.Duration(timeout) * time.Second},
		MaxPollAttempts: attempts,
		PollDelay:       time.Duration(delay) * time.Second,
	}
}

// SunoOptions carries the constructor parameters so callers outside this
// package do not need a positional argument list.
type SunoOptions struct {
	BaseURL          string
	APIKey           string
	Model            string
	CallbackURL      string
	TimeoutSeconds   int
	MaxPollAttempts  int
	PollDelaySeconds int
}

// BuildTags derives the comma-separated style tags for a generation request
// from the music preferences. Energy is only mentioned when it deviates
// from the medium default, and vocal style "none" becomes "instrumental".
func BuildTags(music model.MusicPreferences) string {
	var tags []string
	if music.Genre != "" {
		tags = append(tags, music.Genre)
	}
	if music.Mood != "" {
		tags = append(tags, music.Mood)
	}
	if phrase, ok := tempoTags[music.Tempo]; ok {
		tags = append(tags, phrase)
	}
	if music.EnergyLevel != "" && music.EnergyLevel != "medium" {
		tags = append(tags, fmt.Sprintf("%s energy", music.EnergyLevel))
	}
	if music.VocalStyle == "none" || music.VocalStyle == "" {
		tags = append(tags, "instrumental")
	} else {
		tags = append(tags, fmt.Sprintf("%s vocals", music.VocalStyle))
	}
	return strings.Join(tags, ", ")
}

type sunoGenerateRequest struct {
	Prompt       string `json:"prompt"`
	Tags         string `json:"tags"`
	Title        string `json:"title"`
	Instrumental bool   `json:"instrumental"`
	WaitAudio    bool   `json:"wait_audio"`
	CustomMode   bool   `json:"customMode"`
	Model        string `json:"model"`
	CallBackURL  string `json:"callBackUrl"`
}

type sunoClip struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	AudioURL  string          `json:"audio_url"`
	Duration  float64         `json:"duration"`
	Tags      string          `json:"tags"`
	Prompt    string          `json:"prompt"`
	Status    string          `json:"status"`
	CreatedAt string          `json:"created_at"`
	Extra     json.RawMessage `json:"metadata,omitempty"`
}

type sunoGenerateResponse struct {
	Code int    `json:"code"`
	ID   string `json:"id"`
	Data struct {
		TaskID string `json:"taskId"`
	} `json:"data"`
	Clips []sunoClip `json:"clips"`
}

type sunoRecordInfoResponse struct {
	Code int        `json:"code"`
	Data []sunoClip `json:"data"`
}

// GenerationResult is the outcome of one music generation request.
type GenerationResult struct {
	Songs        []*model.Song
	GenerationID string
	TagsUsed     string
}

// Generate submits a generation request built from the preference document
// and waits for the clips. At most two songs are returned even when the
// vendor produces more.
func (s *SunoService) Generate(ctx context.Context, doc *model.PreferenceDocument) (*GenerationResult, error) {
	if s.APIKey == "" {
		return nil, fmt.Errorf("music generation API key not configured")
	}

	tags := BuildTags(doc.Music)

	prompt := doc.Music.MusicPrompt
	if prompt == "" {
		prompt = fmt.Sprintf("Create a %s song with %s mood", doc.Music.Genre, doc.Music.Mood)
	}

	title := doc.General.ProjectName
	if title == "" {
		title = "Untitled"
	}

	reqBody := &sunoGenerateRequest{
		Prompt:       prompt,
		Tags:         tags,
		Title:        title,
		Instrumental: doc.Music.VocalStyle == "none" || doc.Music.VocalStyle == "",
		WaitAudio:    true,
		CustomMode:   false,
		Model:        s.Model,
		CallBackURL:  s.CallbackURL,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/api/v1/generate", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	s.setHeaders(req)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("music API error: %d - %s", resp.StatusCode, string(text))
	}

	var genResp sunoGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, err
	}

	var clips []sunoClip
	if genResp.Data.TaskID != "" {
		slog.Info("music generation task accepted, polling", "task_id", genResp.Data.TaskID)
		clips, err = s.pollForResults(ctx, genResp.Data.TaskID)
		if err != nil {
			return nil, err
		}
	} else {
		clips = genResp.Clips
	}

	if len(clips) > maxSongsPerGeneration {
		clips = clips[:maxSongsPerGeneration]
	}

	songs := make([]*model.Song, 0, len(clips))
	for i, clip := range clips {
		song := &model.Song{
			SongID:    clip.ID,
			Title:     clip.Title,
			AudioURL:  clip.AudioURL,
			Duration:  clip.Duration,
			Tags:      clip.Tags,
			Prompt:    clip.Prompt,
			Status:    clip.Status,
			CreatedAt: clip.CreatedAt,
			Metadata: model.SongMetadata{
				Genre: doc.Music.Genre,
				Mood:  doc.Music.Mood,
				Tempo: doc.Music.Tempo,
			},
		}
		if song.Title == "" {
			song.Title = fmt.Sprintf("Song %d", i+1)
		}
		if song.Tags == "" {
			song.Tags = tags
		}
		if song.Prompt == "" {
			song.Prompt = prompt
		}
		if song.Status == "" {
			song.Status = "complete"
		}
		if song.CreatedAt == "" {
			song.CreatedAt = time.Now().UTC().Format(time.RFC3339)
		}
		songs = append(songs, song)
	}

	return &GenerationResult{
		Songs:        songs,
		GenerationID: genResp.ID,
		TagsUsed:     tags,
	}, nil
}

// pollForResults queries the record-info endpoint until at least one clip
// carries an audio URL or the attempt budget is exhausted.
func (s *SunoService) pollForResults(ctx context.Context, taskID string) ([]sunoClip, error) {
	pollURL := fmt.Sprintf("%s/api/v1/generate/record-info?taskId=%s", s.BaseURL, url.QueryEscape(taskID))

	for attempt := 0; attempt < s.MaxPollAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollURL, nil)
		if err != nil {
			return nil, err
		}
		s.setHeaders(req)

		resp, err := s.HTTPClient.Do(req)
		if err != nil {
			slog.Warn("music generation poll failed", "task_id", taskID, "attempt", attempt+1, "error", err)
			s.sleep(ctx)
			continue
		}

		if resp.StatusCode == http.StatusOK {
			var info sunoRecordInfoResponse
			decodeErr := json.NewDecoder(resp.Body).Decode(&info)
			_ = resp.Body.Close()
			if decodeErr == nil && info.Code == http.StatusOK {
				var ready []sunoClip
				for _, clip := range info.Data {
					if clip.AudioURL != "" {
						ready = append(ready, clip)
					}
				}
				if len(ready) > 0 {
					return ready, nil
				}
			}
		} else {
			_ = resp.Body.Close()
			slog.Warn("music generation poll returned error status", "task_id", taskID, "status", resp.StatusCode)
		}

		s.sleep(ctx)
	}

	return nil, fmt.Errorf("music generation timed out after %d poll attempts", s.MaxPollAttempts)
}

func (s *SunoService) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")
}

func (s *SunoService) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(s.PollDelay):
	}
}
