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

// This file tests the music generation client against a stub of the
// vendor API, covering the tag builder, the task-then-poll flow, and the
// two-song cap.
package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quickmv/quick-music-videos/internal/core/model"
	"github.com/quickmv/quick-music-videos/internal/core/services"
	test "github.com/quickmv/quick-music-videos/internal/testutil"
	"github.com/zeebo/assert"
)

func TestBuildTags(t *testing.T) {
	tags := services.BuildTags(model.MusicPreferences{
		Genre:       "electronic",
		Mood:        "energetic",
		Tempo:       "fast",
		EnergyLevel: "high",
		VocalStyle:  "none",
	})
	assert.Equal(t, "electronic, energetic, fast tempo, energetic, high energy, instrumental", tags)
}

func TestBuildTagsMediumEnergyOmitted(t *testing.T) {
	tags := services.BuildTags(model.MusicPreferences{
		Genre:       "jazz",
		Mood:        "relaxed",
		Tempo:       "slow",
		EnergyLevel: "medium",
		VocalStyle:  "female",
	})
	assert.Equal(t, "jazz, relaxed, slow tempo, relaxed, female vocals", tags)
}

func TestBuildTagsUnknownTempoDropped(t *testing.T) {
	tags := services.BuildTags(model.MusicPreferences{
		Genre: "pop",
		Mood:  "happy",
		Tempo: "allegro",
	})
	assert.Equal(t, "pop, happy, instrumental", tags)
}

func sunoTestDoc() *model.PreferenceDocument {
	return services.NewPreferenceProcessor().Process(test.GetTestPreferenceForm(), "session-suno")
}

func newStubSuno(t *testing.T, handler http.HandlerFunc) *services.SunoService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := services.NewSunoService(&services.SunoOptions{
		BaseURL:         server.URL,
		APIKey:          "test-key",
		Model:           "V3_5",
		MaxPollAttempts: 3,
	})
	s.PollDelay = 10 * time.Millisecond
	return s
}

func TestSunoGenerateWithPolling(t *testing.T) {
	polls := 0
	s := newStubSuno(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		switch r.URL.Path {
		case "/api/v1/generate":
			var body map[string]interface{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, false, body["customMode"])
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"code": 200,
				"data": map[string]string{"taskId": "task-1"},
			})
		case "/api/v1/generate/record-info":
			assert.Equal(t, "task-1", r.URL.Query().Get("taskId"))
			polls++
			clips := []map[string]interface{}{
				{"id": "clip-1", "title": "First", "audio_url": "", "duration": 30.0},
			}
			if polls > 1 {
				clips[0]["audio_url"] = "https://cdn.example.com/clip-1.mp3"
			}
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": 200, "data": clips})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	result, err := s.Generate(context.Background(), sunoTestDoc())
	test.HandleErr(err, t)
	assert.True(t, polls >= 2)
	assert.Equal(t, 1, len(result.Songs))
	assert.Equal(t, "clip-1", result.Songs[0].SongID)
	assert.Equal(t, "https://cdn.example.com/clip-1.mp3", result.Songs[0].AudioURL)
	assert.Equal(t, "electronic", result.Songs[0].Metadata.Genre)
}

func TestSunoGenerateDirectClipsCapped(t *testing.T) {
	s := newStubSuno(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 200,
			"id":   "gen-7",
			"clips": []map[string]interface{}{
				{"id": "a", "audio_url": "https://cdn.example.com/a.mp3"},
				{"id": "b", "audio_url": "https://cdn.example.com/b.mp3"},
				{"id": "c", "audio_url": "https://cdn.example.com/c.mp3"},
			},
		})
	})

	result, err := s.Generate(context.Background(), sunoTestDoc())
	test.HandleErr(err, t)
	assert.Equal(t, 2, len(result.Songs))
	assert.Equal(t, "gen-7", result.GenerationID)
}

func TestSunoGenerateFillsDefaults(t *testing.T) {
	s := newStubSuno(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 200,
			"clips": []map[string]interface{}{
				{"id": "a", "audio_url": "https://cdn.example.com/a.mp3"},
			},
		})
	})

	result, err := s.Generate(context.Background(), sunoTestDoc())
	test.HandleErr(err, t)

	song := result.Songs[0]
	assert.Equal(t, "Song 1", song.Title)
	assert.Equal(t, "complete", song.Status)
	assert.Equal(t, result.TagsUsed, song.Tags)
	assert.True(t, song.CreatedAt != "")
}

func TestSunoGeneratePollTimeout(t *testing.T) {
	s := newStubSuno(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/generate":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"code": 200,
				"data": map[string]string{"taskId": "task-stuck"},
			})
		default:
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"code": 200, "data": []interface{}{}})
		}
	})

	_, err := s.Generate(context.Background(), sunoTestDoc())
	assert.Error(t, err)
}

func TestSunoGenerateRequiresAPIKey(t *testing.T) {
	s := services.NewSunoService(&services.SunoOptions{BaseURL: "http://localhost:0"})
	_, err := s.Generate(context.Background(), sunoTestDoc())
	assert.Error(t, err)
}
