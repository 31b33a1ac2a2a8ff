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
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quickmv/quick-music-videos/internal/core/services"
	test "github.com/quickmv/quick-music-videos/internal/testutil"
	"github.com/zeebo/assert"
)

func newStubCompositor(t *testing.T, handler http.HandlerFunc) *services.CompositorService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s := services.NewCompositorService(server.URL, 24, 5, 5, 1)
	s.PollDelay = 10 * time.Millisecond
	return s
}

func compositorTestJob() *services.CompositeJob {
	return &services.CompositeJob{
		SessionID:    "session-c",
		AudioGCSURI:  "gs://bucket/music/session-c/song_1.mp3",
		ImageURLs:    []string{"https://im.example.com/1.jpg", "https://im.example.com/2.jpg"},
		OutputGCSURI: "gs://bucket/videos/session-c/video_session-c_1.mp4",
	}
}

func TestCompositorSubmitAndPoll(t *testing.T) {
	polls := 0
	s := newStubCompositor(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/jobs":
			var job services.CompositeJob
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&job))
			assert.Equal(t, "session-c", job.SessionID)
			assert.Equal(t, 24, job.FPS)
			w.WriteHeader(http.StatusAccepted)
			_ = json.NewEncoder(w).Encode(map[string]string{"job_id": "job-1"})
		case r.Method == http.MethodGet && r.URL.Path == "/jobs/job-1":
			polls++
			status := "processing"
			if polls > 1 {
				status = "completed"
			}
			_ = json.NewEncoder(w).Encode(services.CompositeResult{
				JobID:      "job-1",
				Status:     status,
				Duration:   31.5,
				Tempo:      160,
				ImagesUsed: 2,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	result, err := s.Compose(context.Background(), compositorTestJob())
	test.HandleErr(err, t)
	assert.True(t, polls >= 2)
	assert.Equal(t, 31.5, result.Duration)
	assert.Equal(t, 160.0, result.Tempo)
}

func TestCompositorJobFailure(t *testing.T) {
	s := newStubCompositor(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_ = json.NewEncoder(w).Encode(map[string]string{"job_id": "job-2"})
			return
		}
		_ = json.NewEncoder(w).Encode(services.CompositeResult{
			JobID:  "job-2",
			Status: "failed",
			Error:  "audio download failed",
		})
	})

	_, err := s.Compose(context.Background(), compositorTestJob())
	assert.Error(t, err)
}

func TestCompositorRejectsMissingJobID(t *testing.T) {
	s := newStubCompositor(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{})
	})

	_, err := s.Compose(context.Background(), compositorTestJob())
	assert.Error(t, err)
}
