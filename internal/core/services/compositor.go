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

// This file defines the client for the video compositing service. The
// compositor owns beat analysis and encoding: it pulls the song from the
// media bucket, times image cuts to the detected beats, and writes the
// finished video back to the bucket. This client only submits jobs and
// polls for completion.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// CompositorService submits compositing jobs and polls them to completion.
type CompositorService struct {
	BaseURL         string
	FPS             int
	HTTPClient      *http.Client
	MaxPollAttempts int
	PollDelay       time.Duration
}

// NewCompositorService creates the client from configuration values.
func NewCompositorService(baseURL string, fps int, timeoutSeconds int, maxPollAttempts int, pollDelaySeconds int) *CompositorService {
	if fps <= 0 {
		fps = 24
	}
	if timeoutSeconds <= 0 {
		timeoutSeconds = 60
	}
	if maxPollAttempts <= 0 {
		maxPollAttempts = 60
	}
	if pollDelaySeconds <= 0 {
		pollDelaySeconds = 5
	}
	return &CompositorService{
		BaseURL:         strings.TrimSuffix(baseURL, "/"),
		FPS:             fps,
		HTTPClient:      &http.Client{Timeout: time.Duration(timeoutSeconds) * time.Second},
		MaxPollAttempts: maxPollAttempts,
		PollDelay:       time.Duration(pollDelaySeconds) * time.Second,
	}
}

// CompositeJob describes one video to render.
type CompositeJob struct {
	SessionID    string   `json:"session_id"`
	AudioGCSURI  string   `json:"audio_gcs_uri"`
	ImageURLs    []string `json:"image_urls"`
	OutputGCSURI string   `json:"output_gcs_uri"`
	FPS          int      `json:"fps"`
}

// CompositeResult is the compositor's report for a finished job.
type CompositeResult struct {
	JobID      string  `json:"job_id"`
	Status     string  `json:"status"`
	Duration   float64 `json:"duration"`
	Tempo      float64 `json:"tempo"`
	ImagesUsed int     `json:"images_used"`
	Error      string  `json:"error,omitempty"`
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

// Compose submits a job and blocks until the compositor reports it done or
// failed, or the poll budget runs out.
func (s *CompositorService) Compose(ctx context.Context, job *CompositeJob) (*CompositeResult, error) {
	if job.FPS <= 0 {
		job.FPS = s.FPS
	}

	body, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/jobs", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("compositor error: %d - %s", resp.StatusCode, string(text))
	}

	var submitted submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitted); err != nil {
		return nil, err
	}
	if submitted.JobID == "" {
		return nil, fmt.Errorf("compositor returned no job id")
	}

	return s.waitForJob(ctx, submitted.JobID)
}

func (s *CompositorService) waitForJob(ctx context.Context, jobID string) (*CompositeResult, error) {
	pollURL := fmt.Sprintf("%s/jobs/%s", s.BaseURL, jobID)

	for attempt := 0; attempt < s.MaxPollAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pollURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err := s.HTTPClient.Do(req)
		if err == nil && resp.StatusCode == http.StatusOK {
			var result CompositeResult
			decodeErr := json.NewDecoder(resp.Body).Decode(&result)
			_ = resp.Body.Close()
			if decodeErr == nil {
				switch result.Status {
				case "completed":
					return &result, nil
				case "failed":
					return nil, fmt.Errorf("compositing job %s failed: %s", jobID, result.Error)
				}
			}
		} else if resp != nil {
			_ = resp.Body.Close()
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(s.PollDelay):
		}
	}

	return nil, fmt.Errorf("compositing job %s timed out after %d poll attempts", jobID, s.MaxPollAttempts)
}
