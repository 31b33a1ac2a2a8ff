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

// This file defines the client for the Runware image generation API. Image
// batches are generated with a worker pool so a slideshow's worth of images
// is produced concurrently instead of one request at a time. A failed image
// yields an empty slot in the result slice rather than failing the batch;
// the caller decides how many valid images it needs.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RunwareService generates images over the Runware REST API.
type RunwareService struct {
	BaseURL         string
	APIKey          string
	Model           string
	Width           int
	Height          int
	NumberOfWorkers int
	HTTPClient      *http.Client
}

// NewRunwareService creates the client. Width and height default to square
// 1024 output, workers to four.
func NewRunwareService(baseURL string, apiKey string, model string, width int, height int, workers int) *RunwareService {
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 1024
	}
	if workers <= 0 {
		workers = 4
	}
	return &RunwareService{
		BaseURL:         baseURL,
		APIKey:          apiKey,
		Model:           model,
		Width:           width,
		Height:          height,
		NumberOfWorkers: workers,
		HTTPClient:      &http.Client{Timeout: 2 * time.Minute},
	}
}

type runwareTask struct {
	TaskType       string `json:"taskType"`
	TaskUUID       string `json:"taskUUID"`
	PositivePrompt string `json:"positivePrompt"`
	Model          string `json:"model"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	NumberResults  int    `json:"numberResults"`
}

type runwareResponse struct {
	Data []struct {
		TaskType string `json:"taskType"`
		TaskUUID string `json:"taskUUID"`
		ImageURL string `json:"imageURL"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// GenerateImage produces one image for a prompt and returns its URL.
func (s *RunwareService) GenerateImage(ctx context.Context, prompt string) (string, error) {
	task := []runwareTask{{
		TaskType:       "imageInference",
		TaskUUID:       uuid.NewString(),
		PositivePrompt: prompt,
		Model:          s.Model,
		Width:          s.Width,
		Height:         s.Height,
		NumberResults:  1,
	}}

	body, err := json.Marshal(task)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("image API error: %d - %s", resp.StatusCode, string(text))
	}

	var parsed runwareResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Errors) > 0 {
		return "", fmt.Errorf("image API error: %s", parsed.Errors[0].Message)
	}
	for _, item := range parsed.Data {
		if item.ImageURL != "" {
			return item.ImageURL, nil
		}
	}
	return "", fmt.Errorf("no images generated")
}

type imageJob struct {
	index  int
	prompt string
}

type imageResult struct {
	index int
	url   string
	err   error
}

// GenerateBatch produces one image per prompt using the worker pool. The
// returned slice is positionally aligned with the prompts; a failed image
// leaves an empty string at its index.
func (s *RunwareService) GenerateBatch(ctx context.Context, prompts []string) []string {
	var wg sync.WaitGroup
	jobs := make(chan *imageJob, len(prompts))
	results := make(chan *imageResult, len(prompts))

	for w := 0; w < s.NumberOfWorkers; w++ {
		wg.Add(1)
		go s.imageWorker(ctx, jobs, results, &wg)
	}

	for i, prompt := range prompts {
		jobs <- &imageJob{index: i, prompt: prompt}
	}
	close(jobs)
	wg.Wait()
	close(results)

	urls := make([]string, len(prompts))
	for r := range results {
		if r.err != nil {
			slog.Error("image generation failed", "index", r.index, "error", r.err)
			continue
		}
		urls[r.index] = r.url
	}
	return urls
}

func (s *RunwareService) imageWorker(ctx context.Context, jobs <-chan *imageJob, results chan<- *imageResult, wg *sync.WaitGroup) {
	defer wg.Done()
	for j := range jobs {
		url, err := s.GenerateImage(ctx, j.prompt)
		results <- &imageResult{index: j.index, url: url, err: err}
	}
}
