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

// Package workflow_test runs the generation pipelines end to end over the
// in-process session backend, with the vendor APIs stubbed by local HTTP
// servers. The media storage service and the publisher are nil, which is
// the degraded mode the pipelines support.
package workflow_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quickmv/quick-music-videos/internal/core/cor"
	"github.com/quickmv/quick-music-videos/internal/core/model"
	"github.com/quickmv/quick-music-videos/internal/core/services"
	"github.com/quickmv/quick-music-videos/internal/core/workflow"
	test "github.com/quickmv/quick-music-videos/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func newSunoStub(t *testing.T) *services.SunoService {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"code": 200,
			"id":   "gen-1",
			"clips": []map[string]interface{}{
				{"id": "clip-1", "title": "Track One", "audio_url": "https://cdn.example.com/1.mp3", "duration": 30.0},
				{"id": "clip-2", "title": "Track Two", "audio_url": "https://cdn.example.com/2.mp3", "duration": 31.0},
			},
		})
	}))
	t.Cleanup(server.Close)

	return services.NewSunoService(&services.SunoOptions{BaseURL: server.URL, APIKey: "test-key"})
}

func runPipeline(pipeline cor.Command, trigger string) cor.Context {
	ctx, span := tracer.Start(context.Background(), pipeline.GetName())
	defer span.End()
	logger.InfoContext(ctx, "executing pipeline", "name", pipeline.GetName(), "trigger", trigger)

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(cor.CtxIn, trigger)
	pipeline.Execute(chainCtx)
	return chainCtx
}

func TestMusicGenerationWorkflow(t *testing.T) {
	ctx := context.Background()
	config := test.GetConfig()

	backend := services.NewMemoryBackend()
	store := services.NewSessionStore(backend, time.Minute)
	tracker := services.NewPhaseTracker(backend, time.Minute, time.Minute)

	doc := services.NewPreferenceProcessor().Process(test.GetTestPreferenceForm(), "wf-music-1")
	test.HandleErr(store.StorePreferences(ctx, "wf-music-1", doc), t)

	pipeline := workflow.NewMusicGenerationPipeline(config, store, tracker, newSunoStub(t), nil, nil)
	chainCtx := runPipeline(pipeline, "wf-music-1")
	assert.False(t, chainCtx.HasErrors())

	status, err := tracker.GetStatus(ctx, "wf-music-1", model.PhaseMusic)
	test.HandleErr(err, t)
	assert.Equal(t, model.StatusCompleted, status.Status)
	assert.Equal(t, 100, status.Progress)
	assert.Equal(t, "Successfully generated and stored 2 songs", status.Message)

	results, err := tracker.GetMusicResults(ctx, "wf-music-1")
	test.HandleErr(err, t)
	assert.True(t, results.Success)
	assert.Equal(t, 2, results.TotalSongs)
	assert.Equal(t, model.PhaseMusic, results.Phase)
	assert.Equal(t, "gen-1", results.GenerationID)
	// No storage service is wired, so the vendor URL is kept.
	assert.Equal(t, "https://cdn.example.com/1.mp3", results.Songs[0].AudioURL)
	assert.Equal(t, "", results.Songs[0].GCSPath)
}

func TestMusicGenerationWorkflowMissingSession(t *testing.T) {
	ctx := context.Background()
	config := test.GetConfig()

	backend := services.NewMemoryBackend()
	store := services.NewSessionStore(backend, time.Minute)
	tracker := services.NewPhaseTracker(backend, time.Minute, time.Minute)

	pipeline := workflow.NewMusicGenerationPipeline(config, store, tracker, newSunoStub(t), nil, nil)
	chainCtx := runPipeline(pipeline, "wf-music-gone")
	assert.True(t, chainCtx.HasErrors())

	status, err := tracker.GetStatus(ctx, "wf-music-gone", model.PhaseMusic)
	test.HandleErr(err, t)
	assert.Equal(t, model.StatusFailed, status.Status)
	assert.True(t, status.Error != "")
}

func TestMusicGenerationWorkflowVendorFailure(t *testing.T) {
	ctx := context.Background()
	config := test.GetConfig()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)
	suno := services.NewSunoService(&services.SunoOptions{BaseURL: server.URL, APIKey: "test-key"})

	backend := services.NewMemoryBackend()
	store := services.NewSessionStore(backend, time.Minute)
	tracker := services.NewPhaseTracker(backend, time.Minute, time.Minute)

	doc := services.NewPreferenceProcessor().Process(test.GetTestPreferenceForm(), "wf-music-2")
	test.HandleErr(store.StorePreferences(ctx, "wf-music-2", doc), t)

	pipeline := workflow.NewMusicGenerationPipeline(config, store, tracker, suno, nil, nil)
	chainCtx := runPipeline(pipeline, "wf-music-2")
	assert.True(t, chainCtx.HasErrors())

	status, err := tracker.GetStatus(ctx, "wf-music-2", model.PhaseMusic)
	test.HandleErr(err, t)
	assert.Equal(t, model.StatusFailed, status.Status)
}
