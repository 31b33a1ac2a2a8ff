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

// This file wires the generation pipelines to the channel listeners.

package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/quickmv/quick-music-videos/internal/cloud"
	"github.com/quickmv/quick-music-videos/internal/core/services"
	"github.com/quickmv/quick-music-videos/internal/core/workflow"
)

// SetupListeners builds the shared services, attaches the music pipeline
// to the preference-saved channel and the video pipeline to the music-done
// channel, and starts both listeners.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, ctx context.Context) {
	backend := services.NewRedisBackend(cloudClients.RedisClient)
	sessionTTL := time.Duration(config.Session.ExpirySeconds) * time.Second
	resultsTTL := time.Duration(config.Session.ResultsExpirySeconds) * time.Second

	store := services.NewSessionStore(backend, sessionTTL)
	tracker := services.NewPhaseTracker(backend, sessionTTL, resultsTTL)
	publisher := cloud.NewRedisPublisher(cloudClients.RedisClient)

	var media *services.MediaStorageService
	if cloudClients.StorageClient != nil {
		media = services.NewMediaStorageService(
			cloudClients.StorageClient,
			cloudClients.IAMClient,
			config.Application.SignerServiceAccountEmail,
			config.Storage.MediaBucket,
			nil)
	} else {
		slog.Warn("object storage unavailable, generated media stays on vendor URLs")
	}

	suno := services.NewSunoService(&services.SunoOptions{
		BaseURL:          config.Suno.BaseURL,
		APIKey:           os.Getenv(cloud.EnvSunoAPIKey),
		Model:            config.Suno.Model,
		CallbackURL:      config.Suno.CallbackURL,
		TimeoutSeconds:   config.Suno.TimeoutSeconds,
		MaxPollAttempts:  config.Suno.MaxPollAttempts,
		PollDelaySeconds: config.Suno.PollDelaySeconds,
	})

	runware := services.NewRunwareService(
		config.Runware.BaseURL,
		os.Getenv(cloud.EnvRunwareAPIKey),
		config.Runware.Model,
		config.Runware.Width,
		config.Runware.Height,
		config.Application.ThreadPoolSize)

	compositor := services.NewCompositorService(
		config.Compositor.BaseURL,
		config.Compositor.FPS,
		config.Compositor.TimeoutSeconds,
		config.Compositor.MaxPollAttempts,
		config.Compositor.PollDelaySeconds)

	prompts := services.NewPromptService(config.PromptTemplates, cloudClients.AgentModels["prompt-flash"])

	musicPipeline := workflow.NewMusicGenerationPipeline(config, store, tracker, suno, media, publisher)
	cloudClients.RedisListeners["Phase1Completed"].SetCommand(musicPipeline)
	cloudClients.RedisListeners["Phase1Completed"].Listen(ctx)

	videoPipeline := workflow.NewVideoGenerationPipeline(config, store, tracker, prompts, runware, compositor, media, publisher)
	cloudClients.RedisListeners["Phase2Completed"].SetCommand(videoPipeline)
	cloudClients.RedisListeners["Phase2Completed"].Listen(ctx)
}
