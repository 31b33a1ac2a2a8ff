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

// Package main contains the setup and initialization logic for the web
// server. This file creates the centralized state manager holding the
// shared dependencies: configuration, cloud clients, the session store
// and phase tracker, and the preference and prompt services.
//
// The session backend is chosen at startup: Redis when the configured
// instance answers a ping, otherwise an in-process store so the
// application still works on a laptop with no Redis running.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/quickmv/quick-music-videos/internal/api"
	"github.com/quickmv/quick-music-videos/internal/cloud"
	"github.com/quickmv/quick-music-videos/internal/core/services"
)

// StateManager holds all the shared dependencies for the application,
// acting as a centralized container for service clients and configuration.
type StateManager struct {
	config    *cloud.Config
	cloud     *cloud.ServiceClients
	store     *services.SessionStore
	tracker   *services.PhaseTracker
	validator *services.PreferenceValidator
	processor *services.PreferenceProcessor
	prompts   *services.PromptService
	media     *services.MediaStorageService
	publisher cloud.Publisher
}

var state = &StateManager{}

// SetupOS sets the environment variables the configuration loader uses to
// find the TOML files. The runtime defaults to "local" so a developer
// checkout picks up the .env.local.toml overrides.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig provides a singleton instance of the application
// configuration, loading it from the TOML files on first use.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// sessionBackend picks the storage backend for sessions and phase state.
// Redis when connected, the in-process fallback otherwise.
func sessionBackend(clients *cloud.ServiceClients) services.SessionBackend {
	if clients.RedisClient != nil {
		return services.NewRedisBackend(clients.RedisClient)
	}
	slog.Warn("redis unavailable, using in-process session storage")
	return services.NewMemoryBackend()
}

// InitState initializes the application state: cloud clients, the session
// store and phase tracker on the chosen backend, the preference pipeline,
// and the vendor-facing services.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	backend := sessionBackend(cloudClients)
	sessionTTL := time.Duration(config.Session.ExpirySeconds) * time.Second
	resultsTTL := time.Duration(config.Session.ResultsExpirySeconds) * time.Second

	state.store = services.NewSessionStore(backend, sessionTTL)
	state.tracker = services.NewPhaseTracker(backend, sessionTTL, resultsTTL)
	state.validator = services.NewPreferenceValidator()
	state.processor = services.NewPreferenceProcessor()
	state.prompts = services.NewPromptService(config.PromptTemplates, cloudClients.AgentModels["prompt-flash"])

	if cloudClients.StorageClient != nil {
		state.media = services.NewMediaStorageService(
			cloudClients.StorageClient,
			cloudClients.IAMClient,
			config.Application.SignerServiceAccountEmail,
			config.Storage.MediaBucket,
			nil)
	}

	if cloudClients.RedisClient != nil {
		state.publisher = cloud.NewRedisPublisher(cloudClients.RedisClient)
	}
}

// handlers assembles the HTTP layer from the initialized state.
func handlers() *api.Handlers {
	return &api.Handlers{
		Store:          state.store,
		Tracker:        state.tracker,
		Validator:      state.validator,
		Processor:      state.processor,
		Prompts:        state.prompts,
		Publisher:      state.publisher,
		Phase1Channel:  state.config.Channels["Phase1Completed"].Name,
		RedisConnected: state.cloud.RedisClient != nil,
	}
}
