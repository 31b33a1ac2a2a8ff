// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is the entry point for the background worker.
//
// The worker subscribes to the phase hand-off channels on Redis and runs
// the generation pipelines: the music workflow when preferences are saved,
// and the video workflow when the music phase completes. It shares the
// session store and phase tracker with the web server through Redis, so
// status written here is what the server's polling endpoints report.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/quickmv/quick-music-videos/internal/cloud"
	"github.com/quickmv/quick-music-videos/internal/telemetry"
)

// GetConfig loads the worker configuration from the same TOML files the
// server uses.
func GetConfig() *cloud.Config {
	if err := os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
		log.Fatalf("failed to setup os environment: %v\n", err)
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		if err := os.Setenv(cloud.EnvConfigRuntime, "local"); err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
	}
	config := cloud.NewConfig()
	cloud.LoadConfig(&config)
	return config
}

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Warn("telemetry export disabled", "error", err)
	} else {
		defer func() {
			if err := shutdownTelemetry(context.Background()); err != nil {
				slog.Error("telemetry shutdown failed", "error", err)
			}
		}()
		slog.Info("Tracing initialized")
	}

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		log.Fatalf("failed to create service clients: %v\n", err)
	}
	defer cloudClients.Close()

	// The worker is driven entirely by channel messages. Without Redis
	// there is nothing to subscribe to.
	if cloudClients.RedisClient == nil {
		log.Fatal("worker requires a reachable redis instance")
	}

	SetupListeners(config, cloudClients, ctx)
	slog.Info("Worker listening", "channels", len(cloudClients.RedisListeners))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Worker ...")
}
