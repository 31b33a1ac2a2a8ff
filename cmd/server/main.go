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

// Package main is the entry point for the music video backend server.
//
// This application runs a web server using the Gin framework. It provides
// a REST API for collecting user preferences, enhancing prompts through a
// generative model, and polling the status and results of the background
// music and video generation phases. The server is instrumented with
// OpenTelemetry for logging, tracing, and metrics.
//
// The generation phases themselves run in the worker binary (cmd/worker);
// this server triggers them by publishing the session id on the phase
// hand-off channel after preferences are saved.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/quickmv/quick-music-videos/internal/telemetry"
)

// main sets up logging, telemetry, configuration, and application state,
// then serves the API until an interrupt signal arrives.
func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	// Telemetry export needs a Google Cloud project. Without one the
	// server still runs, it just traces nowhere.
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

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()
	r.Use(otelgin.Middleware(config.Application.Name))

	// cors.Default() allows all origins, which suits the development
	// setup where the frontend is served from a different port.
	r.Use(cors.Default())

	apiGroup := r.Group("/api")
	handlers().Register(apiGroup)

	port := config.Application.Port
	if port == 0 {
		port = 8080
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen", "error", err)
		}
	}()
	slog.Info("Server Ready", "port", port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}

	log.Println("Server exiting")
}
