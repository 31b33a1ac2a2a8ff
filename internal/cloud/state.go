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

// This file initializes and holds the clients for every external service
// the application talks to. It is a dependency injection container: one
// shared ServiceClients struct is created at startup and handed to the
// API handlers and worker workflows.
//
// Two of the clients are deliberately optional. Redis may be unreachable,
// in which case RedisClient is nil and the application runs in its
// degraded in-process mode. The generative AI client is only created when
// a Google project is configured; without it, prompt enhancement falls
// back to deterministic output.
package cloud

import (
	"context"
	"log/slog"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/storage"
	"github.com/redis/go-redis/v9"
	"google.golang.org/genai"
)

// ServiceClients is the container for all external service clients and the
// wrappers built on them.
type ServiceClients struct {
	RedisClient    *redis.Client                           // Shared Redis connection. Nil when Redis is unavailable.
	StorageClient  *storage.Client                         // Client for Google Cloud Storage.
	GenAIClient    *genai.Client                           // Client for Vertex AI. Nil when no project is configured.
	IAMClient      *credentials.IamCredentialsClient       // Client for IAM to sign GCS URLs.
	RedisListeners map[string]*RedisListener               // Active channel listeners, keyed by logical name from the config.
	AgentModels    map[string]*QuotaAwareGenerativeAIModel // Rate-limited LLM models, keyed by logical name.
}

// Close shuts down the client connections that support it.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
	if c.RedisClient != nil {
		_ = c.RedisClient.Close()
	}
}

// NewCloudServiceClients creates every client the configuration calls for.
// A Redis connection failure is not fatal: the client is dropped and the
// caller wires the in-process session backend instead. A storage or IAM
// client failure is fatal because generated media has nowhere to go
// without them.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	var redisClient *redis.Client
	opts, err := redis.ParseURL(config.Session.RedisURL)
	if err != nil {
		slog.Warn("invalid redis url, using in-process session storage", "url", config.Session.RedisURL, "error", err)
	} else {
		redisClient = redis.NewClient(opts)
		if pingErr := redisClient.Ping(ctx).Err(); pingErr != nil {
			slog.Warn("redis unreachable, using in-process session storage", "error", pingErr)
			_ = redisClient.Close()
			redisClient = nil
		}
	}

	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	iamClient, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		return nil, err
	}

	var gc *genai.Client
	if config.Application.GoogleProjectId != "" {
		gc, err = genai.NewClient(ctx, &genai.ClientConfig{
			Project:  config.Application.GoogleProjectId,
			Location: config.Application.GoogleLocation,
			Backend:  genai.BackendVertexAI,
		})
		if err != nil {
			slog.Warn("failed to create genai client, prompt enhancement will use fallbacks", "error", err)
			gc = nil
		}
	}

	// Listeners are created without commands; the workflow chains are
	// attached by the worker at startup. Without Redis there is nothing
	// to listen on.
	listeners := make(map[string]*RedisListener)
	if redisClient != nil {
		for key, channel := range config.Channels {
			listeners[key] = NewRedisListener(redisClient, channel.Name, nil)
		}
	}

	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	if gc != nil {
		for amKey, values := range config.AgentModels {
			model := &genai.GenerateContentConfig{
				Temperature:       genai.Ptr[float32](values.Temperature),
				TopP:              genai.Ptr[float32](values.TopP),
				TopK:              genai.Ptr[float32](values.TopK),
				MaxOutputTokens:   values.MaxTokens,
				SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}},
				SafetySettings:    DefaultSafetySettings,
				ResponseMIMEType:  values.OutputFormat,
				Tools:             []*genai.Tool{},
			}
			agentModels[amKey] = NewQuotaAwareModel(model, values.Model, gc.Models, values.RateLimit)
		}
	}

	cloud = &ServiceClients{
		RedisClient:    redisClient,
		StorageClient:  sc,
		GenAIClient:    gc,
		IAMClient:      iamClient,
		RedisListeners: listeners,
		AgentModels:    agentModels,
	}

	return cloud, nil
}
