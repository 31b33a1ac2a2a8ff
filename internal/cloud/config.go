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

// Package cloud holds the application configuration structures and the
// clients for the external services the application depends on: the Redis
// cache that backs sessions and worker hand-off, Google Cloud Storage for
// generated media, and Vertex AI for prompt work.
//
// Configuration is loaded from TOML files (see utils.go). Secrets such as
// vendor API keys are never stored in the TOML files; they come from the
// environment variables named below.
package cloud

import "google.golang.org/genai"

// Environment variables carrying vendor credentials.
const (
	EnvSunoAPIKey    = "APIBOX_KEY"
	EnvRunwareAPIKey = "RUNWARE_API_KEY"
)

// DefaultSafetySettings configures the generative model to pass all content
// categories through unblocked. Prompt enhancement operates on trusted form
// input, so restrictive thresholds only produce spurious refusals.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// SessionConfig controls the session store and phase tracker lifetimes.
type SessionConfig struct {
	RedisURL             string `toml:"redis_url"`              // Connection URL for the cache service (e.g., "redis://localhost:6379").
	ExpirySeconds        int    `toml:"expiry_seconds"`         // Session and status record TTL. Default 3600.
	ResultsExpirySeconds int    `toml:"results_expiry_seconds"` // Phase result payload TTL. Default 86400.
}

// Channel names one pub/sub channel used for worker hand-off.
type Channel struct {
	Name string `toml:"name"`
}

// Storage names the object storage bucket for generated songs and videos.
type Storage struct {
	MediaBucket string `toml:"media_bucket"`
}

// SunoConfig configures the music generation API client.
type SunoConfig struct {
	BaseURL          string `toml:"base_url"`
	Model            string `toml:"model"`
	CallbackURL      string `toml:"callback_url"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	MaxPollAttempts  int    `toml:"max_poll_attempts"`
	PollDelaySeconds int    `toml:"poll_delay_seconds"`
}

// RunwareConfig configures the image generation API client.
type RunwareConfig struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
}

// CompositorConfig configures the video compositing service client. The
// compositor owns beat analysis and encoding; this application only submits
// jobs and polls.
type CompositorConfig struct {
	BaseURL          string `toml:"base_url"`
	FPS              int    `toml:"fps"`
	TimeoutSeconds   int    `toml:"timeout_seconds"`
	MaxPollAttempts  int    `toml:"max_poll_attempts"`
	PollDelaySeconds int    `toml:"poll_delay_seconds"`
}

// PromptTemplates holds the Go templates used to build generative prompts.
type PromptTemplates struct {
	ImageEnhance     string `toml:"image_enhance"`
	ImageAlternative string `toml:"image_alternative"`
	ImageSuggestions string `toml:"image_suggestions"`
}

// VertexAiLLMModel configures one Vertex AI large language model.
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`
	SystemInstructions string  `toml:"system_instructions"`
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"`
	RateLimit          int     `toml:"rate_limit"` // Requests per second.
}

// Config is the root configuration container, loaded from TOML files.
type Config struct {
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"`
		GoogleLocation            string `toml:"location"`
		Port                      int    `toml:"port"`
		ThreadPoolSize            int    `toml:"thread_pool_size"` // Worker pool size for parallel image generation.
		SignerServiceAccountEmail string `toml:"signer_service_account_email"`
	} `toml:"application"`
	Session         SessionConfig               `toml:"session"`
	Storage         Storage                     `toml:"storage"`
	Channels        map[string]Channel          `toml:"channels"` // Keyed by a logical name (e.g., "Phase1Completed").
	Suno            SunoConfig                  `toml:"suno"`
	Runware         RunwareConfig               `toml:"runware"`
	Compositor      CompositorConfig            `toml:"compositor"`
	PromptTemplates PromptTemplates             `toml:"prompt_templates"`
	AgentModels     map[string]VertexAiLLMModel `toml:"agent_models"` // Keyed by a logical name (e.g., "prompt-flash").
}

// NewConfig creates a Config with its maps initialized so the TOML decoder
// can populate them without nil checks.
func NewConfig() *Config {
	return &Config{
		Channels:    make(map[string]Channel),
		AgentModels: make(map[string]VertexAiLLMModel),
	}
}
