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

// This file implements the video generation workflow, triggered when the
// music phase completes for a session.
package workflow

import (
	"errors"
	"log/slog"

	"github.com/quickmv/quick-music-videos/internal/cloud"
	"github.com/quickmv/quick-music-videos/internal/core/commands"
	"github.com/quickmv/quick-music-videos/internal/core/cor"
	"github.com/quickmv/quick-music-videos/internal/core/model"
	"github.com/quickmv/quick-music-videos/internal/core/services"
)

// VideoGenerationWorkflow turns the stored songs into beat-timed
// slideshow videos: it builds scene prompts, generates the images,
// submits one compositing job per song, records the phase results, and
// announces completion.
type VideoGenerationWorkflow struct {
	cor.BaseCommand
	config     *cloud.Config
	store      *services.SessionStore
	tracker    *services.PhaseTracker
	prompts    *services.PromptService
	runware    *services.RunwareService
	compositor *services.CompositorService
	media      *services.MediaStorageService
	publisher  cloud.Publisher
	chain      cor.Chain
}

// Execute runs the chain and marks the phase failed when any command
// recorded an error.
func (m *VideoGenerationWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)

	if context.HasErrors() {
		m.markFailed(context)
	}
}

func (m *VideoGenerationWorkflow) markFailed(context cor.Context) {
	sessionID, ok := context.Get(commands.GetSessionIDParamName()).(string)
	if !ok || sessionID == "" {
		slog.Error("video workflow failed before a session id was resolved", "errors", context.GetErrors())
		return
	}

	errs := make([]error, 0, len(context.GetErrors()))
	for _, e := range context.GetErrors() {
		errs = append(errs, e)
	}
	errText := errors.Join(errs...).Error()

	_ = m.tracker.SetStatus(context.GetContext(), sessionID, model.PhaseVideo, model.StatusFailed, 0, "", errText)
}

func (m *VideoGenerationWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())

	out.AddCommand(commands.NewSessionTriggerReader("video-trigger-reader"))
	out.AddCommand(commands.NewStatusMarker("video-status-processing", m.tracker, model.PhaseVideo, model.StatusProcessing, 0, "Starting video generation"))
	out.AddCommand(commands.NewPreferenceLoader("video-preference-loader", m.store))
	out.AddCommand(commands.NewMusicResultsLoader("load-music-results", m.tracker))
	out.AddCommand(commands.NewImagePromptBuilder("build-image-prompts", m.prompts))
	out.AddCommand(commands.NewImageGenerator("generate-images", m.runware))
	out.AddCommand(commands.NewVideoCompositor("compose-videos", m.compositor, m.tracker, m.media))
	out.AddCommand(commands.NewVideoResultsWriter("write-video-results", m.tracker, m.publisher, m.config.Channels["Phase3Completed"].Name))

	m.chain = out
}

// NewVideoGenerationPipeline builds the video workflow with its
// dependencies injected.
func NewVideoGenerationPipeline(
	config *cloud.Config,
	store *services.SessionStore,
	tracker *services.PhaseTracker,
	prompts *services.PromptService,
	runware *services.RunwareService,
	compositor *services.CompositorService,
	media *services.MediaStorageService,
	publisher cloud.Publisher) *VideoGenerationWorkflow {

	pipeline := &VideoGenerationWorkflow{
		BaseCommand: *cor.NewBaseCommand("video-generation-pipeline"),
		config:      config,
		store:       store,
		tracker:     tracker,
		prompts:     prompts,
		runware:     runware,
		compositor:  compositor,
		media:       media,
		publisher:   publisher,
	}
	pipeline.initializeChain()
	return pipeline
}
