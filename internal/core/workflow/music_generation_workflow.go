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

// Package workflow combines commands into the phase pipelines the workers
// run. This file implements the music generation workflow, triggered when
// a session's preferences are saved.
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

// MusicGenerationWorkflow turns a saved preference document into stored
// songs: it loads the preferences, generates songs through the music
// vendor, copies them into the media bucket, records the phase results,
// and hands off to the video phase.
type MusicGenerationWorkflow struct {
	cor.BaseCommand
	config    *cloud.Config
	store     *services.SessionStore
	tracker   *services.PhaseTracker
	suno      *services.SunoService
	media     *services.MediaStorageService
	publisher cloud.Publisher
	chain     cor.Chain
}

// Execute runs the chain. When any command fails, the phase is marked
// failed with the joined error text so polling clients see the failure
// rather than a stuck "processing".
func (m *MusicGenerationWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)

	if context.HasErrors() {
		m.markFailed(context)
	}
}

func (m *MusicGenerationWorkflow) markFailed(context cor.Context) {
	sessionID, ok := context.Get(commands.GetSessionIDParamName()).(string)
	if !ok || sessionID == "" {
		slog.Error("music workflow failed before a session id was resolved", "errors", context.GetErrors())
		return
	}

	errs := make([]error, 0, len(context.GetErrors()))
	for _, e := range context.GetErrors() {
		errs = append(errs, e)
	}
	errText := errors.Join(errs...).Error()

	_ = m.tracker.SetStatus(context.GetContext(), sessionID, model.PhaseMusic, model.StatusFailed, 0, "", errText)
}

func (m *MusicGenerationWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())

	out.AddCommand(commands.NewSessionTriggerReader("music-trigger-reader"))
	out.AddCommand(commands.NewStatusMarker("music-status-processing", m.tracker, model.PhaseMusic, model.StatusProcessing, 0, "Starting music generation"))
	out.AddCommand(commands.NewPreferenceLoader("music-preference-loader", m.store))
	out.AddCommand(commands.NewMusicGenerator("generate-music", m.suno))
	out.AddCommand(commands.NewSongUploader("upload-songs", m.media))
	out.AddCommand(commands.NewMusicResultsWriter("write-music-results", m.tracker, m.publisher, m.config.Channels["Phase2Completed"].Name))

	m.chain = out
}

// NewMusicGenerationPipeline builds the music workflow with its
// dependencies injected. The media service and publisher may be nil in
// degraded modes; the affected commands degrade individually.
func NewMusicGenerationPipeline(
	config *cloud.Config,
	store *services.SessionStore,
	tracker *services.PhaseTracker,
	suno *services.SunoService,
	media *services.MediaStorageService,
	publisher cloud.Publisher) *MusicGenerationWorkflow {

	pipeline := &MusicGenerationWorkflow{
		BaseCommand: *cor.NewBaseCommand("music-generation-pipeline"),
		config:      config,
		store:       store,
		tracker:     tracker,
		suno:        suno,
		media:       media,
		publisher:   publisher,
	}
	pipeline.initializeChain()
	return pipeline
}
