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

package commands

import (
	"github.com/quickmv/quick-music-videos/internal/core/cor"
	"github.com/quickmv/quick-music-videos/internal/core/services"
)

// StatusMarker writes a fixed phase status record when it runs. Workflows
// place one at the front of the chain so clients polling the phase see
// "processing" as soon as the trigger arrives. A failed status write is
// logged by the tracker but does not fail the chain; the work itself
// matters more than the progress report.
type StatusMarker struct {
	cor.BaseCommand
	tracker  *services.PhaseTracker
	phase    int
	status   string
	progress int
	message  string
}

// NewStatusMarker creates the command with the record it will write.
func NewStatusMarker(name string, tracker *services.PhaseTracker, phase int, status string, progress int, message string) *StatusMarker {
	return &StatusMarker{
		BaseCommand: *cor.NewBaseCommand(name),
		tracker:     tracker,
		phase:       phase,
		status:      status,
		progress:    progress,
		message:     message,
	}
}

// IsExecutable requires the session id to be resolved already.
func (c *StatusMarker) IsExecutable(context cor.Context) bool {
	return context != nil && context.GetContext() != nil && context.Get(GetSessionIDParamName()) != nil
}

// Execute writes the status record and passes its input through untouched.
func (c *StatusMarker) Execute(context cor.Context) {
	sessionID := context.Get(GetSessionIDParamName()).(string)

	_ = c.tracker.SetStatus(context.GetContext(), sessionID, c.phase, c.status, c.progress, c.message, "")

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), context.Get(c.GetInputParam()))
}
