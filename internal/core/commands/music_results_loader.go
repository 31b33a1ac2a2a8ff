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
	"fmt"

	"github.com/quickmv/quick-music-videos/internal/core/cor"
	"github.com/quickmv/quick-music-videos/internal/core/services"
)

// MusicResultsLoader fetches the stored music phase results for the
// session. The video phase cannot start without them: no songs means
// nothing to score the slideshow against.
type MusicResultsLoader struct {
	cor.BaseCommand
	tracker *services.PhaseTracker
}

// NewMusicResultsLoader creates the command. It reads the session id from
// the well-known parameter.
func NewMusicResultsLoader(name string, tracker *services.PhaseTracker) *MusicResultsLoader {
	out := &MusicResultsLoader{BaseCommand: *cor.NewBaseCommand(name), tracker: tracker}
	out.InputParamName = GetSessionIDParamName()
	return out
}

// Execute loads the results and fails the chain when they are missing or
// empty.
func (c *MusicResultsLoader) Execute(context cor.Context) {
	sessionID := context.Get(c.GetInputParam()).(string)

	results, err := c.tracker.GetMusicResults(context.GetContext(), sessionID)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("no music results found for session %s: %w", sessionID, err))
		return
	}
	if len(results.Songs) == 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("music results for session %s contain no songs", sessionID))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetMusicResultsParamName(), results)
	context.Add(c.GetOutputParam(), results)
}
