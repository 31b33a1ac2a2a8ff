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

// PreferenceLoader fetches the preference document for the session being
// processed. A missing or expired session fails the chain: there is
// nothing to generate without preferences.
type PreferenceLoader struct {
	cor.BaseCommand
	store *services.SessionStore
}

// NewPreferenceLoader creates the command. It reads the session id from
// the well-known parameter rather than the chain pipe so it can sit
// anywhere after the trigger reader.
func NewPreferenceLoader(name string, store *services.SessionStore) *PreferenceLoader {
	out := &PreferenceLoader{BaseCommand: *cor.NewBaseCommand(name), store: store}
	out.InputParamName = GetSessionIDParamName()
	return out
}

// Execute loads the preference document and stores it under the
// well-known key and the chain output.
func (c *PreferenceLoader) Execute(context cor.Context) {
	sessionID := context.Get(c.GetInputParam()).(string)

	doc, err := c.store.GetDocument(context.GetContext(), sessionID)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("no preferences found for session %s: %w", sessionID, err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetPreferenceDocParamName(), doc)
	context.Add(c.GetOutputParam(), doc)
}
