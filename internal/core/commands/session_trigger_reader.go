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

// This file defines the entry command of every phase workflow. A phase is
// triggered by a message on a Redis channel whose payload names the
// session to process, either as a bare session id or as a JSON object with
// a session_id field. This command normalizes both forms.
package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/quickmv/quick-music-videos/internal/core/cor"
)

// SessionTriggerReader extracts the session id from a phase trigger
// message and publishes it into the context under the well-known key.
type SessionTriggerReader struct {
	cor.BaseCommand
}

// NewSessionTriggerReader creates the command.
func NewSessionTriggerReader(name string) *SessionTriggerReader {
	return &SessionTriggerReader{BaseCommand: *cor.NewBaseCommand(name)}
}

// Execute parses the trigger payload. JSON payloads must carry a non-empty
// session_id; anything else is taken as a bare session id.
func (c *SessionTriggerReader) Execute(context cor.Context) {
	in := context.Get(c.GetInputParam()).(string)

	sessionID := strings.TrimSpace(in)
	if strings.HasPrefix(sessionID, "{") {
		var payload struct {
			SessionID string `json:"session_id"`
		}
		if err := json.Unmarshal([]byte(in), &payload); err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("failed to unmarshal trigger message: %w", err))
			return
		}
		sessionID = payload.SessionID
	}

	if sessionID == "" {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("trigger message carries no session id"))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetSessionIDParamName(), sessionID)
	context.Add(c.GetOutputParam(), sessionID)
}
