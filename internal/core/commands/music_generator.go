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
	"github.com/quickmv/quick-music-videos/internal/core/model"
	"github.com/quickmv/quick-music-videos/internal/core/services"
)

// MusicGenerator submits the preference document to the music vendor and
// waits for the generated songs. This is the long pole of the music phase;
// the vendor call includes its own polling loop.
type MusicGenerator struct {
	cor.BaseCommand
	suno *services.SunoService
}

// NewMusicGenerator creates the command.
func NewMusicGenerator(name string, suno *services.SunoService) *MusicGenerator {
	return &MusicGenerator{BaseCommand: *cor.NewBaseCommand(name), suno: suno}
}

// Execute generates the songs. Zero songs back from the vendor is a
// failure; downstream commands need at least one to work with.
func (c *MusicGenerator) Execute(context cor.Context) {
	doc := context.Get(c.GetInputParam()).(*model.PreferenceDocument)

	result, err := c.suno.Generate(context.GetContext(), doc)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("music generation failed: %w", err))
		return
	}
	if len(result.Songs) == 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("music generation returned no songs"))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), result)
}
