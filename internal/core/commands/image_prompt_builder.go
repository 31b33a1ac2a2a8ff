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
	"log/slog"

	"github.com/quickmv/quick-music-videos/internal/core/cor"
	"github.com/quickmv/quick-music-videos/internal/core/model"
	"github.com/quickmv/quick-music-videos/internal/core/services"
)

// defaultBasePrompt seeds the scene prompts when the user gave no image
// prompt of their own.
const defaultBasePrompt = "cinematic music video"

// minImagesPerVideo is the floor on scene count so short or slow songs
// still produce a watchable slideshow.
const minImagesPerVideo = 8

// shotVariations rotate through the scene prompts to vary composition.
var shotVariations = []string{"wide shot", "close-up", "medium shot"}

// ImagePromptBuilder produces the per-song scene prompt lists for image
// generation. When a prompt service with a live model is available the
// user's base prompt is enhanced once and reused for every song; a model
// failure falls back to the raw base prompt.
type ImagePromptBuilder struct {
	cor.BaseCommand
	prompts *services.PromptService
}

// NewImagePromptBuilder creates the command.
func NewImagePromptBuilder(name string, prompts *services.PromptService) *ImagePromptBuilder {
	return &ImagePromptBuilder{BaseCommand: *cor.NewBaseCommand(name), prompts: prompts}
}

// IsExecutable additionally requires the preference document.
func (c *ImagePromptBuilder) IsExecutable(context cor.Context) bool {
	return c.BaseCommand.IsExecutable(context) && context.Get(GetPreferenceDocParamName()) != nil
}

// Execute builds one prompt list per song. Scene count is the preference
// image count with a floor of eight, and every third scene rotates the
// shot type.
func (c *ImagePromptBuilder) Execute(context cor.Context) {
	results := context.Get(c.GetInputParam()).(*model.MusicResults)
	doc := context.Get(GetPreferenceDocParamName()).(*model.PreferenceDocument)

	base := doc.Image.ImagePrompt
	if base == "" {
		base = defaultBasePrompt
	}

	if c.prompts != nil && c.prompts.Configured() {
		enhanced, err := c.prompts.EnhanceImagePrompt(context.GetContext(), base, doc)
		if err != nil {
			slog.Warn("prompt enhancement failed, using base prompt", "error", err)
		} else if enhanced.EnhancedPrompt != "" {
			base = enhanced.EnhancedPrompt
		}
	}

	count := doc.Image.ImagesNeeded
	if count < minImagesPerVideo {
		count = minImagesPerVideo
	}

	promptSets := make([][]string, len(results.Songs))
	for i := range results.Songs {
		prompts := make([]string, 0, count)
		for j := 0; j < count; j++ {
			scene := fmt.Sprintf("%s, scene %d, high quality, 4K, professional, %s", base, j+1, shotVariations[j%len(shotVariations)])
			prompts = append(prompts, scene)
		}
		promptSets[i] = prompts
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetImagePromptsParamName(), promptSets)
	context.Add(c.GetOutputParam(), promptSets)
}
