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

// minViableImages is the smallest set of images that still makes a video.
// Individual image failures are tolerated down to this floor.
const minViableImages = 4

// ImageGenerator renders every scene prompt through the image vendor. A
// song whose prompt set yields fewer than the viable minimum fails the
// chain; a partial slideshow is worse than a reported failure.
type ImageGenerator struct {
	cor.BaseCommand
	runware *services.RunwareService
}

// NewImageGenerator creates the command.
func NewImageGenerator(name string, runware *services.RunwareService) *ImageGenerator {
	return &ImageGenerator{BaseCommand: *cor.NewBaseCommand(name), runware: runware}
}

// Execute generates the image batches and keeps only the successful URLs.
func (c *ImageGenerator) Execute(context cor.Context) {
	promptSets := context.Get(c.GetInputParam()).([][]string)

	urlSets := make([][]string, len(promptSets))
	for i, prompts := range promptSets {
		urls := c.runware.GenerateBatch(context.GetContext(), prompts)

		valid := make([]string, 0, len(urls))
		for _, u := range urls {
			if u != "" {
				valid = append(valid, u)
			}
		}

		if len(valid) < minViableImages {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), fmt.Errorf("too few images generated: %d/%d", len(valid), len(prompts)))
			return
		}
		urlSets[i] = valid
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetImageURLsParamName(), urlSets)
	context.Add(c.GetOutputParam(), urlSets)
}
