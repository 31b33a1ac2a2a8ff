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

package services_test

import (
	"testing"

	"github.com/quickmv/quick-music-videos/internal/core/services"
	test "github.com/quickmv/quick-music-videos/internal/testutil"
	"github.com/zeebo/assert"
)

func TestBPMForTempo(t *testing.T) {
	cases := map[string]int{
		"slow":      80,
		"medium":    120,
		"fast":      160,
		"very_fast": 200,
		"waltz":     services.DefaultBPM,
		"":          services.DefaultBPM,
	}
	for tempo, want := range cases {
		assert.Equal(t, want, services.BPMForTempo(tempo))
	}
}

func TestProcessorDerivesImagePacing(t *testing.T) {
	p := services.NewPreferenceProcessor()
	doc := p.Process(test.GetTestPreferenceForm(), "s1")

	// 30 seconds at fast tempo (160 BPM): one image per beat-second.
	assert.Equal(t, 160, doc.Image.BPM)
	assert.Equal(t, 80, doc.Image.ImagesNeeded)
	assert.Equal(t, 60.0/160.0, doc.Image.SecondsPerImage)
	assert.Equal(t, "s1", doc.SessionID)
}

func TestProcessorDefaults(t *testing.T) {
	p := services.NewPreferenceProcessor()
	doc := p.Process(map[string]string{}, "s2")

	assert.Equal(t, "pop", doc.Music.Genre)
	assert.Equal(t, "upbeat", doc.Music.Mood)
	assert.Equal(t, "medium", doc.Music.Tempo)
	assert.Equal(t, 60, doc.Music.Duration)
	assert.Equal(t, "none", doc.Music.VocalStyle)
	assert.Equal(t, "medium", doc.Music.EnergyLevel)

	assert.Equal(t, "modern", doc.Image.VisualStyle)
	assert.Equal(t, "vibrant", doc.Image.ColorScheme)
	assert.Equal(t, "16:9", doc.Image.AspectRatio)
	assert.Equal(t, "1080p", doc.Image.Resolution)
	assert.Equal(t, 120, doc.Image.ImagesNeeded)

	assert.Equal(t, "general", doc.General.TargetAudience)
	assert.Equal(t, "personal", doc.General.UsagePurpose)
}

func TestProcessorPresets(t *testing.T) {
	p := services.NewPreferenceProcessor()
	presets := p.Presets()

	assert.Equal(t, 4, len(presets))
	lofi, ok := presets["chill_lofi"]
	assert.True(t, ok)
	assert.Equal(t, "lofi", lofi.Genre)
	assert.Equal(t, "slow", lofi.Tempo)
}
