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

// This file tests the deterministic side of the prompt service: the music
// enhancement, the suggestion parser, and the fallbacks used when no
// generative model is configured.
package services_test

import (
	"context"
	"strings"
	"testing"

	"github.com/quickmv/quick-music-videos/internal/core/services"
	test "github.com/quickmv/quick-music-videos/internal/testutil"
	"github.com/zeebo/assert"
)

func newFallbackPromptService() *services.PromptService {
	return services.NewPromptService(test.GetConfig().PromptTemplates, nil)
}

func TestPromptServiceUnconfigured(t *testing.T) {
	s := newFallbackPromptService()
	assert.False(t, s.Configured())

	doc := services.NewPreferenceProcessor().Process(test.GetTestPreferenceForm(), "s1")
	_, err := s.EnhanceImagePrompt(context.Background(), "a skyline", doc)
	assert.Error(t, err)
}

func TestEnhanceMusicPromptDeterministic(t *testing.T) {
	s := newFallbackPromptService()
	doc := services.NewPreferenceProcessor().Process(test.GetTestPreferenceForm(), "s1")

	result := s.EnhanceMusicPrompt("with heavy bass", doc)
	assert.Equal(t, "Create a electronic song with energetic mood. with heavy bass", result.EnhancedPrompt)
	assert.Equal(t, 3, len(result.Alternatives))
	assert.Equal(t, "Optimized for 30 second duration", result.TechnicalNotes)
	assert.Equal(t, "with heavy bass", result.OriginalPrompt)
	assert.Equal(t, len(result.EnhancedPrompt), result.CharacterCount)
}

func TestEnhanceMusicPromptTruncates(t *testing.T) {
	s := newFallbackPromptService()
	doc := services.NewPreferenceProcessor().Process(map[string]string{}, "s1")

	result := s.EnhanceMusicPrompt(strings.Repeat("a", 600), doc)
	assert.Equal(t, 500, len(result.EnhancedPrompt))
	assert.True(t, strings.HasSuffix(result.EnhancedPrompt, "..."))
}

func TestParseSuggestions(t *testing.T) {
	response := `Here are some concepts:

1. Title: Neon Nights
   Description: A rain-soaked street glowing with neon reflections.
2. Title: Desert Drive
   Description: An open highway at golden hour,
   dust trailing behind a vintage car.
3. Rooftop Sunrise
   Description: A city skyline from above as dawn breaks.
`
	suggestions := services.ParseSuggestions(response)
	assert.Equal(t, 3, len(suggestions))
	assert.Equal(t, "Neon Nights", suggestions[0].Title)
	assert.Equal(t, "A rain-soaked street glowing with neon reflections.", suggestions[0].Description)
	assert.Equal(t, "Desert Drive", suggestions[1].Title)
	assert.True(t, strings.Contains(suggestions[1].Description, "dust trailing"))
	assert.Equal(t, "Rooftop Sunrise", suggestions[2].Title)
}

func TestParseSuggestionsEmptyInput(t *testing.T) {
	assert.Equal(t, 0, len(services.ParseSuggestions("")))
	assert.Equal(t, 0, len(services.ParseSuggestions("no structure here at all")))
}

func TestImageSuggestionsFallback(t *testing.T) {
	s := newFallbackPromptService()
	doc := services.NewPreferenceProcessor().Process(test.GetTestPreferenceForm(), "s1")

	suggestions := s.ImageSuggestions(context.Background(), doc)
	assert.Equal(t, 5, len(suggestions))
	assert.Equal(t, "Urban Modern Portrait", suggestions[0].Title)
	assert.True(t, strings.Contains(suggestions[0].Description, "electronic"))
}
