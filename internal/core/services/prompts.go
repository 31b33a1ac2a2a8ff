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

// This file defines the PromptService, which improves user-written prompts
// with the generative model. Every operation has a deterministic fallback
// so the API keeps working when the model is unavailable or fails: the
// caller always gets a usable result, never a hard error from a flaky
// upstream.
package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/quickmv/quick-music-videos/internal/cloud"
	"github.com/quickmv/quick-music-videos/internal/core/model"
)

const (
	maxImagePromptLength = 1500
	maxAlternativeLength = 200
	maxMusicPromptLength = 500
	maxDescriptionLength = 300
	maxSuggestions       = 5
)

// alternativeConcepts are the variations offered alongside an enhanced
// image prompt.
var alternativeConcepts = []string{
	"a portrait-focused version",
	"a landscape/environment version",
	"a close-up detail version",
}

// PromptService enhances image and music prompts and suggests slideshow
// concepts. A nil model puts the service in fallback-only mode.
type PromptService struct {
	Model *cloud.QuotaAwareGenerativeAIModel

	enhanceTemplate     *template.Template
	alternativeTemplate *template.Template
	suggestionsTemplate *template.Template

	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
	retryCounter       metric.Int64Counter
}

// NewPromptService parses the configured prompt templates and creates the
// service. Malformed templates are a deployment error and panic at startup.
func NewPromptService(templates cloud.PromptTemplates, generativeModel *cloud.QuotaAwareGenerativeAIModel) *PromptService {
	enhance, err := template.New("image-enhance").Parse(templates.ImageEnhance)
	if err != nil {
		panic(err)
	}
	alternative, err := template.New("image-alternative").Parse(templates.ImageAlternative)
	if err != nil {
		panic(err)
	}
	suggestions, err := template.New("image-suggestions").Parse(templates.ImageSuggestions)
	if err != nil {
		panic(err)
	}

	meter := otel.Meter("github.com/quickmv/quick-music-videos")
	out := &PromptService{
		Model:               generativeModel,
		enhanceTemplate:     enhance,
		alternativeTemplate: alternative,
		suggestionsTemplate: suggestions,
	}
	out.inputTokenCounter, _ = meter.Int64Counter("prompt_service.gemini.token.input")
	out.outputTokenCounter, _ = meter.Int64Counter("prompt_service.gemini.token.output")
	out.retryCounter, _ = meter.Int64Counter("prompt_service.gemini.retry")
	return out
}

// Configured reports whether a generative model is wired in.
func (s *PromptService) Configured() bool {
	return s.Model != nil
}

func truncate(in string, max int) string {
	if len(in) > max {
		return in[:max-3] + "..."
	}
	return in
}

func renderTemplate(tmpl *template.Template, vocabulary map[string]string) (string, error) {
	var doc bytes.Buffer
	if err := tmpl.Execute(&doc, vocabulary); err != nil {
		return "", err
	}
	return doc.String(), nil
}

func promptVocabulary(doc *model.PreferenceDocument) map[string]string {
	return map[string]string{
		"GENRE":         doc.Music.Genre,
		"MOOD":          doc.Music.Mood,
		"TEMPO":         doc.Music.Tempo,
		"DURATION":      fmt.Sprintf("%d", doc.Music.Duration),
		"STYLE":         doc.Image.VisualStyle,
		"COLORS":        doc.Image.ColorScheme,
		"IMAGES_NEEDED": fmt.Sprintf("%d", doc.Image.ImagesNeeded),
	}
}

// EnhanceImagePrompt turns a rough user idea into a detailed image prompt
// plus three alternative takes. The enhanced prompt is capped at 1500
// characters and alternatives at 200, matching the downstream validation
// limits. A model failure on an alternative degrades to a deterministic
// one instead of failing the call.
func (s *PromptService) EnhanceImagePrompt(ctx context.Context, userPrompt string, doc *model.PreferenceDocument) (*model.PromptEnhancement, error) {
	if s.Model == nil {
		return nil, fmt.Errorf("generative model not configured")
	}

	vocabulary := promptVocabulary(doc)
	vocabulary["USER_PROMPT"] = userPrompt

	prompt, err := renderTemplate(s.enhanceTemplate, vocabulary)
	if err != nil {
		return nil, err
	}

	enhanced, err := cloud.GenerateTextResponse(ctx, s.inputTokenCounter, s.outputTokenCounter, s.retryCounter, 0, s.Model, prompt)
	if err != nil {
		return nil, err
	}
	enhanced = truncate(strings.TrimSpace(enhanced), maxImagePromptLength)

	alternatives := make([]string, 0, len(alternativeConcepts))
	for _, concept := range alternativeConcepts {
		vocabulary["CONCEPT"] = concept
		altPrompt, renderErr := renderTemplate(s.alternativeTemplate, vocabulary)
		if renderErr == nil {
			altText, genErr := cloud.GenerateTextResponse(ctx, s.inputTokenCounter, s.outputTokenCounter, s.retryCounter, 0, s.Model, altPrompt)
			if genErr == nil && strings.TrimSpace(altText) != "" {
				alternatives = append(alternatives, truncate(strings.TrimSpace(altText), maxAlternativeLength))
				continue
			}
			slog.Warn("alternative prompt generation failed, using fallback", "concept", concept, "error", genErr)
		}
		alternatives = append(alternatives, fmt.Sprintf("A %s with %s colors and %s style", concept, doc.Image.ColorScheme, doc.Image.VisualStyle))
	}

	return &model.PromptEnhancement{
		EnhancedPrompt: enhanced,
		Alternatives:   alternatives,
		TechnicalNotes: fmt.Sprintf("Will generate %d image variations for %d second slideshow", doc.Image.ImagesNeeded, doc.Music.Duration),
		OriginalPrompt: userPrompt,
		CharacterCount: len(enhanced),
	}, nil
}

// EnhanceMusicPrompt prefixes the user's idea with the genre and mood from
// their preferences. This is deliberately deterministic; the music vendor
// does its own interpretation and a model round-trip adds latency without
// improving output.
func (s *PromptService) EnhanceMusicPrompt(userPrompt string, doc *model.PreferenceDocument) *model.PromptEnhancement {
	enhanced := truncate(fmt.Sprintf("Create a %s song with %s mood. %s", doc.Music.Genre, doc.Music.Mood, userPrompt), maxMusicPromptLength)

	return &model.PromptEnhancement{
		EnhancedPrompt: enhanced,
		Alternatives: []string{
			fmt.Sprintf("Focus on %s tempo: %s", doc.Music.Tempo, userPrompt),
			fmt.Sprintf("Emphasize %s energy: %s", doc.Music.EnergyLevel, userPrompt),
			fmt.Sprintf("Modern production style: %s", userPrompt),
		},
		TechnicalNotes: fmt.Sprintf("Optimized for %d second duration", doc.Music.Duration),
		OriginalPrompt: userPrompt,
		CharacterCount: len(enhanced),
	}
}

// ImageSuggestions produces five slideshow concepts for the preferences.
// Model failures and unparseable responses both degrade to the built-in
// fallback concepts, so this never returns an error.
func (s *PromptService) ImageSuggestions(ctx context.Context, doc *model.PreferenceDocument) []model.ImageSuggestion {
	if s.Model == nil {
		return fallbackSuggestions(doc)
	}

	prompt, err := renderTemplate(s.suggestionsTemplate, promptVocabulary(doc))
	if err != nil {
		slog.Warn("suggestions template failed, using fallbacks", "error", err)
		return fallbackSuggestions(doc)
	}

	response, err := cloud.GenerateTextResponse(ctx, s.inputTokenCounter, s.outputTokenCounter, s.retryCounter, 0, s.Model, prompt)
	if err != nil {
		slog.Warn("image suggestions generation failed, using fallbacks", "error", err)
		return fallbackSuggestions(doc)
	}

	suggestions := ParseSuggestions(response)
	if len(suggestions) == 0 {
		return fallbackSuggestions(doc)
	}
	return suggestions
}

// ParseSuggestions extracts titled concepts from a numbered
// "Title:/Description:" response. Descriptions longer than 300 characters
// are truncated and at most five suggestions are returned.
func ParseSuggestions(responseText string) []model.ImageSuggestion {
	var suggestions []model.ImageSuggestion
	var currentTitle, currentDescription string

	flush := func() {
		if currentTitle != "" && currentDescription != "" {
			suggestions = append(suggestions, model.ImageSuggestion{
				Title:       currentTitle,
				Description: truncate(currentDescription, maxDescriptionLength),
			})
		}
	}

	for _, line := range strings.Split(responseText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch {
		case startsWithNumber(line) || strings.HasPrefix(line, "Title:"):
			flush()
			title := line
			for _, prefix := range []string{"1.", "2.", "3.", "4.", "5."} {
				title = strings.TrimPrefix(title, prefix)
			}
			title = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(title), "Title:"))
			currentTitle = title
			currentDescription = ""
		case strings.HasPrefix(line, "Description:"):
			currentDescription = strings.TrimSpace(strings.TrimPrefix(line, "Description:"))
		case currentTitle != "" && currentDescription != "":
			currentDescription += " " + line
		}
	}
	flush()

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

func startsWithNumber(line string) bool {
	for _, prefix := range []string{"1.", "2.", "3.", "4.", "5."} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func fallbackSuggestions(doc *model.PreferenceDocument) []model.ImageSuggestion {
	genre := doc.Music.Genre
	mood := doc.Music.Mood
	style := doc.Image.VisualStyle
	colors := doc.Image.ColorScheme

	return []model.ImageSuggestion{
		{
			Title:       fmt.Sprintf("Urban %s Portrait", titleCase(style)),
			Description: fmt.Sprintf("A person in %s clothing against a city backdrop with %s lighting. Clean composition with shallow depth of field, perfect for %s music.", style, colors, genre),
		},
		{
			Title:       "Nature & Music",
			Description: fmt.Sprintf("Beautiful natural landscape with %s sunset/sunrise colors. %s composition capturing the %s mood through lighting and scenery.", colors, titleCase(style), mood),
		},
		{
			Title:       "Studio Performance",
			Description: fmt.Sprintf("Musician with instruments in a %s studio setting. %s stage lighting creates dynamic shadows and highlights matching the %s vibe.", style, titleCase(colors), genre),
		},
		{
			Title:       "City Life Montage",
			Description: fmt.Sprintf("Urban scenes with %s neon signs and %s architecture. Street photography style capturing the energy of %s %s music.", colors, style, mood, genre),
		},
		{
			Title:       "Abstract Objects",
			Description: fmt.Sprintf("%s still life with everyday objects arranged artistically. %s color palette with interesting textures and geometric shapes.", titleCase(style), titleCase(colors)),
		},
	}
}

func titleCase(in string) string {
	if in == "" {
		return in
	}
	return strings.ToUpper(in[:1]) + in[1:]
}
