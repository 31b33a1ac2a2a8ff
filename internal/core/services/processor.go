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

package services

import (
	"strconv"
	"time"

	"github.com/quickmv/quick-music-videos/internal/core/model"
)

// bpmMapping converts a tempo label into beats per minute. The BPM drives
// how many images the slideshow needs: one image per beat-second of music.
var bpmMapping = map[string]int{
	"slow":      80,
	"medium":    120,
	"fast":      160,
	"very_fast": 200,
}

// DefaultBPM is used when the tempo label is unknown.
const DefaultBPM = 120

// PreferenceProcessor turns a raw form submission into a structured
// preference document, filling defaults for every omitted field and
// computing the derived image-pacing values.
type PreferenceProcessor struct{}

// NewPreferenceProcessor creates a processor.
func NewPreferenceProcessor() *PreferenceProcessor {
	return &PreferenceProcessor{}
}

// BPMForTempo returns the BPM for a tempo label, defaulting when unknown.
func BPMForTempo(tempo string) int {
	if bpm, ok := bpmMapping[tempo]; ok {
		return bpm
	}
	return DefaultBPM
}

func valueOr(data map[string]string, key, fallback string) string {
	if v, ok := data[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Process builds the per-session preference document from raw form fields.
// images_needed = duration * bpm / 60, so a 60 second medium-tempo request
// yields 120 images at half a second each.
func (p *PreferenceProcessor) Process(raw map[string]string, sessionID string) *model.PreferenceDocument {
	tempo := valueOr(raw, "tempo", "medium")
	duration := 60
	if d, err := strconv.Atoi(raw["duration"]); err == nil {
		duration = d
	}

	bpm := BPMForTempo(tempo)
	imagesNeeded := duration * bpm / 60

	return &model.PreferenceDocument{
		SessionID: sessionID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Music: model.MusicPreferences{
			Genre:       valueOr(raw, "genre", "pop"),
			Mood:        valueOr(raw, "mood", "upbeat"),
			Tempo:       tempo,
			Duration:    duration,
			EnergyLevel: valueOr(raw, "energy_level", "medium"),
			VocalStyle:  valueOr(raw, "vocal_style", "none"),
			MusicPrompt: raw["music_prompt"],
		},
		Image: model.ImagePreferences{
			VisualStyle:     valueOr(raw, "visual_style", "modern"),
			ColorScheme:     valueOr(raw, "color_scheme", "vibrant"),
			AspectRatio:     valueOr(raw, "aspect_ratio", "16:9"),
			Resolution:      valueOr(raw, "resolution", "1080p"),
			ImagePrompt:     raw["image_prompt"],
			ImagesNeeded:    imagesNeeded,
			BPM:             bpm,
			SecondsPerImage: 60.0 / float64(bpm),
		},
		General: model.GeneralPreferences{
			ProjectName:    raw["project_name"],
			Description:    raw["description"],
			TargetAudience: valueOr(raw, "target_audience", "general"),
			UsagePurpose:   valueOr(raw, "usage_purpose", "personal"),
		},
	}
}

// Presets returns the built-in preference presets.
func (p *PreferenceProcessor) Presets() map[string]model.Preset {
	return model.Presets()
}
