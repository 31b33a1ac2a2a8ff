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
	"fmt"
	"strconv"
	"strings"
)

// PreferenceValidator checks a raw form submission against the bounded
// schema of known fields. All fields are optional; when present they must
// be within range or drawn from the published enumerations. Unknown fields
// are ignored, never rejected.
type PreferenceValidator struct {
	ValidGenres       []string
	ValidMoods        []string
	ValidTempos       []string
	ValidVisualStyles []string
	ValidColorSchemes []string
	ValidResolutions  []string
	ValidAspectRatios []string
}

// NewPreferenceValidator creates a validator with the published field
// enumerations.
func NewPreferenceValidator() *PreferenceValidator {
	return &PreferenceValidator{
		ValidGenres:       []string{"pop", "rock", "electronic", "hip-hop", "jazz", "classical", "country", "folk", "reggae", "blues", "funk", "lofi", "ambient"},
		ValidMoods:        []string{"upbeat", "relaxed", "energetic", "melancholic", "happy", "sad", "angry", "peaceful", "dramatic", "mysterious", "romantic", "powerful", "atmospheric"},
		ValidTempos:       []string{"slow", "medium", "fast", "very_fast"},
		ValidVisualStyles: []string{"modern", "vintage", "minimal", "bold", "abstract", "realistic", "cartoon", "futuristic", "retro"},
		ValidColorSchemes: []string{"vibrant", "pastel", "dark", "monochrome", "neon", "warm", "cool", "earth_tones", "rainbow"},
		ValidResolutions:  []string{"720p", "1080p", "4k"},
		ValidAspectRatios: []string{"16:9", "9:16", "1:1", "4:3"},
	}
}

func contains(valid []string, value string) bool {
	for _, v := range valid {
		if v == value {
			return true
		}
	}
	return false
}

// Validate returns a list of human-readable error messages. An empty list
// means the submission is acceptable.
func (v *PreferenceValidator) Validate(data map[string]string) []string {
	var errs []string

	if len(data) == 0 {
		return []string{"No data provided"}
	}

	if raw, ok := data["duration"]; ok && raw != "" {
		duration, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			errs = append(errs, "Duration must be a valid number")
		} else if duration < 10 || duration > 300 {
			errs = append(errs, "Duration must be between 10 and 300 seconds")
		}
	}

	if name := data["project_name"]; len(name) > 100 {
		errs = append(errs, "Project name must be less than 100 characters")
	}

	if prompt := data["image_prompt"]; len(prompt) > 1500 {
		errs = append(errs, "Image prompt must be less than 1500 characters")
	}

	for field, valid := range map[string][]string{
		"genre":        v.ValidGenres,
		"mood":         v.ValidMoods,
		"tempo":        v.ValidTempos,
		"visual_style": v.ValidVisualStyles,
		"color_scheme": v.ValidColorSchemes,
		"resolution":   v.ValidResolutions,
		"aspect_ratio": v.ValidAspectRatios,
	} {
		if value, ok := data[field]; ok && value != "" && !contains(valid, value) {
			errs = append(errs, fmt.Sprintf("Invalid %s: %s", strings.ReplaceAll(field, "_", " "), value))
		}
	}

	return errs
}
