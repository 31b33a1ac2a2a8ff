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

// Package model defines the data structures shared between the API server
// and the background workers. This file holds the preference document: the
// structured form of a user's submission, stored per session and consumed
// by the music and video generation pipelines.
package model

// MusicPreferences captures everything the music generation phase needs.
type MusicPreferences struct {
	Genre       string `json:"genre"`
	Mood        string `json:"mood"`
	Tempo       string `json:"tempo"`
	Duration    int    `json:"duration"`
	EnergyLevel string `json:"energy_level"`
	VocalStyle  string `json:"vocal_style"`
	MusicPrompt string `json:"music_prompt"`
}

// ImagePreferences captures the visual side of a request. ImagesNeeded, BPM,
// and SecondsPerImage are derived fields computed at submission time from the
// tempo and duration, so the video phase never has to re-derive them.
type ImagePreferences struct {
	VisualStyle     string  `json:"visual_style"`
	ColorScheme     string  `json:"color_scheme"`
	AspectRatio     string  `json:"aspect_ratio"`
	Resolution      string  `json:"resolution"`
	ImagePrompt     string  `json:"image_prompt"`
	ImagesNeeded    int     `json:"images_needed"`
	BPM             int     `json:"bpm"`
	SecondsPerImage float64 `json:"seconds_per_image"`
}

// GeneralPreferences holds project metadata that does not affect generation
// directly but is carried through to titles and stored artifacts.
type GeneralPreferences struct {
	ProjectName    string `json:"project_name"`
	Description    string `json:"description"`
	TargetAudience string `json:"target_audience"`
	UsagePurpose   string `json:"usage_purpose"`
}

// PreferenceDocument is the full per-session record written by the
// preference submission endpoint and read by both worker pipelines.
// StoredAt and UpdatedAt are stamped by the session store, not the caller.
type PreferenceDocument struct {
	SessionID string             `json:"session_id"`
	Timestamp string             `json:"timestamp"`
	StoredAt  string             `json:"stored_at,omitempty"`
	UpdatedAt string             `json:"updated_at,omitempty"`
	Music     MusicPreferences   `json:"music_preferences"`
	Image     ImagePreferences   `json:"image_preferences"`
	General   GeneralPreferences `json:"general_preferences"`
}

// Preset is a named bundle of preference defaults the UI can offer as a
// one-click starting point.
type Preset struct {
	Genre          string `json:"genre"`
	Mood           string `json:"mood"`
	Tempo          string `json:"tempo"`
	EnergyLevel    string `json:"energy_level"`
	VisualStyle    string `json:"visual_style"`
	ColorScheme    string `json:"color_scheme"`
	AnimationStyle string `json:"animation_style"`
}

// Presets returns the built-in preference presets keyed by their public name.
func Presets() map[string]Preset {
	return map[string]Preset{
		"energetic_pop": {
			Genre: "pop", Mood: "upbeat", Tempo: "fast", EnergyLevel: "high",
			VisualStyle: "modern", ColorScheme: "vibrant", AnimationStyle: "dynamic",
		},
		"chill_lofi": {
			Genre: "lofi", Mood: "relaxed", Tempo: "slow", EnergyLevel: "low",
			VisualStyle: "minimal", ColorScheme: "pastel", AnimationStyle: "smooth",
		},
		"rock_anthem": {
			Genre: "rock", Mood: "powerful", Tempo: "fast", EnergyLevel: "high",
			VisualStyle: "bold", ColorScheme: "dark", AnimationStyle: "intense",
		},
		"ambient_electronic": {
			Genre: "electronic", Mood: "atmospheric", Tempo: "medium", EnergyLevel: "medium",
			VisualStyle: "futuristic", ColorScheme: "neon", AnimationStyle: "flowing",
		},
	}
}
