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
	"strings"
	"testing"

	"github.com/quickmv/quick-music-videos/internal/core/services"
	test "github.com/quickmv/quick-music-videos/internal/testutil"
	"github.com/zeebo/assert"
)

func TestValidatorAcceptsCompleteForm(t *testing.T) {
	v := services.NewPreferenceValidator()
	errs := v.Validate(test.GetTestPreferenceForm())
	assert.Equal(t, 0, len(errs))
}

func TestValidatorRejectsEmptySubmission(t *testing.T) {
	v := services.NewPreferenceValidator()
	errs := v.Validate(map[string]string{})
	assert.Equal(t, 1, len(errs))
	assert.Equal(t, "No data provided", errs[0])
}

func TestValidatorFieldChecks(t *testing.T) {
	v := services.NewPreferenceValidator()

	cases := []struct {
		name string
		data map[string]string
		want string
	}{
		{"unknown genre", map[string]string{"genre": "polka"}, "Invalid genre: polka"},
		{"unknown mood", map[string]string{"mood": "grumpy"}, "Invalid mood: grumpy"},
		{"unknown tempo", map[string]string{"tempo": "allegro"}, "Invalid tempo: allegro"},
		{"unknown visual style", map[string]string{"visual_style": "baroque"}, "Invalid visual style: baroque"},
		{"unknown color scheme", map[string]string{"color_scheme": "sepia"}, "Invalid color scheme: sepia"},
		{"unknown resolution", map[string]string{"resolution": "480p"}, "Invalid resolution: 480p"},
		{"unknown aspect ratio", map[string]string{"aspect_ratio": "2:1"}, "Invalid aspect ratio: 2:1"},
		{"duration too short", map[string]string{"duration": "5"}, "Duration must be between 10 and 300 seconds"},
		{"duration too long", map[string]string{"duration": "301"}, "Duration must be between 10 and 300 seconds"},
		{"duration not a number", map[string]string{"duration": "abc"}, "Duration must be a valid number"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := v.Validate(tc.data)
			assert.Equal(t, 1, len(errs))
			assert.Equal(t, tc.want, errs[0])
		})
	}
}

func TestValidatorLengthLimits(t *testing.T) {
	v := services.NewPreferenceValidator()

	errs := v.Validate(map[string]string{"project_name": strings.Repeat("x", 101)})
	assert.Equal(t, 1, len(errs))
	assert.Equal(t, "Project name must be less than 100 characters", errs[0])

	errs = v.Validate(map[string]string{"image_prompt": strings.Repeat("x", 1501)})
	assert.Equal(t, 1, len(errs))
	assert.Equal(t, "Image prompt must be less than 1500 characters", errs[0])
}

func TestValidatorIgnoresUnknownFieldsAndBlanks(t *testing.T) {
	v := services.NewPreferenceValidator()
	errs := v.Validate(map[string]string{
		"genre":     "",
		"mystery":   "anything",
		"tempo":     "fast",
		"mood":      "upbeat",
		"framerate": "999",
	})
	assert.Equal(t, 0, len(errs))
}

func TestValidatorCollectsMultipleErrors(t *testing.T) {
	v := services.NewPreferenceValidator()
	errs := v.Validate(map[string]string{
		"genre":    "polka",
		"duration": "5",
	})
	assert.Equal(t, 2, len(errs))
}
