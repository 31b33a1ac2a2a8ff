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

// Package commands provides the concrete Chain of Responsibility commands
// that make up the music and video generation pipelines. This file defines
// the well-known context parameter names the commands share: values that
// more than one command needs are stored under these keys in addition to
// the default chain piping.
package commands

// GetSessionIDParamName returns the context key holding the session id for
// the workflow run.
func GetSessionIDParamName() string {
	return "__session_id__"
}

// GetPreferenceDocParamName returns the context key holding the loaded
// preference document.
func GetPreferenceDocParamName() string {
	return "__preference_doc__"
}

// GetMusicResultsParamName returns the context key holding the music phase
// results.
func GetMusicResultsParamName() string {
	return "__music_results__"
}

// GetImagePromptsParamName returns the context key holding the per-song
// image prompt lists.
func GetImagePromptsParamName() string {
	return "__image_prompts__"
}

// GetImageURLsParamName returns the context key holding the per-song
// generated image URL lists.
func GetImageURLsParamName() string {
	return "__image_urls__"
}
