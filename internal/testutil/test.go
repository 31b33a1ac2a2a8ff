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

// Package test provides utility functions and sample data to support the
// application's test suite. It loads the test configuration once per run
// and supplies canonical preference submissions for workflow tests.
package test

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/quickmv/quick-music-videos/internal/cloud"
)

// StateManager caches the configuration for the test run so the TOML
// files are parsed once.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test when err is not nil.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// GetTestPreferenceForm returns a complete, valid preference submission as
// it would arrive from the web form.
func GetTestPreferenceForm() map[string]string {
	return map[string]string{
		"genre":        "electronic",
		"mood":         "energetic",
		"tempo":        "fast",
		"vocal_style":  "female",
		"duration":     "30",
		"visual_style": "modern",
		"color_scheme": "neon",
		"image_prompt": "a neon city skyline at night",
	}
}

// GetTestTriggerMessage returns the hand-off payload the web server
// publishes when preferences are saved: the bare session id.
func GetTestTriggerMessage(sessionID string) string {
	return sessionID
}

// configDir resolves the configs directory at the module root, so tests
// in nested packages load the same TOML files as the binaries.
func configDir() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "configs")
}

// SetupOS points the configuration loader at the test runtime, causing it
// to apply the .env.test.toml overrides.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, configDir())
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}
