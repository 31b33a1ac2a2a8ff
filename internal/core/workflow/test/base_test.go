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

// This file provides the shared setup for the workflow test suite:
// configuration, logging, and telemetry are initialized once in TestMain.
// Telemetry export is optional; without a cloud project the suite runs
// with export disabled.
package workflow_test

import (
	"context"
	"os"
	"testing"

	"github.com/quickmv/quick-music-videos/internal/telemetry"
	test "github.com/quickmv/quick-music-videos/internal/testutil"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
)

const tName = "github.com/quickmv/quick-music-videos/tests/workflow"

var (
	tracer = otel.Tracer(tName)
	logger = otelslog.NewLogger(tName)
)

func TestMain(m *testing.M) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := test.GetConfig()
	telemetry.SetupLogging()

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)

	code := m.Run()

	if err == nil {
		_ = shutdown(context.Background())
	}
	os.Exit(code)
}
