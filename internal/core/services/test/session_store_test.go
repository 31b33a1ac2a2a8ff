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

// Package services_test contains the test suite for the services package.
// This file exercises the session store over the in-process backend; the
// same store code runs over Redis in deployment, with expiry enforced by
// the backend in both cases.
package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quickmv/quick-music-videos/internal/core/services"
	test "github.com/quickmv/quick-music-videos/internal/testutil"
	"github.com/zeebo/assert"
)

func newTestStore(expiry time.Duration) *services.SessionStore {
	return services.NewSessionStore(services.NewMemoryBackend(), expiry)
}

func TestSessionStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(time.Minute)

	doc := services.NewPreferenceProcessor().Process(test.GetTestPreferenceForm(), "session-1")
	err := store.StorePreferences(ctx, "session-1", doc)
	test.HandleErr(err, t)

	assert.True(t, store.HasPreferences(ctx, "session-1"))

	prefs, err := store.GetPreferences(ctx, "session-1")
	test.HandleErr(err, t)
	assert.Equal(t, "session-1", prefs["session_id"])
	assert.NotNil(t, prefs["stored_at"])

	typed, err := store.GetDocument(ctx, "session-1")
	test.HandleErr(err, t)
	assert.Equal(t, "electronic", typed.Music.Genre)
	assert.Equal(t, 30, typed.Music.Duration)
}

func TestSessionStoreMissingSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(time.Minute)

	_, err := store.GetPreferences(ctx, "nope")
	assert.True(t, errors.Is(err, services.ErrSessionNotFound))
	assert.False(t, store.HasPreferences(ctx, "nope"))
}

func TestSessionStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(50 * time.Millisecond)

	doc := services.NewPreferenceProcessor().Process(test.GetTestPreferenceForm(), "session-2")
	test.HandleErr(store.StorePreferences(ctx, "session-2", doc), t)

	time.Sleep(80 * time.Millisecond)

	_, err := store.GetPreferences(ctx, "session-2")
	assert.True(t, errors.Is(err, services.ErrSessionNotFound))
}

func TestSessionStoreUpdateMerge(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(time.Minute)

	doc := services.NewPreferenceProcessor().Process(test.GetTestPreferenceForm(), "session-3")
	test.HandleErr(store.StorePreferences(ctx, "session-3", doc), t)

	err := store.UpdatePreferences(ctx, "session-3", map[string]interface{}{"notes": "version 2"})
	test.HandleErr(err, t)

	prefs, err := store.GetPreferences(ctx, "session-3")
	test.HandleErr(err, t)
	assert.Equal(t, "version 2", prefs["notes"])
	assert.Equal(t, "session-3", prefs["session_id"])
	assert.NotNil(t, prefs["updated_at"])
}

func TestSessionStoreUpdateMissingSession(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(time.Minute)

	err := store.UpdatePreferences(ctx, "nope", map[string]interface{}{"notes": "x"})
	assert.True(t, errors.Is(err, services.ErrSessionNotFound))
}

func TestSessionStoreDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(time.Minute)

	doc := services.NewPreferenceProcessor().Process(test.GetTestPreferenceForm(), "session-4")
	test.HandleErr(store.StorePreferences(ctx, "session-4", doc), t)

	existed, err := store.DeletePreferences(ctx, "session-4")
	test.HandleErr(err, t)
	assert.True(t, existed)

	existed, err = store.DeletePreferences(ctx, "session-4")
	test.HandleErr(err, t)
	assert.False(t, existed)
}

func TestSessionStoreExtend(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(100 * time.Millisecond)

	err := store.ExtendSession(ctx, "nope")
	assert.True(t, errors.Is(err, services.ErrSessionNotFound))

	doc := services.NewPreferenceProcessor().Process(test.GetTestPreferenceForm(), "session-5")
	test.HandleErr(store.StorePreferences(ctx, "session-5", doc), t)

	time.Sleep(60 * time.Millisecond)
	test.HandleErr(store.ExtendSession(ctx, "session-5"), t)

	// Past the original deadline but inside the extended one.
	time.Sleep(60 * time.Millisecond)
	assert.True(t, store.HasPreferences(ctx, "session-5"))
}
