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

// This file is an integration test for the Redis session backend. It runs
// only when REDIS_URL points at a live instance; the rest of the suite
// covers the same store logic over the in-process backend.
package services_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/quickmv/quick-music-videos/internal/core/services"
	test "github.com/quickmv/quick-music-videos/internal/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/zeebo/assert"
)

func TestRedisBackendIntegration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set, skipping redis integration test")
	}

	opts, err := redis.ParseURL(redisURL)
	test.HandleErr(err, t)
	client := redis.NewClient(opts)
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	test.HandleErr(client.Ping(ctx).Err(), t)

	backend := services.NewRedisBackend(client)
	key := "test:" + uuid.NewString()

	test.HandleErr(backend.Set(ctx, key, []byte("hello"), time.Minute), t)

	data, found, err := backend.Get(ctx, key)
	test.HandleErr(err, t)
	assert.True(t, found)
	assert.Equal(t, "hello", string(data))

	ok, err := backend.Expire(ctx, key, 2*time.Minute)
	test.HandleErr(err, t)
	assert.True(t, ok)

	existed, err := backend.Delete(ctx, key)
	test.HandleErr(err, t)
	assert.True(t, existed)

	_, found, err = backend.Get(ctx, key)
	test.HandleErr(err, t)
	assert.False(t, found)
}
