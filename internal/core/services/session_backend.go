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

// Package services contains the business logic of the application: the
// session store and phase tracker that coordinate the API server with the
// background workers, plus the clients for the external generation services.
//
// This file defines the storage backend abstraction. Two implementations
// exist: a Redis-backed one used whenever the cache service is reachable,
// and an in-process fallback used when it is not. The two are behaviorally
// identical from the caller's perspective except that the fallback does not
// survive a process restart and is invisible to other processes. That caveat
// is deliberate and documented, not hidden: a multi-process deployment must
// run against the cache service.
package services

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a session record is absent, expired,
// or unreadable. Callers treat all three identically.
var ErrSessionNotFound = errors.New("session not found")

// SessionBackend is the minimal keyed-blob contract both backends satisfy.
// Every value carries a TTL; single-key operations are atomic on the Redis
// backend and mutex-guarded on the in-memory one.
type SessionBackend interface {
	// Set writes value under key with the given TTL, replacing any previous
	// value and its remaining TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Get returns the stored value and true, or nil and false when the key
	// is absent or expired. The error is reserved for backend I/O faults.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Delete removes the key and reports whether a live record existed.
	// Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) (bool, error)

	// Expire resets the TTL of an existing key to the given duration without
	// touching its value. Returns false when the key is absent.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
}
