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
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value     []byte
	expiresAt time.Time
}

// MemoryBackend is the in-process fallback used when the cache service is
// unreachable. Expiry is checked lazily on access; there is no background
// sweep. Records live only as long as the process and are not shared across
// processes, so worker hand-off does not function in this mode.
type MemoryBackend struct {
	mu    sync.Mutex
	items map[string]memoryItem
	// now is swappable for tests; defaults to time.Now.
	now func() time.Time
}

// NewMemoryBackend creates an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		items: make(map[string]memoryItem),
		now:   time.Now,
	}
}

// Set writes the value with the given TTL.
func (b *MemoryBackend) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	// Copy the value so later caller mutations cannot alias stored state.
	stored := make([]byte, len(value))
	copy(stored, value)
	b.items[key] = memoryItem{value: stored, expiresAt: b.now().Add(ttl)}
	return nil
}

// Get returns the value if present and unexpired. Expired entries are
// evicted on the spot.
func (b *MemoryBackend) Get(_ context.Context, key string) ([]byte, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item, ok := b.items[key]
	if !ok {
		return nil, false, nil
	}
	if b.now().After(item.expiresAt) {
		delete(b.items, key)
		return nil, false, nil
	}
	return item.value, true, nil
}

// Delete removes the key and reports whether a live record existed. An
// expired-but-unswept entry counts as absent.
func (b *MemoryBackend) Delete(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item, ok := b.items[key]
	if !ok {
		return false, nil
	}
	delete(b.items, key)
	if b.now().After(item.expiresAt) {
		return false, nil
	}
	return true, nil
}

// Expire resets the TTL of a live entry.
func (b *MemoryBackend) Expire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	item, ok := b.items[key]
	if !ok {
		return false, nil
	}
	if b.now().After(item.expiresAt) {
		delete(b.items, key)
		return false, nil
	}
	item.expiresAt = b.now().Add(ttl)
	b.items[key] = item
	return true, nil
}
