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
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/quickmv/quick-music-videos/internal/core/model"
)

// SessionStore persists one preference document per session, keyed as
// preferences:{session_id}, with a finite lifetime. Expiry is enforced by
// the backend; there is no implicit renewal, only the explicit Extend
// operation. Update is a read-then-write shallow merge and therefore
// best-effort under concurrency, which is acceptable because concurrent
// updates to one session are not an expected usage pattern.
type SessionStore struct {
	Backend SessionBackend
	Expiry  time.Duration
}

// NewSessionStore creates a store over the given backend with the given
// session lifetime.
func NewSessionStore(backend SessionBackend, expiry time.Duration) *SessionStore {
	return &SessionStore{Backend: backend, Expiry: expiry}
}

func preferencesKey(sessionID string) string {
	return fmt.Sprintf("preferences:%s", sessionID)
}

// StorePreferences writes the document under a fresh full TTL, stamping
// stored_at. The write either fully succeeds or fails; there is no partial
// state to clean up.
func (s *SessionStore) StorePreferences(ctx context.Context, sessionID string, doc *model.PreferenceDocument) error {
	doc.StoredAt = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize preferences: %w", err)
	}
	if err := s.Backend.Set(ctx, preferencesKey(sessionID), data, s.Expiry); err != nil {
		return fmt.Errorf("failed to store preferences: %w", err)
	}
	slog.Info("preferences stored", "session_id", sessionID)
	return nil
}

// GetPreferences returns the raw document as a generic map, suitable for
// echoing back over the API. Absent, expired, and malformed records all
// surface as ErrSessionNotFound; malformed data is additionally logged so
// the corruption is visible without crashing any caller.
func (s *SessionStore) GetPreferences(ctx context.Context, sessionID string) (map[string]interface{}, error) {
	key := preferencesKey(sessionID)
	data, found, err := s.Backend.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	if !found {
		return nil, ErrSessionNotFound
	}
	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		// Leave the record for TTL to reap; deleting here could race a
		// concurrent writer that just replaced it with a valid document.
		slog.Warn("malformed preference document", "key", key, "error", err)
		return nil, ErrSessionNotFound
	}
	return doc, nil
}

// GetDocument returns the typed form of the stored preferences for worker
// pipelines that need structured access.
func (s *SessionStore) GetDocument(ctx context.Context, sessionID string) (*model.PreferenceDocument, error) {
	key := preferencesKey(sessionID)
	data, found, err := s.Backend.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	if !found {
		return nil, ErrSessionNotFound
	}
	doc := &model.PreferenceDocument{}
	if err := json.Unmarshal(data, doc); err != nil {
		slog.Warn("malformed preference document", "key", key, "error", err)
		return nil, ErrSessionNotFound
	}
	return doc, nil
}

// UpdatePreferences merges fields into the existing document at the top
// level, stamps updated_at, and re-stores with a fresh full TTL. Fails with
// ErrSessionNotFound when no live document exists.
func (s *SessionStore) UpdatePreferences(ctx context.Context, sessionID string, fields map[string]interface{}) error {
	doc, err := s.GetPreferences(ctx, sessionID)
	if err != nil {
		return err
	}
	for k, v := range fields {
		doc[k] = v
	}
	doc["updated_at"] = time.Now().UTC().Format(time.RFC3339)
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to serialize preferences: %w", err)
	}
	if err := s.Backend.Set(ctx, preferencesKey(sessionID), data, s.Expiry); err != nil {
		return fmt.Errorf("failed to store preferences: %w", err)
	}
	return nil
}

// DeletePreferences removes the session document. Idempotent; the boolean
// reports whether a live record existed.
func (s *SessionStore) DeletePreferences(ctx context.Context, sessionID string) (bool, error) {
	existed, err := s.Backend.Delete(ctx, preferencesKey(sessionID))
	if err != nil {
		return false, fmt.Errorf("failed to delete preferences: %w", err)
	}
	return existed, nil
}

// ExtendSession resets the TTL to the full expiry window without touching
// the document. Fails with ErrSessionNotFound when the record is absent.
func (s *SessionStore) ExtendSession(ctx context.Context, sessionID string) error {
	ok, err := s.Backend.Expire(ctx, preferencesKey(sessionID), s.Expiry)
	if err != nil {
		return fmt.Errorf("failed to extend session: %w", err)
	}
	if !ok {
		return ErrSessionNotFound
	}
	return nil
}

// HasPreferences reports whether a live document exists without decoding it.
func (s *SessionStore) HasPreferences(ctx context.Context, sessionID string) bool {
	_, found, err := s.Backend.Get(ctx, preferencesKey(sessionID))
	return err == nil && found
}
