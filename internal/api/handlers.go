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

// Package api defines the HTTP surface of the application: preference
// submission and session management, prompt enhancement, and the phase
// status and results endpoints that clients poll while the workers run.
// Worker failures reach clients as data in the status record, never as
// HTTP error codes from the status endpoints.
package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/quickmv/quick-music-videos/internal/cloud"
	"github.com/quickmv/quick-music-videos/internal/core/model"
	"github.com/quickmv/quick-music-videos/internal/core/services"
)

// Handlers bundles the services the HTTP layer delegates to.
type Handlers struct {
	Store          *services.SessionStore
	Tracker        *services.PhaseTracker
	Validator      *services.PreferenceValidator
	Processor      *services.PreferenceProcessor
	Prompts        *services.PromptService
	Publisher      cloud.Publisher
	Phase1Channel  string
	RedisConnected bool
}

// Register attaches all routes to the group.
func (h *Handlers) Register(r *gin.RouterGroup) {
	r.GET("/health", h.Health)
	r.GET("/presets", h.Presets)

	r.POST("/preferences", h.SubmitPreferences)
	r.GET("/preferences/:session_id", h.GetPreferences)
	r.PUT("/preferences/:session_id", h.UpdatePreferences)
	r.DELETE("/preferences/:session_id", h.DeletePreferences)
	r.POST("/session/:session_id/extend", h.ExtendSession)
	r.GET("/session/:session_id/complete-status", h.CompleteStatus)

	r.POST("/enhance-image-prompt", h.EnhanceImagePrompt)
	r.POST("/enhance-music-prompt", h.EnhanceMusicPrompt)
	r.POST("/image-suggestions", h.ImageSuggestions)

	r.GET("/phase2/status/:session_id", h.phaseStatus(model.PhaseMusic))
	r.GET("/phase2/results/:session_id", h.phaseResults(model.PhaseMusic))
	r.GET("/phase3/status/:session_id", h.phaseStatus(model.PhaseVideo))
	r.GET("/phase3/results/:session_id", h.phaseResults(model.PhaseVideo))
}

// Health reports process liveness plus the state of the optional
// dependencies, so operators can see a degraded deployment at a glance.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"timestamp":         time.Now().UTC().Format(time.RFC3339),
		"redis_connected":   h.RedisConnected,
		"gemini_configured": h.Prompts != nil && h.Prompts.Configured(),
	})
}

// Presets returns the built-in preference presets.
func (h *Handlers) Presets(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"presets": h.Processor.Presets(),
	})
}

// coerceFields flattens a JSON body into the string form the validator and
// processor consume. Numbers arrive as float64 from the JSON decoder.
func coerceFields(raw map[string]interface{}) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		switch value := v.(type) {
		case string:
			out[k] = value
		case float64:
			out[k] = strconv.FormatFloat(value, 'f', -1, 64)
		case bool:
			out[k] = strconv.FormatBool(value)
		default:
			out[k] = fmt.Sprintf("%v", value)
		}
	}
	return out
}

// SubmitPreferences validates and stores a new preference submission under
// a fresh session id, then triggers the music phase.
func (h *Handlers) SubmitPreferences(c *gin.Context) {
	var raw map[string]interface{}
	if err := c.ShouldBindJSON(&raw); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": []string{"No data provided"}})
		return
	}

	data := coerceFields(raw)
	if errs := h.Validator.Validate(data); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": errs})
		return
	}

	sessionID := uuid.NewString()
	doc := h.Processor.Process(data, sessionID)

	if err := h.Store.StorePreferences(c.Request.Context(), sessionID, doc); err != nil {
		slog.Error("failed to store preferences", "session_id", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	if h.Publisher != nil {
		if err := h.Publisher.Publish(c.Request.Context(), h.Phase1Channel, sessionID); err != nil {
			slog.Error("failed to trigger music phase", "session_id", sessionID, "error", err)
		}
	} else {
		slog.Debug("no publisher configured, music phase not triggered", "session_id", sessionID)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"session_id":    sessionID,
		"message":       "Preferences saved and Phase 2 triggered",
		"images_needed": doc.Image.ImagesNeeded,
		"next_phase":    "music_and_image_creation",
	})
}

// GetPreferences returns the stored document for a session.
func (h *Handlers) GetPreferences(c *gin.Context) {
	sessionID := c.Param("session_id")

	prefs, err := h.Store.GetPreferences(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Session not found"})
			return
		}
		slog.Error("failed to read preferences", "session_id", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "preferences": prefs})
}

// UpdatePreferences merges the submitted fields into the stored document
// and resets the session lifetime.
func (h *Handlers) UpdatePreferences(c *gin.Context) {
	sessionID := c.Param("session_id")

	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil || len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": []string{"No data provided"}})
		return
	}

	if err := h.Store.UpdatePreferences(c.Request.Context(), sessionID, fields); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Session not found"})
			return
		}
		slog.Error("failed to update preferences", "session_id", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	prefs, err := h.Store.GetPreferences(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "preferences": prefs})
}

// DeletePreferences removes the session document. Deleting an absent
// session succeeds; the flag reports whether anything existed.
func (h *Handlers) DeletePreferences(c *gin.Context) {
	sessionID := c.Param("session_id")

	existed, err := h.Store.DeletePreferences(c.Request.Context(), sessionID)
	if err != nil {
		slog.Error("failed to delete preferences", "session_id", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": existed})
}

// ExtendSession resets the session TTL to the full window.
func (h *Handlers) ExtendSession(c *gin.Context) {
	sessionID := c.Param("session_id")

	if err := h.Store.ExtendSession(c.Request.Context(), sessionID); err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Session not found"})
			return
		}
		slog.Error("failed to extend session", "session_id", sessionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Session extended"})
}

// phaseStatus returns a handler reporting one phase's status record. The
// record is data: a failed phase still answers 200.
func (h *Handlers) phaseStatus(phase int) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("session_id")

		record, err := h.Tracker.GetStatus(c.Request.Context(), sessionID, phase)
		if err != nil {
			slog.Error("failed to read phase status", "session_id", sessionID, "phase", phase, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "status": record})
	}
}

// phaseResults returns a handler serving one phase's result payload.
func (h *Handlers) phaseResults(phase int) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID := c.Param("session_id")

		raw, err := h.Tracker.GetResults(c.Request.Context(), sessionID, phase)
		if err != nil {
			if errors.Is(err, services.ErrSessionNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Results not found"})
				return
			}
			slog.Error("failed to read phase results", "session_id", sessionID, "phase", phase, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "results": raw})
	}
}

// CompleteStatus reports all three phases in one read. The preference
// phase is synchronous, so its record is synthesized from the session's
// existence rather than stored.
func (h *Handlers) CompleteStatus(c *gin.Context) {
	sessionID := c.Param("session_id")
	ctx := c.Request.Context()

	hasPrefs := h.Store.HasPreferences(ctx, sessionID)
	phase1Status := model.StatusNotStarted
	if hasPrefs {
		phase1Status = model.StatusCompleted
	}

	phase2, err := h.Tracker.GetStatus(ctx, sessionID, model.PhaseMusic)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}
	phase3, err := h.Tracker.GetStatus(ctx, sessionID, model.PhaseVideo)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": sessionID,
		"phase1":     gin.H{"completed": hasPrefs, "status": phase1Status},
		"phase2":     phase2,
		"phase3":     phase3,
	})
}

type promptRequest struct {
	Prompt      string                 `json:"prompt"`
	SessionID   string                 `json:"session_id"`
	Preferences map[string]interface{} `json:"preferences"`
}

// preferenceDoc resolves the preference document for a prompt request:
// the stored session document when one exists, a document processed from
// inline preferences, or one built entirely from defaults.
func (h *Handlers) preferenceDoc(c *gin.Context, req *promptRequest) *model.PreferenceDocument {
	if req.SessionID != "" {
		doc, err := h.Store.GetDocument(c.Request.Context(), req.SessionID)
		if err == nil {
			return doc
		}
	}
	if len(req.Preferences) > 0 {
		return h.Processor.Process(coerceFields(req.Preferences), "temp")
	}
	return h.Processor.Process(map[string]string{}, "temp")
}

// EnhanceImagePrompt runs the user's prompt through the generative model.
func (h *Handlers) EnhanceImagePrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No prompt provided"})
		return
	}

	if h.Prompts == nil || !h.Prompts.Configured() {
		c.JSON(http.StatusOK, gin.H{"success": false, "error": "Gemini API not configured"})
		return
	}

	doc := h.preferenceDoc(c, &req)
	result, err := h.Prompts.EnhanceImagePrompt(c.Request.Context(), req.Prompt, doc)
	if err != nil {
		slog.Error("image prompt enhancement failed", "error", err)
		c.JSON(http.StatusOK, gin.H{"success": false, "error": fmt.Sprintf("Gemini API error: %v", err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"enhanced_prompt": result.EnhancedPrompt,
		"alternatives":    result.Alternatives,
		"technical_notes": result.TechnicalNotes,
		"original_prompt": result.OriginalPrompt,
		"character_count": result.CharacterCount,
	})
}

// EnhanceMusicPrompt is deterministic and never fails once a prompt is
// supplied.
func (h *Handlers) EnhanceMusicPrompt(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Prompt == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No prompt provided"})
		return
	}

	doc := h.preferenceDoc(c, &req)
	result := h.Prompts.EnhanceMusicPrompt(req.Prompt, doc)

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"enhanced_prompt": result.EnhancedPrompt,
		"alternatives":    result.Alternatives,
		"technical_notes": result.TechnicalNotes,
		"original_prompt": result.OriginalPrompt,
		"character_count": result.CharacterCount,
	})
}

// ImageSuggestions returns five slideshow concepts for the session's or
// inline preferences.
func (h *Handlers) ImageSuggestions(c *gin.Context) {
	var req promptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No preferences available"})
		return
	}
	if req.SessionID == "" && len(req.Preferences) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No preferences available"})
		return
	}

	doc := h.preferenceDoc(c, &req)
	suggestions := h.Prompts.ImageSuggestions(c.Request.Context(), doc)

	c.JSON(http.StatusOK, gin.H{"success": true, "suggestions": suggestions})
}
