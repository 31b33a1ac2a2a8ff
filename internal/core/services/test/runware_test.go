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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/quickmv/quick-music-videos/internal/core/services"
	test "github.com/quickmv/quick-music-videos/internal/testutil"
	"github.com/zeebo/assert"
)

// newStubRunware answers image inference requests with a URL derived from
// the prompt, and fails any prompt containing "broken".
func newStubRunware(t *testing.T) *services.RunwareService {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tasks []map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&tasks))
		assert.Equal(t, 1, len(tasks))
		assert.Equal(t, "imageInference", tasks[0]["taskType"])

		prompt := tasks[0]["positivePrompt"].(string)
		if strings.Contains(prompt, "broken") {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]string{{
				"taskType": "imageInference",
				"taskUUID": tasks[0]["taskUUID"].(string),
				"imageURL": "https://im.runware.ai/" + strings.ReplaceAll(prompt, " ", "-") + ".jpg",
			}},
		})
	}))
	t.Cleanup(server.Close)

	return services.NewRunwareService(server.URL, "test-key", "runware:100@1", 0, 0, 2)
}

func TestRunwareGenerateImage(t *testing.T) {
	s := newStubRunware(t)

	url, err := s.GenerateImage(context.Background(), "neon skyline")
	test.HandleErr(err, t)
	assert.Equal(t, "https://im.runware.ai/neon-skyline.jpg", url)
}

func TestRunwareGenerateBatchKeepsOrder(t *testing.T) {
	s := newStubRunware(t)

	urls := s.GenerateBatch(context.Background(), []string{"one", "two", "three", "four"})
	assert.Equal(t, 4, len(urls))
	assert.Equal(t, "https://im.runware.ai/one.jpg", urls[0])
	assert.Equal(t, "https://im.runware.ai/two.jpg", urls[1])
	assert.Equal(t, "https://im.runware.ai/three.jpg", urls[2])
	assert.Equal(t, "https://im.runware.ai/four.jpg", urls[3])
}

func TestRunwareGenerateBatchToleratesFailures(t *testing.T) {
	s := newStubRunware(t)

	urls := s.GenerateBatch(context.Background(), []string{"good one", "broken one", "good two"})
	assert.Equal(t, 3, len(urls))
	assert.Equal(t, "https://im.runware.ai/good-one.jpg", urls[0])
	assert.Equal(t, "", urls[1])
	assert.Equal(t, "https://im.runware.ai/good-two.jpg", urls[2])
}

func TestRunwareAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"errors": []map[string]string{{"message": "invalid model"}},
		})
	}))
	t.Cleanup(server.Close)

	s := services.NewRunwareService(server.URL, "test-key", "bogus", 0, 0, 1)
	_, err := s.GenerateImage(context.Background(), "anything")
	assert.Error(t, err)
}
