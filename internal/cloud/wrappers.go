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

// This file wraps the generative model client with rate limiting and retry.
// Vertex AI enforces per-minute request quotas; the wrapper keeps the
// application under them and retries transient failures instead of
// surfacing them to the caller.
package cloud

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// QuotaAwareGenerativeAIModel decorates a generative model with a rate
// limiter. Calls that exceed the limit are delayed, not dropped.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig
	ModelName               string
	ModelHandle             *genai.Models
	RateLimit               rate.Limiter
}

// NewQuotaAwareModel wraps the model configuration with a limiter allowing
// requestsPerSecond calls with an equal burst.
func NewQuotaAwareModel(wrapped *genai.GenerateContentConfig, name string, modelHandle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: wrapped,
		ModelName:               name,
		ModelHandle:             modelHandle,
		RateLimit:               *rate.NewLimiter(rate.Every(time.Second/1), requestsPerSecond),
	}
}

// GenerateContent enforces the rate limit and retries failed calls up to
// three times with a backoff pause. When the limiter denies the request the
// call waits and re-queues itself.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (resp *genai.GenerateContentResponse, err error) {
	if q.RateLimit.Allow() {
		resp, err = q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
		if err != nil {
			retryCount, ok := ctx.Value(retryKey{}).(int)
			if !ok {
				retryCount = 0
			}
			if retryCount >= MaxRetries {
				return nil, errors.New("failed generation on max retries")
			}
			errCtx := context.WithValue(ctx, retryKey{}, retryCount+1)
			time.Sleep(retryBackoff)
			return q.GenerateContent(errCtx, content)
		}
		return resp, err
	}
	time.Sleep(rateLimitPause)
	return q.GenerateContent(ctx, content)
}

type retryKey struct{}

const (
	retryBackoff   = 10 * time.Second
	rateLimitPause = 5 * time.Second
)
