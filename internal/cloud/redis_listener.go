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

// This file defines the Redis pub/sub listener that drives the background
// workers, and the publisher interface the phase pipelines use to hand off
// to the next phase. A listener binds one channel to one command chain:
// each message received on the channel becomes the input of a chain
// execution. Redis pub/sub is fire-and-forget, so a failed chain execution
// is logged and the message is gone; the phase tracker records the failure
// for clients to observe.
package cloud

import (
	"context"
	"log"
	"log/slog"

	"github.com/quickmv/quick-music-videos/internal/core/cor"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Publisher sends a message to a named channel. The API server publishes
// phase triggers through this interface so handlers can run without a live
// Redis connection (a nil publisher is handled by callers).
type Publisher interface {
	Publish(ctx context.Context, channel string, message string) error
}

// RedisPublisher publishes over a shared Redis client.
type RedisPublisher struct {
	client *redis.Client
}

// NewRedisPublisher creates a publisher over the given client.
func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

// Publish sends a message on a channel. Subscribers that are not connected
// at publish time never see the message.
func (p *RedisPublisher) Publish(ctx context.Context, channel string, message string) error {
	return p.client.Publish(ctx, channel, message).Err()
}

// RedisListener subscribes to one Redis channel and executes its command
// chain for every message received. Listeners have a life-cycle independent
// of individual API requests, so they live with the other shared cloud
// components.
type RedisListener struct {
	client  *redis.Client
	channel string
	command cor.Command
}

// NewRedisListener creates a listener for the named channel. The command is
// usually attached later, once the workflow chains are assembled.
func NewRedisListener(client *redis.Client, channel string, command cor.Command) *RedisListener {
	return &RedisListener{
		client:  client,
		channel: channel,
		command: command,
	}
}

// SetCommand attaches a command to the listener. The first command attached
// wins; later calls are ignored so the initial wiring is never overwritten.
func (m *RedisListener) SetCommand(command cor.Command) {
	if m.command == nil {
		m.command = command
	}
}

// Listen subscribes to the channel and starts a goroutine that executes the
// attached command for each message. Canceling the context stops the
// subscription and ends the goroutine.
func (m *RedisListener) Listen(ctx context.Context) {
	log.Printf("listening: %s", m.channel)

	sub := m.client.Subscribe(ctx, m.channel)

	go func() {
		tracer := otel.Tracer("message-listener")
		defer func() { _ = sub.Close() }()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				spanCtx, span := tracer.Start(ctx, "receive-message")
				span.SetAttributes(attribute.String("channel", m.channel))
				span.SetAttributes(attribute.String("msg", msg.Payload))

				chainCtx := cor.NewBaseContext()
				chainCtx.SetContext(spanCtx)
				chainCtx.Add(cor.CtxIn, msg.Payload)

				m.command.Execute(chainCtx)

				if !chainCtx.HasErrors() {
					span.SetStatus(codes.Ok, "success")
				} else {
					span.SetStatus(codes.Error, "failed")
					for _, e := range chainCtx.GetErrors() {
						slog.Error("error executing chain", "channel", m.channel, "error", e)
					}
				}
				span.End()
			}
		}
	}()
}
