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

// Package cor implements a Chain of Responsibility framework for building
// workflows out of small, independently testable commands. A Chain runs its
// commands in order and pipes each command's primary output into the next
// command's primary input through the shared Context.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut key the primary data flow through a chain. A chain moves
// whatever a command stored under CtxOut into CtxIn before running the next
// command.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state for one workflow execution. Commands read
// their inputs from it, record their outputs and errors into it, and
// register temporary files for cleanup.
type Context interface {
	// SetContext sets the Go context carrying cancellation and trace state.
	SetContext(context context.Context)

	// GetContext returns the Go context.
	GetContext() context.Context

	// Add stores a value under a key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error, keyed by the command that produced it.
	AddError(key string, err error)

	// GetErrors returns all errors recorded so far.
	GetErrors() map[string]error

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes a key.
	Remove(key string)

	// HasErrors reports whether any command recorded an error.
	HasErrors() bool

	// AddTempFile registers a temporary file for cleanup in Close.
	AddTempFile(file string)

	// GetTempFiles returns the registered temporary file paths.
	GetTempFiles() []string

	// Close removes registered temporary files. Defer it when starting a
	// workflow.
	Close()
}

// Executable is anything with a core execution step.
type Executable interface {
	Execute(context Context)
}

// Command is an atomic, thread-safe unit of work with built-in telemetry.
type Command interface {
	Executable

	// GetName returns the command name used for logging and telemetry.
	GetName() string

	// GetInputParam returns the context key this command reads its primary
	// input from.
	GetInputParam() string

	// GetOutputParam returns the context key this command writes its primary
	// output to.
	GetOutputParam() string

	// IsExecutable reports whether the context holds everything the command
	// needs to run.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command, so
// chains can nest.
type Chain interface {
	Command

	// ContinueOnFailure controls whether the chain keeps executing commands
	// after one of them records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
