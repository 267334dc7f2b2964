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

// Package cor (Chain of Responsibility) provides the building blocks used to
// express the assessment pipeline as an ordered sequence of commands sharing
// a single Context.
//
// A Command reads its input from the Context, does one unit of work and
// writes its output (or an error) back. A Chain is itself a Command that runs
// other commands in order, stops at the first error and pipes the output of
// one command into the input of the next.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	// CtxIn is the default input key. BaseChain fills it with the previous
	// command's CtxOut value.
	CtxIn = "__IN__"
	// CtxOut is the default output key.
	CtxOut = "__OUT__"
)

// Context is the state shared by all commands of one workflow execution.
type Context interface {
	// SetContext replaces the Go context carried for cancellation and tracing.
	SetContext(context context.Context)

	// GetContext returns the Go context.
	GetContext() context.Context

	// Add stores a value under key and returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records err under key, normally the failing command's name.
	AddError(key string, err error)

	// GetErrors returns the recorded errors keyed by command name.
	GetErrors() map[string]error

	// Err joins all recorded errors into one, or returns nil.
	Err() error

	// Get returns the value stored under key, or nil.
	Get(key string) interface{}

	// Remove deletes key.
	Remove(key string)

	// HasErrors reports whether any error was recorded.
	HasErrors() bool

	// AddTempFile registers a local file to delete on Close.
	AddTempFile(file string)

	// GetTempFiles returns the registered local files.
	GetTempFiles() []string

	// Close deletes the registered temporary files. Failures are logged and
	// never reported as workflow errors.
	Close()
}

// Executable is anything that can run against a Context.
type Executable interface {
	Execute(context Context)
}

// Command is a named, instrumented unit of work.
type Command interface {
	Executable

	GetName() string

	// GetInputParam is the Context key the command reads its input from.
	GetInputParam() string

	// GetOutputParam is the Context key the command writes its output to.
	GetOutputParam() string

	// IsExecutable is the precondition checked before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain runs a list of commands in order.
type Chain interface {
	Command

	// ContinueOnFailure keeps the chain running after a command records an error.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the chain.
	AddCommand(command Command) Chain
}
