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

package commands

import (
	goctx "context"
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/services"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const cleanupTimeout = time.Minute

// MediaCleanup deletes the remote artifacts staged during the run. It runs
// on every exit path, so deletion failures are logged and never recorded
// as chain errors. Local files are removed by cor.Context.Close.
type MediaCleanup struct {
	cor.BaseCommand
	store services.ArtifactStore
}

func NewMediaCleanup(name string, store services.ArtifactStore) *MediaCleanup {
	out := &MediaCleanup{BaseCommand: *cor.NewBaseCommand(name), store: store}
	out.InputParamName = ParamArtifacts
	return out
}

func (c *MediaCleanup) Execute(context cor.Context) {
	urls := context.Get(c.GetInputParam()).(*Artifacts).URLs()

	// The run's context may already be cancelled; cleanup still has to happen.
	ctx, cancel := goctx.WithTimeout(goctx.WithoutCancel(context.GetContext()), cleanupTimeout)
	defer cancel()

	failed := 0
	for _, u := range urls {
		if err := c.store.Delete(ctx, u); err != nil {
			failed++
			slog.WarnContext(ctx, "failed to delete artifact", "url", u, "error", err)
		}
	}
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("artifacts", len(urls)),
		attribute.Int("failed", failed),
	)
	c.Succeed(context)
}
