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
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/services"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// MediaExtraction extracts the audio track and the frames concurrently.
// Both must succeed. Whatever was staged remotely, including the output of
// the half that succeeded when the other failed, is added to the run's
// Artifacts for cleanup.
type MediaExtraction struct {
	cor.BaseCommand
	extractor services.MediaExtractor
}

func NewMediaExtraction(name string, extractor services.MediaExtractor) *MediaExtraction {
	out := &MediaExtraction{BaseCommand: *cor.NewBaseCommand(name), extractor: extractor}
	out.InputParamName = ParamVideoPath
	return out
}

func (c *MediaExtraction) Execute(context cor.Context) {
	path := context.Get(c.GetInputParam()).(string)
	settings, ok := context.Get(ParamFrameSettings).(model.FrameSettings)
	if !ok {
		settings = model.NewFrameSettings()
	}
	artifacts := GetArtifacts(context)

	var audio *model.AudioAsset
	var frames *model.FrameSet
	g, gctx := errgroup.WithContext(context.GetContext())
	g.Go(func() error {
		a, err := c.extractor.ExtractAudio(gctx, path)
		artifacts.AddAudio(a)
		audio = a
		return err
	})
	g.Go(func() error {
		f, err := c.extractor.ExtractFrames(gctx, path, settings)
		artifacts.AddFrames(f)
		frames = f
		return err
	})
	if err := g.Wait(); err != nil {
		c.Fail(context, err)
		return
	}

	trace.SpanFromContext(context.GetContext()).SetAttributes(
		attribute.Int("frames", len(frames.Frames)),
		attribute.Float64("duration", frames.VideoMeta.DurationSeconds),
	)
	c.Succeed(context)
	context.Add(ParamAudio, audio)
	context.Add(ParamFrameSet, frames)
}
