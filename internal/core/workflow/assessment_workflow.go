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

// Package workflow assembles the assessment commands into runnable
// pipelines.
//
// AssessmentWorkflow is the core pipeline:
//
//	hash -> cache lookup -> (hit) done
//	                     -> (miss) extract -> transcribe -> segment ->
//	                        evaluate -> summarize -> validate -> persist
//
// The remote artifacts of the run are deleted on every exit path.
// VideoTriggerWorkflow puts a Cloud Storage notification in front of it.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jaycherian/gcp-go-video-assessment/internal/cloud"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/assessment"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/services"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"
)

// ErrNoRecord is returned when the pipeline ends without an error but also
// without a record, which means a stage could not run for lack of input.
var ErrNoRecord = errors.New("assessment produced no record")

// Dependencies are the collaborators of the pipeline.
type Dependencies struct {
	Extractor   services.MediaExtractor
	Transcriber services.Transcriber
	Completer   services.Completer
	Cache       services.ResultCache
	Store       services.ArtifactStore
}

// Stats counts pipeline outcomes since start.
type Stats struct {
	Runs      int64 `json:"runs"`
	CacheHits int64 `json:"cacheHits"`
	Computed  int64 `json:"computed"`
	Failures  int64 `json:"failures"`
	Shared    int64 `json:"shared"` // Runs answered by a concurrent computation.
}

type AssessmentWorkflow struct {
	cor.BaseCommand
	lookup  cor.Chain
	compute cor.Chain
	cleanup cor.Command
	dedupe  bool
	group   singleflight.Group

	runs      atomic.Int64
	cacheHits atomic.Int64
	computed  atomic.Int64
	failures  atomic.Int64
	shared    atomic.Int64
}

func NewAssessmentWorkflow(config *cloud.Config, deps *Dependencies) (*AssessmentWorkflow, error) {
	prompts, err := assessment.NewPromptBuilder(config.PromptTemplates.SegmentPrompt, config.PromptTemplates.SummaryPrompt)
	if err != nil {
		return nil, err
	}

	w := &AssessmentWorkflow{
		BaseCommand: *cor.NewBaseCommand("assessment-workflow"),
		dedupe:      config.Application.DedupeInFlight,
	}
	w.InputParamName = commands.ParamVideoPath

	w.lookup = cor.NewBaseChain("assessment-lookup").
		AddCommand(commands.NewContentIdentifier("identify-content")).
		AddCommand(commands.NewCacheLookup("cache-lookup", deps.Cache))

	w.compute = cor.NewBaseChain("assessment-compute").
		AddCommand(commands.NewMediaExtraction("extract-media", deps.Extractor)).
		AddCommand(commands.NewAudioTranscriber("transcribe-audio", deps.Store, deps.Transcriber)).
		AddCommand(commands.NewSegmenter("segment-media")).
		AddCommand(commands.NewSegmentEvaluator("evaluate-segments", deps.Completer, prompts, config.Application.ThreadPoolSize)).
		AddCommand(commands.NewSummaryCreator("create-summary", deps.Completer, prompts)).
		AddCommand(commands.NewAssessmentValidator("validate-assessment", config.Application.EnforceNonEmpty)).
		AddCommand(commands.NewAssessmentPersist("persist-assessment", deps.Cache))

	w.cleanup = commands.NewMediaCleanup("cleanup-artifacts", deps.Store)
	return w, nil
}

func (w *AssessmentWorkflow) Execute(context cor.Context) {
	w.runs.Add(1)
	if settings, ok := context.Get(commands.ParamFrameSettings).(model.FrameSettings); ok {
		if err := settings.Validate(); err != nil {
			w.failures.Add(1)
			w.Fail(context, err)
			return
		}
	}

	w.lookup.Execute(context)
	if context.HasErrors() {
		w.failures.Add(1)
		return
	}
	if context.Get(commands.ParamRecord) != nil {
		w.cacheHits.Add(1)
		w.Succeed(context)
		return
	}
	id, ok := context.Get(commands.ParamIdentifier).(string)
	if !ok {
		w.failures.Add(1)
		w.Fail(context, ErrNoRecord)
		return
	}

	if w.dedupe {
		w.executeShared(context, id)
	} else {
		w.executeCompute(context)
	}

	if context.HasErrors() {
		w.failures.Add(1)
		return
	}
	if context.Get(commands.ParamRecord) == nil {
		w.failures.Add(1)
		w.Fail(context, ErrNoRecord)
		return
	}
	w.Succeed(context)
}

func (w *AssessmentWorkflow) executeCompute(context cor.Context) {
	defer func() {
		if w.cleanup.IsExecutable(context) {
			w.cleanup.Execute(context)
		}
	}()
	w.compute.Execute(context)
	if !context.HasErrors() {
		w.computed.Add(1)
	}
}

// executeShared lets one caller per identifier compute; concurrent callers
// for the same identifier receive its record or its error.
func (w *AssessmentWorkflow) executeShared(context cor.Context, id string) {
	v, err, shared := w.group.Do(id, func() (interface{}, error) {
		w.executeCompute(context)
		if err := context.Err(); err != nil {
			return nil, err
		}
		return context.Get(commands.ParamRecord), nil
	})
	if !shared {
		return
	}
	if context.Get(commands.ParamRecord) != nil || context.HasErrors() {
		// This caller was the one that computed.
		return
	}
	w.shared.Add(1)
	if err != nil {
		w.Fail(context, fmt.Errorf("shared computation for %s: %w", id, err))
		return
	}
	if record, ok := v.(*model.ContentRecord); ok && record != nil {
		context.Add(commands.ParamRecord, record)
	}
}

// Run assesses the video at videoPath. The workflow takes ownership of the
// file and removes it before returning.
func (w *AssessmentWorkflow) Run(ctx context.Context, videoPath string, settings model.FrameSettings) (*model.ContentRecord, error) {
	spanCtx, span := w.Tracer.Start(ctx, w.GetName())
	defer span.End()

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(spanCtx)
	chainCtx.AddTempFile(videoPath)
	defer chainCtx.Close()
	chainCtx.Add(commands.ParamVideoPath, videoPath)
	chainCtx.Add(commands.ParamFrameSettings, settings)

	w.Execute(chainCtx)

	if err := chainCtx.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assessment failed")
		slog.ErrorContext(spanCtx, "assessment failed", "error", err)
		return nil, err
	}
	span.SetStatus(codes.Ok, "assessment completed")
	return chainCtx.Get(commands.ParamRecord).(*model.ContentRecord), nil
}

// Stats returns a snapshot of the outcome counters.
func (w *AssessmentWorkflow) Stats() Stats {
	return Stats{
		Runs:      w.runs.Load(),
		CacheHits: w.cacheHits.Load(),
		Computed:  w.computed.Load(),
		Failures:  w.failures.Load(),
		Shared:    w.shared.Load(),
	}
}
