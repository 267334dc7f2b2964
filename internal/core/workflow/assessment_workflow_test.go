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

package workflow_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-video-assessment/internal/cloud"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-video-assessment/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frameCount = 10

type fixture struct {
	config      *cloud.Config
	store       *test.FakeArtifactStore
	extractor   *test.FakeExtractor
	transcriber *test.FakeTranscriber
	completer   *test.FakeCompleter
	cache       *test.CountingCache
}

func newFixture() *fixture {
	store := test.NewFakeArtifactStore()
	return &fixture{
		config:      cloud.NewConfig(),
		store:       store,
		extractor:   &test.FakeExtractor{Store: store, FrameCount: frameCount},
		transcriber: &test.FakeTranscriber{Transcript: test.FakeTranscript},
		completer:   test.NewFakeCompleter(),
		cache:       test.NewCountingCache(),
	}
}

func (f *fixture) workflow(t *testing.T) *workflow.AssessmentWorkflow {
	t.Helper()
	w, err := workflow.NewAssessmentWorkflow(f.config, &workflow.Dependencies{
		Extractor:   f.extractor,
		Transcriber: f.transcriber,
		Completer:   f.completer,
		Cache:       f.cache,
		Store:       f.store,
	})
	require.NoError(t, err)
	return w
}

func writeVideo(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.mp4")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestAssessmentWorkflowComputesThenServesFromCache(t *testing.T) {
	f := newFixture()
	w := f.workflow(t)
	ctx := context.Background()

	first := writeVideo(t, "video bytes")
	record, err := w.Run(ctx, first, model.NewFrameSettings())
	require.NoError(t, err)
	require.NotNil(t, record)

	assert.False(t, record.Cached)
	assert.Len(t, record.Identifier, 64)
	assert.NotEmpty(t, record.Result.Document.General.Summary)
	assert.Equal(t, test.FakeTranscript, record.Result.Transcript)
	assert.Equal(t, frameCount, record.Result.FrameCount)
	for _, s := range model.Segments {
		assert.NotNil(t, record.Result.Document.Get(s), s)
	}

	assert.Equal(t, 2, f.extractor.Calls())
	assert.Equal(t, 1, f.transcriber.Calls())
	assert.Equal(t, len(model.Segments)+1, f.completer.Calls())
	assert.Equal(t, 1, f.cache.Creates())

	// Audio plus every frame is deleted once the run ends.
	assert.Len(t, f.store.Deleted(), frameCount+1)
	assert.Contains(t, f.store.Deleted(), test.FakeAudioURL)
	_, statErr := os.Stat(first)
	assert.True(t, os.IsNotExist(statErr))

	second := writeVideo(t, "video bytes")
	cached, err := w.Run(ctx, second, model.NewFrameSettings())
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Equal(t, record.Identifier, cached.Identifier)
	assert.Equal(t, record.Result.Document, cached.Result.Document)

	assert.Equal(t, 2, f.extractor.Calls())
	assert.Equal(t, 1, f.transcriber.Calls())
	assert.Equal(t, len(model.Segments)+1, f.completer.Calls())
	assert.Equal(t, 1, f.cache.Creates())

	stats := w.Stats()
	assert.Equal(t, int64(2), stats.Runs)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, int64(1), stats.Computed)
	assert.Equal(t, int64(0), stats.Failures)
}

func TestAssessmentWorkflowDifferentContentIsRecomputed(t *testing.T) {
	f := newFixture()
	w := f.workflow(t)

	a, err := w.Run(context.Background(), writeVideo(t, "first video"), model.NewFrameSettings())
	require.NoError(t, err)
	b, err := w.Run(context.Background(), writeVideo(t, "second video"), model.NewFrameSettings())
	require.NoError(t, err)

	assert.NotEqual(t, a.Identifier, b.Identifier)
	assert.Equal(t, 2, f.cache.Creates())
	assert.Equal(t, 2, f.cache.Len())
}

func TestAssessmentWorkflowRejectsInvalidSettings(t *testing.T) {
	f := newFixture()
	w := f.workflow(t)

	path := writeVideo(t, "video bytes")
	settings := model.NewFrameSettings()
	settings.IntervalSeconds = 0

	_, err := w.Run(context.Background(), path, settings)
	assert.ErrorIs(t, err, model.ErrIO)
	assert.Equal(t, 0, f.extractor.Calls())
	assert.Equal(t, 0, f.cache.Gets())

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestAssessmentWorkflowCompletionFailureCleansUp(t *testing.T) {
	f := newFixture()
	f.completer.Respond = func(messages []model.Message) (string, error) {
		if test.IsSummaryRequest(messages) {
			return f.completer.SummaryResponse, nil
		}
		return "", fmt.Errorf("%w: quota exhausted", model.ErrCompletion)
	}
	w := f.workflow(t)

	_, err := w.Run(context.Background(), writeVideo(t, "video bytes"), model.NewFrameSettings())
	assert.ErrorIs(t, err, model.ErrCompletion)
	assert.Equal(t, 0, f.cache.Creates())
	assert.Len(t, f.store.Deleted(), frameCount+1)
	assert.Equal(t, int64(1), w.Stats().Failures)
}

func TestAssessmentWorkflowExtractionFailureCleansUpOtherHalf(t *testing.T) {
	f := newFixture()
	f.extractor.FramesErr = fmt.Errorf("%w: ffmpeg exited with status 1", model.ErrExtraction)
	w := f.workflow(t)

	_, err := w.Run(context.Background(), writeVideo(t, "video bytes"), model.NewFrameSettings())
	assert.ErrorIs(t, err, model.ErrExtraction)
	assert.Equal(t, 0, f.transcriber.Calls())
	assert.Equal(t, 0, f.completer.Calls())
	assert.Contains(t, f.store.Deleted(), test.FakeAudioURL)
}

func TestAssessmentWorkflowInvalidShapeIsNotCached(t *testing.T) {
	f := newFixture()
	f.completer.SegmentResponse = `{"recomendations": "not a list", "assessmentIndicators": {}}`
	w := f.workflow(t)

	_, err := w.Run(context.Background(), writeVideo(t, "video bytes"), model.NewFrameSettings())
	assert.ErrorIs(t, err, model.ErrInvalidResultShape)
	assert.Equal(t, 0, f.cache.Creates())
}

func TestAssessmentWorkflowUnparsableResponse(t *testing.T) {
	f := newFixture()
	f.completer.SummaryResponse = "I am sorry, I cannot help with that."
	w := f.workflow(t)

	_, err := w.Run(context.Background(), writeVideo(t, "video bytes"), model.NewFrameSettings())
	assert.ErrorIs(t, err, model.ErrJSONParse)
	assert.Equal(t, 0, f.cache.Creates())
}

func TestAssessmentWorkflowEnforcesNonEmptyWhenConfigured(t *testing.T) {
	f := newFixture()
	f.config.Application.EnforceNonEmpty = true
	f.completer.SegmentResponse = `{"recomendations": [], "assessmentIndicators": {}}`
	w := f.workflow(t)

	_, err := w.Run(context.Background(), writeVideo(t, "video bytes"), model.NewFrameSettings())
	assert.ErrorIs(t, err, model.ErrInvalidResultShape)

	// The same responses pass the shape check alone.
	f = newFixture()
	f.completer.SegmentResponse = `{"recomendations": [], "assessmentIndicators": {}}`
	w = f.workflow(t)
	record, err := w.Run(context.Background(), writeVideo(t, "video bytes"), model.NewFrameSettings())
	require.NoError(t, err)
	assert.Empty(t, record.Result.Document.Opening.Recomendations)
}

func TestAssessmentWorkflowCacheFailure(t *testing.T) {
	f := newFixture()
	f.cache.GetErr = fmt.Errorf("%w: connection refused", model.ErrCache)
	w := f.workflow(t)

	_, err := w.Run(context.Background(), writeVideo(t, "video bytes"), model.NewFrameSettings())
	assert.ErrorIs(t, err, model.ErrCache)
	assert.Equal(t, 0, f.extractor.Calls())
}

func TestAssessmentWorkflowSharesInFlightComputation(t *testing.T) {
	f := newFixture()
	f.config.Application.DedupeInFlight = true

	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	summary := f.completer.SummaryResponse
	segment := f.completer.SegmentResponse
	f.completer.Respond = func(messages []model.Message) (string, error) {
		once.Do(func() { close(started) })
		<-release
		if test.IsSummaryRequest(messages) {
			return summary, nil
		}
		return segment, nil
	}
	w := f.workflow(t)

	var wg sync.WaitGroup
	paths := []string{writeVideo(t, "same video"), writeVideo(t, "same video")}
	records := make([]*model.ContentRecord, 2)
	errs := make([]error, 2)
	run := func(i int) {
		defer wg.Done()
		records[i], errs[i] = w.Run(context.Background(), paths[i], model.NewFrameSettings())
	}

	wg.Add(1)
	go run(0)
	<-started
	wg.Add(1)
	go run(1)
	// Give the second run time to join the first one's computation.
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, records[0].Identifier, records[1].Identifier)
	assert.Equal(t, 2, f.extractor.Calls())
	assert.Equal(t, 1, f.cache.Creates())
	assert.Equal(t, int64(1), w.Stats().Shared)
}

func TestAssessmentWorkflowDuplicateUploadsBothComputeLastWriteWins(t *testing.T) {
	f := newFixture()
	f.config.Application.DedupeInFlight = false
	// Both runs must reach extraction before either can continue, so both
	// have already missed the cache.
	f.extractor.Gate = test.NewBarrier(4)

	var summaries atomic.Int32
	segment := f.completer.SegmentResponse
	f.completer.Respond = func(messages []model.Message) (string, error) {
		if !test.IsSummaryRequest(messages) {
			return segment, nil
		}
		n := summaries.Add(1)
		if n == 2 {
			// Hold the second writer until the first result is stored.
			deadline := time.Now().Add(5 * time.Second)
			for f.cache.Len() == 0 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
		}
		item := model.GetExampleGeneralResultItem()
		item.Summary = fmt.Sprintf("write %d", n)
		out, err := json.Marshal(item)
		return string(out), err
	}
	w := f.workflow(t)

	var wg sync.WaitGroup
	paths := []string{writeVideo(t, "same video"), writeVideo(t, "same video")}
	records := make([]*model.ContentRecord, 2)
	errs := make([]error, 2)
	for i := range paths {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			records[i], errs[i] = w.Run(context.Background(), paths[i], model.NewFrameSettings())
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, records[0].Identifier, records[1].Identifier)
	assert.False(t, records[0].Cached)
	assert.False(t, records[1].Cached)

	assert.Equal(t, 4, f.extractor.Calls())
	assert.Equal(t, 2, f.transcriber.Calls())
	assert.Equal(t, 2*(len(model.Segments)+1), f.completer.Calls())
	assert.Equal(t, 2, f.cache.Creates())

	stored, err := f.cache.Get(context.Background(), records[0].Identifier)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "write 2", stored.Result.Document.General.Summary)

	stats := w.Stats()
	assert.Equal(t, int64(2), stats.Computed)
	assert.Equal(t, int64(0), stats.Shared)
}

func TestAssessmentWorkflowAsChainCommand(t *testing.T) {
	f := newFixture()
	w := f.workflow(t)

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(context.Background())
	defer chainCtx.Close()

	// Without a video path the workflow is not executable.
	assert.False(t, w.IsExecutable(chainCtx))

	chainCtx.Add(commands.ParamVideoPath, writeVideo(t, "video bytes"))
	assert.True(t, w.IsExecutable(chainCtx))
	w.Execute(chainCtx)
	require.NoError(t, chainCtx.Err())
	assert.NotNil(t, chainCtx.Get(commands.ParamRecord))
}

func TestAssessmentWorkflowErrorsAreClassified(t *testing.T) {
	f := newFixture()
	f.transcriber.Err = fmt.Errorf("%w: model unavailable", model.ErrTranscription)
	w := f.workflow(t)

	_, err := w.Run(context.Background(), writeVideo(t, "video bytes"), model.NewFrameSettings())
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrTranscription))
	assert.False(t, errors.Is(err, model.ErrCompletion))
	assert.Contains(t, err.Error(), "transcribe-audio")
}
