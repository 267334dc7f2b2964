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
	"fmt"
	"sync"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/assessment"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/services"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// EvaluatorSystemPrompt is sent ahead of every segment and summary request.
const EvaluatorSystemPrompt = "You are an expert in narrative structure and video storytelling. " +
	"You answer with strict JSON only."

// SegmentEvaluator runs one completion per narrative segment on a pool of
// at least one worker per segment. Jobs share no mutable state; each result
// lands in its own slot of the output map once all workers are done.
type SegmentEvaluator struct {
	cor.BaseCommand
	completer       services.Completer
	prompts         *assessment.PromptBuilder
	numberOfWorkers int
}

func NewSegmentEvaluator(name string, completer services.Completer, prompts *assessment.PromptBuilder, numberOfWorkers int) *SegmentEvaluator {
	// Every segment gets its own worker so all evaluations are in flight at once.
	numberOfWorkers = max(numberOfWorkers, len(model.Segments))
	out := &SegmentEvaluator{
		BaseCommand:     *cor.NewBaseCommand(name),
		completer:       completer,
		prompts:         prompts,
		numberOfWorkers: numberOfWorkers,
	}
	out.InputParamName = ParamCategorizedFrames
	return out
}

func (s *SegmentEvaluator) IsExecutable(context cor.Context) bool {
	return hasParams(context, ParamCategorizedFrames, ParamTranscriptSegments)
}

func (s *SegmentEvaluator) Execute(context cor.Context) {
	categories := context.Get(ParamCategorizedFrames).(*model.CategorizedFrames)
	segments := context.Get(ParamTranscriptSegments).(*model.TranscriptSegments)

	var wg sync.WaitGroup
	jobs := make(chan *SegmentJob, len(model.Segments))
	results := make(chan *model.SegmentEvaluation, len(model.Segments))
	failures := make(chan error, len(model.Segments))

	for w := 0; w < s.numberOfWorkers; w++ {
		wg.Add(1)
		go segmentWorker(s.completer, jobs, results, failures, &wg)
	}

	for _, segment := range model.Segments {
		jobs <- s.createJob(context.GetContext(), segment, categories.Get(segment), segments.Get(segment))
	}
	close(jobs)
	wg.Wait()
	close(results)
	close(failures)

	for err := range failures {
		s.Fail(context, err)
	}
	if context.HasErrors() {
		return
	}

	out := make(map[model.Segment]string, len(model.Segments))
	for r := range results {
		out[r.Segment] = r.Raw
	}
	s.Succeed(context)
	context.Add(ParamSegmentResults, out)
}

// SegmentJob is the evaluation request of one segment.
type SegmentJob struct {
	segment  model.Segment
	ctx      goctx.Context
	span     trace.Span
	messages []model.Message
	err      error
}

func (j *SegmentJob) Close(status codes.Code, description string) {
	j.span.SetStatus(status, description)
	j.span.End()
}

func (s *SegmentEvaluator) createJob(ctx goctx.Context, segment model.Segment, frames []model.Frame, transcript string) *SegmentJob {
	segmentCtx, span := s.Tracer.Start(ctx, fmt.Sprintf("%s_%s", s.GetName(), segment))
	span.SetAttributes(
		attribute.String("segment", string(segment)),
		attribute.Int("frames", len(frames)),
	)
	job := &SegmentJob{segment: segment, ctx: segmentCtx, span: span}

	prompt, err := s.prompts.BuildSegmentPrompt(segment, transcript, frames)
	if err != nil {
		job.err = err
		return job
	}
	job.messages = []model.Message{
		{Role: model.RoleSystem, Content: EvaluatorSystemPrompt},
		{Role: model.RoleUser, Content: prompt},
	}
	return job
}

func segmentWorker(completer services.Completer, jobs <-chan *SegmentJob, results chan<- *model.SegmentEvaluation, failures chan<- error, wg *sync.WaitGroup) {
	defer wg.Done()

	for j := range jobs {
		if j.err != nil {
			j.Close(codes.Error, "prompt failed")
			failures <- fmt.Errorf("%s: %w", j.segment, j.err)
			continue
		}
		out, err := completer.Complete(j.ctx, j.messages)
		if err != nil {
			j.span.RecordError(err)
			j.Close(codes.Error, "segment evaluation failed")
			failures <- fmt.Errorf("%s: %w", j.segment, err)
			continue
		}
		results <- &model.SegmentEvaluation{Segment: j.segment, Raw: out}
		j.Close(codes.Ok, "segment evaluated")
	}
}
