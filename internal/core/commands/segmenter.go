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
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/assessment"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Segmenter buckets the frames into the five narrative segments and splits
// the transcript proportionally.
type Segmenter struct {
	cor.BaseCommand
}

func NewSegmenter(name string) *Segmenter {
	out := &Segmenter{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = ParamFrameSet
	return out
}

func (c *Segmenter) IsExecutable(context cor.Context) bool {
	return hasParams(context, ParamFrameSet, ParamTranscript)
}

func (c *Segmenter) Execute(context cor.Context) {
	frames := context.Get(ParamFrameSet).(*model.FrameSet)
	transcript := context.Get(ParamTranscript).(string)

	categories := assessment.Categorize(frames.Frames)
	segments := assessment.Split(transcript, categories)

	span := trace.SpanFromContext(context.GetContext())
	for _, s := range model.Segments {
		span.SetAttributes(attribute.Int(string(s), len(categories.Get(s))))
	}
	c.Succeed(context)
	context.Add(ParamCategorizedFrames, categories)
	context.Add(ParamTranscriptSegments, segments)
}
