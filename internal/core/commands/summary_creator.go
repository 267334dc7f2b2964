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
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/services"
)

// SummaryCreator asks for the whole-video summary once every segment has
// been evaluated.
type SummaryCreator struct {
	cor.BaseCommand
	completer services.Completer
	prompts   *assessment.PromptBuilder
}

func NewSummaryCreator(name string, completer services.Completer, prompts *assessment.PromptBuilder) *SummaryCreator {
	out := &SummaryCreator{BaseCommand: *cor.NewBaseCommand(name), completer: completer, prompts: prompts}
	out.InputParamName = ParamSegmentResults
	return out
}

func (c *SummaryCreator) IsExecutable(context cor.Context) bool {
	return hasParams(context, ParamSegmentResults, ParamTranscript)
}

func (c *SummaryCreator) Execute(context cor.Context) {
	results := context.Get(ParamSegmentResults).(map[model.Segment]string)
	transcript := context.Get(ParamTranscript).(string)

	prompt, err := c.prompts.BuildSummaryPrompt(results, transcript)
	if err != nil {
		c.Fail(context, err)
		return
	}
	out, err := c.completer.Complete(context.GetContext(), []model.Message{
		{Role: model.RoleSystem, Content: EvaluatorSystemPrompt},
		{Role: model.RoleUser, Content: prompt},
	})
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context)
	context.Add(ParamSummaryResult, out)
}
