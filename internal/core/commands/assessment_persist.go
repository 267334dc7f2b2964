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
	"log/slog"
	"time"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/services"
)

// AssessmentPersist stores the validated document together with the data
// it was derived from, and publishes the stored record under ParamRecord.
type AssessmentPersist struct {
	cor.BaseCommand
	cache services.ResultCache
	now   func() time.Time
}

func NewAssessmentPersist(name string, cache services.ResultCache) *AssessmentPersist {
	out := &AssessmentPersist{BaseCommand: *cor.NewBaseCommand(name), cache: cache, now: time.Now}
	out.InputParamName = ParamDocument
	return out
}

func (c *AssessmentPersist) IsExecutable(context cor.Context) bool {
	return hasParams(context, ParamDocument, ParamIdentifier)
}

// BuildResult gathers the document and the ancillary run data from the
// context.
func (c *AssessmentPersist) BuildResult(context cor.Context) *model.AssessmentResult {
	result := &model.AssessmentResult{
		Document:      context.Get(ParamDocument).(*model.AssessmentDocument),
		FrameSettings: model.NewFrameSettings(),
		CreatedAt:     c.now().UTC(),
	}
	if transcript, ok := context.Get(ParamTranscript).(string); ok {
		result.Transcript = transcript
	}
	if audio, ok := context.Get(ParamAudio).(*model.AudioAsset); ok {
		stored := *audio
		result.Audio = &stored
	}
	if frames, ok := context.Get(ParamFrameSet).(*model.FrameSet); ok {
		meta := frames.VideoMeta
		result.VideoMeta = &meta
		result.FrameSettings = frames.Settings
		result.FrameCount = len(frames.Frames)
	}
	return result
}

func (c *AssessmentPersist) Execute(context cor.Context) {
	id := context.Get(ParamIdentifier).(string)
	record, err := c.cache.Create(context.GetContext(), id, c.BuildResult(context))
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context)
	slog.InfoContext(context.GetContext(), "stored assessment", "identifier", id)
	context.Add(ParamRecord, record)
}
