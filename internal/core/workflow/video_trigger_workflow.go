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

package workflow

import (
	"github.com/jaycherian/gcp-go-video-assessment/internal/cloud"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/commands"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/services"
)

// VideoTriggerWorkflow assesses a video announced by a Cloud Storage
// notification. The message text is expected under cor.CtxIn.
type VideoTriggerWorkflow struct {
	cor.BaseCommand
	settings model.FrameSettings
	chain    cor.Chain
}

// FrameSettingsFromConfig returns the configured sampling settings.
func FrameSettingsFromConfig(config *cloud.Config) model.FrameSettings {
	return model.FrameSettings{
		IntervalSeconds: config.Extraction.IntervalSeconds,
		ImageFormat:     config.Extraction.ImageFormat,
		Quality:         config.Extraction.Quality,
	}
}

func NewVideoTriggerWorkflow(config *cloud.Config, store services.ArtifactStore, assessment *AssessmentWorkflow) *VideoTriggerWorkflow {
	out := &VideoTriggerWorkflow{
		BaseCommand: *cor.NewBaseCommand("video-trigger-workflow"),
		settings:    FrameSettingsFromConfig(config),
	}
	out.chain = cor.NewBaseChain(out.GetName()).
		AddCommand(commands.NewMediaTriggerToGCSObject("media-trigger-to-gcs-object")).
		AddCommand(commands.NewGCSToTempFile("gcs-to-temp-file", store, "video-download-")).
		AddCommand(assessment)
	return out
}

func (w *VideoTriggerWorkflow) Execute(context cor.Context) {
	if context.Get(commands.ParamFrameSettings) == nil {
		context.Add(commands.ParamFrameSettings, w.settings)
	}
	w.chain.Execute(context)
}
