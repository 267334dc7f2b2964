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
	"fmt"
	"log/slog"
	"path"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/services"
)

// AudioTranscriber produces the transcript of the extracted audio. A
// transcript already attached to the audio asset is used as is; otherwise
// the staged audio is fetched and sent to the transcriber.
type AudioTranscriber struct {
	cor.BaseCommand
	store       services.ArtifactStore
	transcriber services.Transcriber
}

func NewAudioTranscriber(name string, store services.ArtifactStore, transcriber services.Transcriber) *AudioTranscriber {
	out := &AudioTranscriber{BaseCommand: *cor.NewBaseCommand(name), store: store, transcriber: transcriber}
	out.InputParamName = ParamAudio
	return out
}

func (c *AudioTranscriber) Execute(context cor.Context) {
	audio := context.Get(c.GetInputParam()).(*model.AudioAsset)
	if audio.Transcript != nil {
		c.Succeed(context)
		context.Add(ParamTranscript, *audio.Transcript)
		return
	}

	reader, err := c.store.Open(context.GetContext(), audio.Url)
	if err != nil {
		c.Fail(context, fmt.Errorf("%w: failed to fetch audio %s: %w", model.ErrTranscription, audio.Url, err))
		return
	}
	defer func() {
		if err := reader.Close(); err != nil {
			slog.Warn("failed to close audio reader", "url", audio.Url, "error", err)
		}
	}()

	transcript, err := c.transcriber.Transcribe(context.GetContext(), reader, "audio."+audioExtension(audio))
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context)
	context.Add(ParamTranscript, transcript)
}

func audioExtension(audio *model.AudioAsset) string {
	if audio.Format != "" {
		return audio.Format
	}
	if ext := path.Ext(audio.Url); len(ext) > 1 {
		return ext[1:]
	}
	return "mp3"
}
