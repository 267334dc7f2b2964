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

package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/jaycherian/gcp-go-video-assessment/internal/cloud"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

const transcriptionInstruction = "Transcribe the speech in this audio verbatim. " +
	"Return only the transcript text without timestamps, speaker labels or commentary. " +
	"Return an empty response if there is no speech."

// AudioContentType returns the MIME type for an audio file name.
func AudioContentType(fileName string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(fileName)), ".")
	if ct, ok := audioContentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

func tokenCounters(name string) (metric.Int64Counter, metric.Int64Counter) {
	meter := otel.Meter(name)
	in, _ := meter.Int64Counter(name + ".token.input")
	out, _ := meter.Int64Counter(name + ".token.output")
	return in, out
}

// GeminiTranscriber sends the audio inline to a Gemini model.
type GeminiTranscriber struct {
	Model              *cloud.QuotaAwareGenerativeAIModel
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
}

func NewGeminiTranscriber(model *cloud.QuotaAwareGenerativeAIModel) *GeminiTranscriber {
	in, out := tokenCounters("transcription")
	return &GeminiTranscriber{Model: model, inputTokenCounter: in, outputTokenCounter: out}
}

func (t *GeminiTranscriber) Transcribe(ctx context.Context, audio io.Reader, fileName string) (string, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read audio %s: %w", model.ErrIO, fileName, err)
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(transcriptionInstruction),
			cloud.NewInlineData(data, AudioContentType(fileName)),
		}, genai.RoleUser),
	}
	text, err := cloud.GenerateMultiModalResponse(ctx, t.inputTokenCounter, t.outputTokenCounter, t.Model, contents)
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrTranscription, err)
	}
	return strings.TrimSpace(text), nil
}

// WhisperTranscriber calls an OpenAI compatible transcription endpoint.
type WhisperTranscriber struct {
	Client *openai.Client
	Model  string
}

func NewWhisperTranscriber(client *openai.Client, modelName string) *WhisperTranscriber {
	if modelName == "" {
		modelName = openai.Whisper1
	}
	return &WhisperTranscriber{Client: client, Model: modelName}
}

func (t *WhisperTranscriber) Transcribe(ctx context.Context, audio io.Reader, fileName string) (string, error) {
	resp, err := t.Client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.Model,
		Reader:   audio,
		FilePath: fileName,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrTranscription, err)
	}
	return strings.TrimSpace(resp.Text), nil
}
