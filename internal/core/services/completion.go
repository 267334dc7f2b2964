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

	"github.com/jaycherian/gcp-go-video-assessment/internal/cloud"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel/metric"
	"google.golang.org/genai"
)

// GeminiContents converts messages to Gemini contents. System messages are
// not a Gemini role and are sent as leading user turns; assistant turns map
// to the "model" role.
func GeminiContents(messages []model.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		var role genai.Role = genai.RoleUser
		if m.Role == model.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}

// GeminiCompleter sends conversations to a rate limited Gemini model.
type GeminiCompleter struct {
	Model              *cloud.QuotaAwareGenerativeAIModel
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
}

func NewGeminiCompleter(model *cloud.QuotaAwareGenerativeAIModel) *GeminiCompleter {
	in, out := tokenCounters("completion")
	return &GeminiCompleter{Model: model, inputTokenCounter: in, outputTokenCounter: out}
}

func (c *GeminiCompleter) Complete(ctx context.Context, messages []model.Message) (string, error) {
	text, err := cloud.GenerateMultiModalResponse(ctx, c.inputTokenCounter, c.outputTokenCounter, c.Model, GeminiContents(messages))
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrCompletion, err)
	}
	return text, nil
}

// OpenAICompleter calls an OpenAI compatible chat completion endpoint in
// JSON mode.
type OpenAICompleter struct {
	Client             *openai.Client
	Model              string
	inputTokenCounter  metric.Int64Counter
	outputTokenCounter metric.Int64Counter
}

func NewOpenAICompleter(client *openai.Client, modelName string) *OpenAICompleter {
	if modelName == "" {
		modelName = openai.GPT4oMini
	}
	in, out := tokenCounters("completion")
	return &OpenAICompleter{Client: client, Model: modelName, inputTokenCounter: in, outputTokenCounter: out}
}

func (c *OpenAICompleter) Complete(ctx context.Context, messages []model.Message) (string, error) {
	chat := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		chat = append(chat, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	resp, err := c.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          c.Model,
		Messages:       chat,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrCompletion, err)
	}
	c.inputTokenCounter.Add(ctx, int64(resp.Usage.PromptTokens))
	c.outputTokenCounter.Add(ctx, int64(resp.Usage.CompletionTokens))
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", model.ErrCompletion)
	}
	return resp.Choices[0].Message.Content, nil
}
