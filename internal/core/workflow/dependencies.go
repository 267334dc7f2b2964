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
	"context"
	"fmt"
	"log/slog"

	"github.com/jaycherian/gcp-go-video-assessment/internal/cloud"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/services"
)

// NewDependencies selects the collaborators named by the configuration and
// binds them to the initialized clients. The cache table is created when the
// backend needs one.
func NewDependencies(ctx context.Context, config *cloud.Config, clients *cloud.ServiceClients) (*Dependencies, error) {
	store := services.NewGCSArtifactStore(config, clients)
	deps := &Dependencies{
		Store:     store,
		Extractor: services.NewFFmpegExtractor(config, store),
	}

	switch config.Transcription.Provider {
	case cloud.ProviderGemini:
		m, err := agentModel(clients, config.Transcription.Model)
		if err != nil {
			return nil, err
		}
		deps.Transcriber = services.NewGeminiTranscriber(m)
	case cloud.ProviderOpenAI:
		deps.Transcriber = services.NewWhisperTranscriber(clients.OpenAIClient, config.Transcription.Model)
	default:
		return nil, fmt.Errorf("unknown transcription provider: %q", config.Transcription.Provider)
	}

	switch config.Completion.Provider {
	case cloud.ProviderGemini:
		m, err := agentModel(clients, config.Completion.Model)
		if err != nil {
			return nil, err
		}
		deps.Completer = services.NewGeminiCompleter(m)
	case cloud.ProviderOpenAI:
		deps.Completer = services.NewOpenAICompleter(clients.OpenAIClient, config.Completion.Model)
	default:
		return nil, fmt.Errorf("unknown completion provider: %q", config.Completion.Provider)
	}

	switch config.Cache.Backend {
	case cloud.CacheBackendMemory, "":
		deps.Cache = services.NewMemoryResultCache()
	case cloud.CacheBackendBigQuery:
		c := services.NewBigQueryResultCache(clients.BiqQueryClient, config.Cache.DatasetName, config.Cache.AssessmentTable)
		if err := c.EnsureTable(ctx); err != nil {
			return nil, err
		}
		deps.Cache = c
	case cloud.CacheBackendPostgres:
		c := services.NewPostgresResultCache(clients.PostgresPool, config.Cache.PostgresTable)
		if err := c.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		deps.Cache = c
	default:
		return nil, fmt.Errorf("unknown cache backend: %q", config.Cache.Backend)
	}

	slog.Info("assessment dependencies ready",
		"transcription", config.Transcription.Provider,
		"completion", config.Completion.Provider,
		"cache", config.Cache.Backend)
	return deps, nil
}

func agentModel(clients *cloud.ServiceClients, name string) (*cloud.QuotaAwareGenerativeAIModel, error) {
	m, ok := clients.AgentModels[name]
	if !ok {
		return nil, fmt.Errorf("agent model %q is not configured", name)
	}
	return m, nil
}
