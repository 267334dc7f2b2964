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

package cloud

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"cloud.google.com/go/bigquery"
	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ServiceClients holds every client the application talks to. Clients that
// the configuration does not need are left nil.
type ServiceClients struct {
	StorageClient   *storage.Client
	PubsubClient    *pubsub.Client
	GenAIClient     *genai.Client
	BiqQueryClient  *bigquery.Client                  // Only for the bigquery cache backend.
	IAMClient       *credentials.IamCredentialsClient // Only when signed URLs are enabled.
	PostgresPool    *pgxpool.Pool                     // Only for the postgres cache backend.
	OpenAIClient    *openai.Client                    // Only when a provider is "openai".
	PubSubListeners map[string]*PubSubListener        // Keyed by the logical name from the config.
	AgentModels     map[string]*QuotaAwareGenerativeAIModel
}

// Close releases every open client.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
	if c.PubsubClient != nil {
		_ = c.PubsubClient.Close()
	}
	if c.BiqQueryClient != nil {
		_ = c.BiqQueryClient.Close()
	}
	if c.IAMClient != nil {
		_ = c.IAMClient.Close()
	}
	if c.PostgresPool != nil {
		c.PostgresPool.Close()
	}
}

func usesProvider(config *Config, provider string) bool {
	return config.Transcription.Provider == provider || config.Completion.Provider == provider
}

// NewCloudServiceClients creates the clients required by config. On error
// the clients created so far are closed.
func NewCloudServiceClients(ctx context.Context, config *Config) (cloud *ServiceClients, err error) {
	cloud = &ServiceClients{
		PubSubListeners: make(map[string]*PubSubListener),
		AgentModels:     make(map[string]*QuotaAwareGenerativeAIModel),
	}
	defer func() {
		if err != nil {
			cloud.Close()
			cloud = nil
		}
	}()

	if cloud.StorageClient, err = storage.NewClient(ctx); err != nil {
		return cloud, fmt.Errorf("failed to create storage client: %w", err)
	}

	if len(config.TopicSubscriptions) > 0 {
		if cloud.PubsubClient, err = pubsub.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			return cloud, fmt.Errorf("failed to create pubsub client: %w", err)
		}
		for subKey, values := range config.TopicSubscriptions {
			listener, err := NewPubSubListener(cloud.PubsubClient, values.Name, nil)
			if err != nil {
				return cloud, err
			}
			cloud.PubSubListeners[subKey] = listener
		}
	}

	if config.Storage.SignedURLs {
		if cloud.IAMClient, err = credentials.NewIamCredentialsClient(ctx); err != nil {
			return cloud, fmt.Errorf("failed to create iam credentials client: %w", err)
		}
	}

	switch config.Cache.Backend {
	case CacheBackendBigQuery:
		if cloud.BiqQueryClient, err = bigquery.NewClient(ctx, config.Application.GoogleProjectId); err != nil {
			return cloud, fmt.Errorf("failed to create bigquery client: %w", err)
		}
	case CacheBackendPostgres:
		if cloud.PostgresPool, err = pgxpool.New(ctx, config.Cache.PostgresURL); err != nil {
			return cloud, fmt.Errorf("failed to create postgres pool: %w", err)
		}
	}

	if usesProvider(config, ProviderOpenAI) {
		openAIConfig := openai.DefaultConfig(os.Getenv(config.OpenAI.APIKeyEnv))
		if config.OpenAI.BaseURL != "" {
			openAIConfig.BaseURL = config.OpenAI.BaseURL
		}
		cloud.OpenAIClient = openai.NewClientWithConfig(openAIConfig)
	}

	if usesProvider(config, ProviderGemini) {
		slog.Info("creating genai client",
			"project", config.Application.GoogleProjectId,
			"location", config.Application.GoogleLocation)
		if cloud.GenAIClient, err = genai.NewClient(ctx, &genai.ClientConfig{
			Project:  config.Application.GoogleProjectId,
			Location: config.Application.GoogleLocation,
			Backend:  genai.BackendVertexAI,
		}); err != nil {
			return cloud, fmt.Errorf("failed to create genai client: %w", err)
		}

		for amKey, values := range config.AgentModels {
			generationConfig := &genai.GenerateContentConfig{
				Temperature:      genai.Ptr[float32](values.Temperature),
				TopP:             genai.Ptr[float32](values.TopP),
				TopK:             genai.Ptr[float32](values.TopK),
				MaxOutputTokens:  values.MaxTokens,
				SafetySettings:   DefaultSafetySettings,
				ResponseMIMEType: values.OutputFormat,
			}
			if values.SystemInstructions != "" {
				generationConfig.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}}
			}
			cloud.AgentModels[amKey] = NewQuotaAwareModel(generationConfig, values.Model, cloud.GenAIClient.Models, values.RateLimit)
		}
	}

	return cloud, nil
}
