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

// Package cloud defines the application configuration, loaded from TOML
// files, and the clients for the external services the assessment pipeline
// talks to (Cloud Storage, Pub/Sub, Vertex AI, BigQuery, Postgres, OpenAI).
//
// Structs:
//   - Config: the root of the configuration tree.
//   - Server, Storage, Cache, Extraction, Transcription, Completion, OpenAI,
//     Telemetry: one struct per TOML table.
//   - VertexAiLLMModel: settings of a named Gemini model.
//   - PromptTemplates: text/template sources for the evaluation prompts.
//   - TopicSubscription: a Pub/Sub subscription that triggers assessments.
//
// Functions:
//   - NewConfig: a Config with defaults applied and maps initialized.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings disables content blocking for every harm category.
// Assessed videos are user supplied and are evaluated, not published.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// Provider names accepted by the transcription and completion tables.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Cache backends accepted by the cache table.
const (
	CacheBackendMemory   = "memory"
	CacheBackendBigQuery = "bigquery"
	CacheBackendPostgres = "postgres"
)

// PromptTemplates holds the templates for the evaluation prompts. Empty
// values fall back to the compiled-in defaults.
type PromptTemplates struct {
	SegmentPrompt string `toml:"segment"`
	SummaryPrompt string `toml:"summary"`
}

// VertexAiLLMModel represents the configuration for a Vertex AI large language model (LLM).
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The name of the Vertex AI LLM.
	SystemInstructions string  `toml:"system_instructions"` // The system instructions for the LLM.
	Temperature        float32 `toml:"temperature"`
	TopP               float32 `toml:"top_p"`
	TopK               float32 `toml:"top_k"`
	MaxTokens          int32   `toml:"max_tokens"`
	OutputFormat       string  `toml:"output_format"` // MIME type of the response, e.g. "application/json".
	RateLimit          int     `toml:"rate_limit"`    // Requests per second.
}

// TopicSubscription represents the configuration for a Pub/Sub topic subscription.
type TopicSubscription struct {
	Name             string `toml:"name"`
	DeadLetterTopic  string `toml:"dead_letter_topic"`
	TimeoutInSeconds int    `toml:"timeout_in_seconds"`
}

// Server holds the HTTP server settings.
type Server struct {
	Port                int   `toml:"port"`
	ReadTimeoutSeconds  int   `toml:"read_timeout_seconds"`
	WriteTimeoutSeconds int   `toml:"write_timeout_seconds"` // Synchronous assessments run inside the request.
	MaxUploadBytes      int64 `toml:"max_upload_bytes"`
}

// Storage holds the Cloud Storage settings for extracted artifacts.
type Storage struct {
	ArtifactBucket   string `toml:"artifact_bucket"`    // Bucket receiving extracted audio and frames.
	ArtifactPrefix   string `toml:"artifact_prefix"`    // Object name prefix for artifacts.
	SignedURLs       bool   `toml:"signed_urls"`        // Hand out V4 signed https URLs instead of gs:// URIs.
	SignedURLMinutes int    `toml:"signed_url_minutes"` // Lifetime of signed URLs.
	KeepArtifacts    bool   `toml:"keep_artifacts"`     // Skip deleting remote artifacts after a run.
}

// Cache selects and configures the result cache backend.
type Cache struct {
	Backend         string `toml:"backend"` // memory, bigquery or postgres.
	DatasetName     string `toml:"dataset"`
	AssessmentTable string `toml:"assessment_table"`
	PostgresURL     string `toml:"postgres_url"`
	PostgresTable   string `toml:"postgres_table"`
}

// Extraction holds the local media tooling and the default frame settings.
type Extraction struct {
	FFmpegPath      string  `toml:"ffmpeg_path"`
	FFprobePath     string  `toml:"ffprobe_path"`
	AudioFormat     string  `toml:"audio_format"` // Container/codec of the extracted audio, e.g. "mp3".
	IntervalSeconds float64 `toml:"interval"`
	ImageFormat     string  `toml:"format"`
	Quality         float64 `toml:"quality"`
}

// Transcription selects the speech-to-text provider.
type Transcription struct {
	Provider string `toml:"provider"` // gemini or openai.
	Model    string `toml:"model"`    // Agent model key for gemini, model name for openai.
}

// Completion selects the text-generation provider.
type Completion struct {
	Provider string `toml:"provider"` // gemini or openai.
	Model    string `toml:"model"`    // Agent model key for gemini, model name for openai.
}

// OpenAI holds the settings for OpenAI compatible endpoints.
type OpenAI struct {
	APIKeyEnv string `toml:"api_key_env"` // Name of the environment variable holding the key.
	BaseURL   string `toml:"base_url"`
}

// Telemetry controls exporter setup.
type Telemetry struct {
	Enabled bool `toml:"enabled"`
}

// Config represents the overall configuration for the application, loaded from TOML files.
type Config struct {
	Application struct {
		Name                      string `toml:"name"`
		GoogleProjectId           string `toml:"google_project_id"`
		GoogleLocation            string `toml:"location"`
		ThreadPoolSize            int    `toml:"thread_pool_size"` // Segment evaluation workers; never fewer than the number of segments.
		SignerServiceAccountEmail string `toml:"signer_service_account_email"`
		DedupeInFlight            bool   `toml:"dedupe_in_flight"`  // Collapse concurrent runs for the same content.
		EnforceNonEmpty           bool   `toml:"enforce_non_empty"` // Reject documents with empty collections.
		LogFormat                 string `toml:"log_format"`        // json or console.
	} `toml:"application"`
	Server             Server                       `toml:"server"`
	Storage            Storage                      `toml:"storage"`
	Cache              Cache                        `toml:"cache"`
	Extraction         Extraction                   `toml:"extraction"`
	Transcription      Transcription                `toml:"transcription"`
	Completion         Completion                   `toml:"completion"`
	OpenAI             OpenAI                       `toml:"openai"`
	Telemetry          Telemetry                    `toml:"telemetry"`
	PromptTemplates    PromptTemplates              `toml:"prompt_templates"`
	TopicSubscriptions map[string]TopicSubscription `toml:"topic_subscriptions"` // Keyed by logical name, e.g. "VideoTopic".
	AgentModels        map[string]VertexAiLLMModel  `toml:"agent_models"`        // Keyed by logical name, e.g. "assessment-flash".
}

// NewConfig creates a Config with its maps initialized and defaults set for
// every value the application cannot run without. TOML files loaded on top
// only override what they specify.
func NewConfig() *Config {
	c := &Config{
		TopicSubscriptions: make(map[string]TopicSubscription),
		AgentModels:        make(map[string]VertexAiLLMModel),
	}
	c.Application.Name = "video-assessment"
	c.Application.GoogleLocation = "us-central1"
	c.Application.ThreadPoolSize = 5
	c.Application.LogFormat = "json"

	c.Server.Port = 8080
	c.Server.ReadTimeoutSeconds = 60
	c.Server.WriteTimeoutSeconds = 600
	c.Server.MaxUploadBytes = 2 << 30

	c.Storage.ArtifactPrefix = "assessments"
	c.Storage.SignedURLMinutes = 60

	c.Cache.Backend = CacheBackendMemory
	c.Cache.AssessmentTable = "assessments"
	c.Cache.PostgresTable = "assessments"

	c.Extraction.FFmpegPath = "ffmpeg"
	c.Extraction.FFprobePath = "ffprobe"
	c.Extraction.AudioFormat = "mp3"
	c.Extraction.IntervalSeconds = 0.8
	c.Extraction.ImageFormat = "jpeg"
	c.Extraction.Quality = 0.8

	c.Transcription.Provider = ProviderGemini
	c.Transcription.Model = "assessment-flash"
	c.Completion.Provider = ProviderGemini
	c.Completion.Model = "assessment-flash"

	c.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	return c
}
