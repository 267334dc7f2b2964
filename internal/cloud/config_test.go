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

package cloud_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-video-assessment/internal/cloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseToml = `
[application]
name = "base"
google_project_id = "project-a"
thread_pool_size = 3

[cache]
backend = "bigquery"
dataset = "media"

[agent_models.assessment-flash]
model = "gemini-2.0-flash"
rate_limit = 4
`

const runtimeToml = `
[application]
google_project_id = "project-b"

[extraction]
interval = 1.5
`

func TestNewConfigDefaults(t *testing.T) {
	c := cloud.NewConfig()
	assert.Equal(t, 0.8, c.Extraction.IntervalSeconds)
	assert.Equal(t, "jpeg", c.Extraction.ImageFormat)
	assert.Equal(t, 0.8, c.Extraction.Quality)
	assert.Equal(t, cloud.CacheBackendMemory, c.Cache.Backend)
	assert.Equal(t, cloud.ProviderGemini, c.Completion.Provider)
	assert.NotNil(t, c.AgentModels)
	assert.NotNil(t, c.TopicSubscriptions)
}

func TestLoadConfigLayersRuntimeFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.toml"), []byte(baseToml), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.unit.toml"), []byte(runtimeToml), 0o600))
	t.Setenv(cloud.EnvConfigFilePrefix, dir)
	t.Setenv(cloud.EnvConfigRuntime, "unit")

	c := cloud.NewConfig()
	require.NoError(t, cloud.LoadConfig(c))

	assert.Equal(t, "base", c.Application.Name)
	assert.Equal(t, "project-b", c.Application.GoogleProjectId)
	assert.Equal(t, 3, c.Application.ThreadPoolSize)
	assert.Equal(t, 1.5, c.Extraction.IntervalSeconds)
	// Untouched defaults survive.
	assert.Equal(t, "jpeg", c.Extraction.ImageFormat)
	assert.Equal(t, cloud.CacheBackendBigQuery, c.Cache.Backend)
	assert.Equal(t, "gemini-2.0-flash", c.AgentModels["assessment-flash"].Model)
	assert.Equal(t, 4, c.AgentModels["assessment-flash"].RateLimit)
}

func TestLoadConfigMissingFiles(t *testing.T) {
	t.Setenv(cloud.EnvConfigFilePrefix, t.TempDir())
	t.Setenv(cloud.EnvConfigRuntime, "")

	c := cloud.NewConfig()
	require.NoError(t, cloud.LoadConfig(c))
	assert.Equal(t, "video-assessment", c.Application.Name)

	_, runtime := cloud.ConfigFiles()
	assert.Equal(t, ".env.test.toml", filepath.Base(runtime))
}

func TestLoadConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env.toml"), []byte("[application\nname="), 0o600))
	t.Setenv(cloud.EnvConfigFilePrefix, dir)

	err := cloud.LoadConfig(cloud.NewConfig())
	assert.Error(t, err)
}

func TestParseGCSURI(t *testing.T) {
	obj, err := cloud.ParseGCSURI("gs://artifacts/assessments/abc/frame-1.jpeg")
	require.NoError(t, err)
	assert.Equal(t, "artifacts", obj.Bucket)
	assert.Equal(t, "assessments/abc/frame-1.jpeg", obj.Name)
	assert.Equal(t, "gs://artifacts/assessments/abc/frame-1.jpeg", obj.URI())

	for _, bad := range []string{"", "https://example.com/x", "gs://bucket", "gs:///name"} {
		_, err := cloud.ParseGCSURI(bad)
		assert.Error(t, err, bad)
	}
}

func TestQuotaAwareModelHonoursCancelledContext(t *testing.T) {
	model := cloud.NewQuotaAwareModel(nil, "m", nil, 1)
	// Drain the single burst token so the next call has to wait.
	require.True(t, model.RateLimit.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := model.GenerateContent(ctx, nil)
	assert.Error(t, err)
}
