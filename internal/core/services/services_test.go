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

package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

const probeJSON = `{
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720},
    {"codec_type": "audio", "codec_name": "aac", "sample_rate": "44100", "channels": 2, "channel_layout": "stereo"}
  ],
  "format": {"format_name": "mov,mp4,m4a,3gp,3g2,mj2", "duration": "12.480000", "size": "1048576"}
}`

func TestParseProbe(t *testing.T) {
	probe, err := services.ParseProbe([]byte(probeJSON))
	require.NoError(t, err)

	meta := probe.VideoMeta()
	assert.Equal(t, 12.48, meta.DurationSeconds)
	assert.Equal(t, 1280, meta.Width)
	assert.Equal(t, 720, meta.Height)
	assert.Equal(t, int64(1048576), meta.Size)

	audio := probe.AudioAsset("mp3")
	assert.Equal(t, "mp3", audio.Format)
	require.NotNil(t, audio.SampleRate)
	assert.Equal(t, 44100, *audio.SampleRate)
	require.NotNil(t, audio.Channels)
	assert.Equal(t, 2, *audio.Channels)
	require.NotNil(t, audio.ChannelLayout)
	assert.Equal(t, "stereo", *audio.ChannelLayout)
	assert.Nil(t, audio.Transcript)
}

func TestParseProbeWithoutAudio(t *testing.T) {
	probe, err := services.ParseProbe([]byte(`{"streams": [], "format": {"duration": "3"}}`))
	require.NoError(t, err)
	audio := probe.AudioAsset("wav")
	assert.Nil(t, audio.SampleRate)
	assert.Nil(t, audio.Channels)
	assert.Nil(t, audio.ChannelLayout)
	assert.Equal(t, 3.0, audio.DurationSeconds)

	_, err = services.ParseProbe([]byte("not json"))
	assert.Error(t, err)
}

func TestQualityArgs(t *testing.T) {
	assert.Equal(t, []string{"-q:v", "2"}, services.QualityArgs("jpeg", 1))
	assert.Equal(t, []string{"-q:v", "8"}, services.QualityArgs("jpeg", 0.8))
	assert.Equal(t, []string{"-quality", "80"}, services.QualityArgs("webp", 0.8))
	assert.Nil(t, services.QualityArgs("png", 0.5))
}

func TestFrameTimestamp(t *testing.T) {
	assert.Equal(t, 0.0, services.FrameTimestamp(0, 0.8))
	assert.Equal(t, 0.8, services.FrameTimestamp(1, 0.8))
	assert.Equal(t, 2.4, services.FrameTimestamp(3, 0.8))
}

func TestArtifactObject(t *testing.T) {
	obj, err := services.ArtifactObject("gs://bucket/assessments/run/audio.mp3")
	require.NoError(t, err)
	assert.Equal(t, "bucket", obj.Bucket)
	assert.Equal(t, "assessments/run/audio.mp3", obj.Name)

	obj, err = services.ArtifactObject("https://storage.googleapis.com/bucket/assessments/run/frames/a.jpeg?X-Goog-Signature=abc")
	require.NoError(t, err)
	assert.Equal(t, "bucket", obj.Bucket)
	assert.Equal(t, "assessments/run/frames/a.jpeg", obj.Name)

	_, err = services.ArtifactObject("https://example.com/bucket/a.jpeg")
	assert.Error(t, err)
}

func TestAudioContentType(t *testing.T) {
	assert.Equal(t, "audio/mpeg", services.AudioContentType("audio.MP3"))
	assert.Equal(t, "audio/wav", services.AudioContentType("x/y/audio.wav"))
	assert.Equal(t, "application/octet-stream", services.AudioContentType("audio"))
}

func TestGeminiContents(t *testing.T) {
	contents := services.GeminiContents([]model.Message{
		{Role: model.RoleSystem, Content: "rules"},
		{Role: model.RoleUser, Content: "question"},
		{Role: model.RoleAssistant, Content: "answer"},
	})
	require.Len(t, contents, 3)
	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, "rules", contents[0].Parts[0].Text)
	assert.Equal(t, string(genai.RoleUser), contents[1].Role)
	assert.Equal(t, string(genai.RoleModel), contents[2].Role)
}

func sampleResult() *model.AssessmentResult {
	return &model.AssessmentResult{
		Document: &model.AssessmentDocument{
			General: &model.GeneralResultItem{
				ResultItem: model.ResultItem{Recomendations: []string{"tighten"}, AssessmentIndicators: map[string]bool{"clear": true}},
				Summary:    "A short story.",
			},
		},
		Transcript:    "hello world",
		FrameSettings: model.NewFrameSettings(),
		FrameCount:    4,
		CreatedAt:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryResultCache(t *testing.T) {
	ctx := context.Background()
	cache := services.NewMemoryResultCache()

	record, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, record)

	created, err := cache.Create(ctx, "abc", sampleResult())
	require.NoError(t, err)
	assert.False(t, created.Cached)

	record, err = cache.Get(ctx, "abc")
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.True(t, record.Cached)
	assert.Equal(t, "A short story.", record.Result.Document.General.Summary)

	// A second computation for the same identifier replaces the first.
	second := sampleResult()
	second.Transcript = "again"
	_, err = cache.Create(ctx, "abc", second)
	require.NoError(t, err)
	record, _ = cache.Get(ctx, "abc")
	assert.Equal(t, "again", record.Result.Transcript)
	assert.Equal(t, 1, cache.Len())
}

func TestAssessmentRowRecord(t *testing.T) {
	row, err := services.NewAssessmentRow("abc", sampleResult())
	require.NoError(t, err)
	assert.Contains(t, row.Result, `"recomendations":["tighten"]`)

	record, err := row.Record()
	require.NoError(t, err)
	assert.True(t, record.Cached)
	assert.Equal(t, "abc", record.Identifier)
	assert.Equal(t, sampleResult().CreatedAt, record.Result.CreatedAt)
	assert.Equal(t, map[string]bool{"clear": true}, record.Result.Document.General.AssessmentIndicators)

	row.Result = "{"
	_, err = row.Record()
	assert.Error(t, err)
}

func TestExtractorRejectsBadInput(t *testing.T) {
	e := &services.FFmpegExtractor{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe", AudioFormat: "aiff"}

	_, err := e.ExtractAudio(context.Background(), "video.mp4")
	assert.True(t, errors.Is(err, model.ErrExtraction))

	_, err = e.ExtractFrames(context.Background(), "video.mp4", model.FrameSettings{IntervalSeconds: 0, ImageFormat: "jpeg", Quality: 0.8})
	assert.True(t, errors.Is(err, model.ErrIO))
}
