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

// Package services holds the collaborators of the assessment pipeline: media
// extraction, transcription, completion, artifact storage and the result
// cache. The pipeline depends only on the interfaces declared here; the
// concrete types in this package bind them to ffmpeg, Cloud Storage, Vertex
// AI, OpenAI, BigQuery and Postgres.
package services

import (
	"context"
	"io"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
)

// MediaExtractor stages the audio track and periodic frames of a local video.
type MediaExtractor interface {
	ExtractAudio(ctx context.Context, videoPath string) (*model.AudioAsset, error)
	ExtractFrames(ctx context.Context, videoPath string, settings model.FrameSettings) (*model.FrameSet, error)
}

// Transcriber converts speech audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, fileName string) (string, error)
}

// Completer returns the model's text reply to a conversation.
type Completer interface {
	Complete(ctx context.Context, messages []model.Message) (string, error)
}

// ResultCache persists assessment results keyed by content identifier.
// Get returns nil, nil when nothing is stored for the identifier.
type ResultCache interface {
	Get(ctx context.Context, identifier string) (*model.ContentRecord, error)
	Create(ctx context.Context, identifier string, result *model.AssessmentResult) (*model.ContentRecord, error)
}

// ArtifactStore holds the media artifacts staged for one assessment.
type ArtifactStore interface {
	Upload(ctx context.Context, localPath string, objectName string, contentType string) (string, error)
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
	Delete(ctx context.Context, uri string) error
}
