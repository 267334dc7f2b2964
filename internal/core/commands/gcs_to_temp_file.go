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
	"io"
	"log/slog"
	"os"

	"github.com/jaycherian/gcp-go-video-assessment/internal/cloud"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/services"
)

// GCSToTempFile downloads the triggering object to a temporary file, which
// is registered with the context for removal and stored as the video path.
type GCSToTempFile struct {
	cor.BaseCommand
	store          services.ArtifactStore
	tempFilePrefix string
}

func NewGCSToTempFile(name string, store services.ArtifactStore, tempFilePrefix string) *GCSToTempFile {
	out := &GCSToTempFile{
		BaseCommand:    *cor.NewBaseCommand(name),
		store:          store,
		tempFilePrefix: tempFilePrefix,
	}
	out.InputParamName = ParamGCSObject
	return out
}

func (c *GCSToTempFile) Execute(context cor.Context) {
	msg := context.Get(c.GetInputParam()).(*cloud.GCSObject)

	reader, err := c.store.Open(context.GetContext(), msg.URI())
	if err != nil {
		c.Fail(context, fmt.Errorf("%w: %w", model.ErrIO, err))
		return
	}
	defer func() {
		if err := reader.Close(); err != nil {
			slog.Warn("failed to close GCS reader", "uri", msg.URI(), "error", err)
		}
	}()

	tempFile, err := os.CreateTemp("", c.tempFilePrefix)
	if err != nil {
		c.Fail(context, fmt.Errorf("%w: could not create temp file: %w", model.ErrIO, err))
		return
	}
	context.AddTempFile(tempFile.Name())

	written, err := io.Copy(tempFile, reader)
	_ = tempFile.Close()
	if err != nil {
		c.Fail(context, fmt.Errorf("%w: failed to copy %s after %d bytes: %w", model.ErrIO, msg.URI(), written, err))
		return
	}

	c.Succeed(context)
	slog.InfoContext(context.GetContext(), "downloaded object", "uri", msg.URI(), "file", tempFile.Name(), "bytes", written)
	context.Add(ParamVideoPath, tempFile.Name())
	context.Add(c.GetOutputParam(), tempFile.Name())
}
