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

// Package api defines the HTTP routes of the assessment server.
//
//	POST /assessments      multipart upload (field "file"), optional form
//	                       fields interval, format and quality
//	GET  /assessments/:id  stored result by content identifier
//	GET  /stats            pipeline counters
package api

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/assessment"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/services"
)

const (
	UploadField  = "file"
	uploadPrefix = "assessment-upload-"
	sniffLength  = 262 // Enough header bytes for every filetype matcher.
	formInterval = "interval"
	formFormat   = "format"
	formQuality  = "quality"
)

// Assessor runs the pipeline on a local video file it takes ownership of.
type Assessor interface {
	Run(ctx context.Context, videoPath string, settings model.FrameSettings) (*model.ContentRecord, error)
}

// AssessmentHandler serves the assessment routes.
type AssessmentHandler struct {
	Assessor       Assessor
	Cache          services.ResultCache
	Defaults       model.FrameSettings
	MaxUploadBytes int64
}

func Assessments(r *gin.RouterGroup, handler *AssessmentHandler) {
	assessments := r.Group("/assessments")
	{
		assessments.POST("", handler.Create)
		assessments.GET("/:id", handler.Get)
	}
}

// Create accepts an upload, runs the pipeline synchronously and returns the
// record, which is flagged as cached when the content was seen before.
func (h *AssessmentHandler) Create(c *gin.Context) {
	if h.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxUploadBytes)
	}

	settings, err := h.frameSettings(c)
	if err != nil {
		abortWithError(c, err)
		return
	}

	file, err := c.FormFile(UploadField)
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: missing upload field %q: %w", model.ErrIO, UploadField, err))
		return
	}

	tmp, err := os.CreateTemp("", uploadPrefix+"*"+filepath.Ext(file.Filename))
	if err != nil {
		abortWithError(c, fmt.Errorf("%w: %w", model.ErrIO, err))
		return
	}
	path := tmp.Name()
	_ = tmp.Close()
	// From here on the file belongs to the workflow unless we bail out first.
	if err := c.SaveUploadedFile(file, path); err != nil {
		_ = os.Remove(path)
		abortWithError(c, fmt.Errorf("%w: failed to store upload: %w", model.ErrIO, err))
		return
	}
	if err := sniffVideo(path); err != nil {
		_ = os.Remove(path)
		abortWithError(c, err)
		return
	}

	slog.InfoContext(c.Request.Context(), "received upload", "file", file.Filename, "bytes", file.Size)
	record, err := h.Assessor.Run(c.Request.Context(), path, settings)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// Get returns the stored record for an identifier.
func (h *AssessmentHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if !assessment.IsIdentifier(id) {
		abortWithError(c, fmt.Errorf("%w: %q is not a content identifier", model.ErrIO, id))
		return
	}
	record, err := h.Cache.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if record == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, ErrorResponse{Error: "assessment not found"})
		return
	}
	c.JSON(http.StatusOK, record)
}

// frameSettings overlays the optional form fields on the defaults.
func (h *AssessmentHandler) frameSettings(c *gin.Context) (model.FrameSettings, error) {
	settings := h.Defaults
	if v, ok := c.GetPostForm(formInterval); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return settings, fmt.Errorf("%w: invalid %s: %w", model.ErrIO, formInterval, err)
		}
		settings.IntervalSeconds = f
	}
	if v, ok := c.GetPostForm(formFormat); ok {
		settings.ImageFormat = v
	}
	if v, ok := c.GetPostForm(formQuality); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return settings, fmt.Errorf("%w: invalid %s: %w", model.ErrIO, formQuality, err)
		}
		settings.Quality = f
	}
	return settings, settings.Validate()
}

func sniffVideo(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", model.ErrIO, err)
	}
	defer f.Close()

	head := make([]byte, sniffLength)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return fmt.Errorf("%w: %w", model.ErrIO, err)
	}
	if !filetype.IsVideo(head[:n]) {
		return fmt.Errorf("%w: upload is not a recognized video container", model.ErrIO)
	}
	return nil
}
