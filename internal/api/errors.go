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

package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

var errorKinds = []struct {
	err    error
	kind   string
	status int
}{
	{model.ErrIO, "io", http.StatusBadRequest},
	{model.ErrJSONParse, "json_parse", http.StatusBadGateway},
	{model.ErrInvalidResultShape, "invalid_result_shape", http.StatusBadGateway},
	{model.ErrCompletion, "completion", http.StatusInternalServerError},
	{model.ErrTranscription, "transcription", http.StatusInternalServerError},
	{model.ErrExtraction, "extraction", http.StatusInternalServerError},
	{model.ErrCache, "cache", http.StatusInternalServerError},
}

// Classify returns the HTTP status and the failure class of err.
func Classify(err error) (int, string) {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.status, k.kind
		}
	}
	return http.StatusInternalServerError, ""
}

func abortWithError(c *gin.Context, err error) {
	status, kind := Classify(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: err.Error(), Kind: kind})
}
