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

package model

import "errors"

// Failure classes of the assessment pipeline. Every error surfaced by a
// pipeline stage wraps exactly one of these; callers classify with errors.Is.
var (
	ErrIO                 = errors.New("io error")
	ErrExtraction         = errors.New("extraction error")
	ErrTranscription      = errors.New("transcription error")
	ErrCompletion         = errors.New("completion error")
	ErrJSONParse          = errors.New("json parse error")
	ErrInvalidResultShape = errors.New("invalid result shape")
	ErrCache              = errors.New("cache error")
)
