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

package assessment

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
)

// The validators below work on values produced by json.Unmarshal into an
// `any`: objects are map[string]any, arrays are []any. They check shape only
// and accept empty collections.

// IsAssessmentIndicator reports whether x is a JSON object whose values are
// all booleans.
func IsAssessmentIndicator(x any) bool {
	obj, ok := x.(map[string]any)
	if !ok {
		return false
	}
	for _, v := range obj {
		if _, ok := v.(bool); !ok {
			return false
		}
	}
	return true
}

// IsResultItem reports whether x has an array of strings under
// "recomendations" and an assessment indicator under "assessmentIndicators".
func IsResultItem(x any) bool {
	obj, ok := x.(map[string]any)
	if !ok {
		return false
	}
	recs, ok := obj["recomendations"].([]any)
	if !ok {
		return false
	}
	for _, r := range recs {
		if _, ok := r.(string); !ok {
			return false
		}
	}
	return IsAssessmentIndicator(obj["assessmentIndicators"])
}

// IsAssessmentDocument reports whether x has a valid result item for every
// segment and a general result item carrying a string summary.
func IsAssessmentDocument(x any) bool {
	obj, ok := x.(map[string]any)
	if !ok {
		return false
	}
	for _, s := range model.Segments {
		if !IsResultItem(obj[string(s)]) {
			return false
		}
	}
	general, ok := obj["general"].(map[string]any)
	if !ok || !IsResultItem(general) {
		return false
	}
	_, ok = general["summary"].(string)
	return ok
}

// ParseResponse decodes the text returned by a completion service. Markdown
// code fences around the JSON are tolerated.
func ParseResponse(text string) (any, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var out any
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, fmt.Errorf("%w: %w; response was: %s", model.ErrJSONParse, err, text)
	}
	return out, nil
}

// DecodeDocument validates raw and converts it into an AssessmentDocument.
func DecodeDocument(raw any) (*model.AssessmentDocument, error) {
	if !IsAssessmentDocument(raw) {
		return nil, fmt.Errorf("%w: assessment document failed structural validation", model.ErrInvalidResultShape)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidResultShape, err)
	}
	doc := &model.AssessmentDocument{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrInvalidResultShape, err)
	}
	return doc, nil
}

// CheckNonEmpty is the optional policy check layered on top of the shape
// validators. It reports every result item with no recommendations or no
// indicators.
func CheckNonEmpty(doc *model.AssessmentDocument) error {
	if doc == nil || doc.General == nil {
		return fmt.Errorf("%w: missing general assessment", model.ErrInvalidResultShape)
	}
	var errs []error
	check := func(name string, item *model.ResultItem) {
		if item == nil {
			errs = append(errs, fmt.Errorf("%s: missing", name))
			return
		}
		if len(item.Recomendations) == 0 {
			errs = append(errs, fmt.Errorf("%s: no recomendations", name))
		}
		if len(item.AssessmentIndicators) == 0 {
			errs = append(errs, fmt.Errorf("%s: no assessment indicators", name))
		}
	}
	check("general", &doc.General.ResultItem)
	for _, s := range model.Segments {
		check(string(s), doc.Get(s))
	}
	if strings.TrimSpace(doc.General.Summary) == "" {
		errs = append(errs, errors.New("general: empty summary"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", model.ErrInvalidResultShape, errors.Join(errs...))
	}
	return nil
}
