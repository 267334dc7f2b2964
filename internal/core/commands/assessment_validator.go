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

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/assessment"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
)

// AssessmentValidator parses the raw segment and summary responses,
// assembles them into one document and validates its shape. With
// enforceNonEmpty set, empty recommendation or indicator collections are
// rejected as well.
type AssessmentValidator struct {
	cor.BaseCommand
	enforceNonEmpty bool
}

func NewAssessmentValidator(name string, enforceNonEmpty bool) *AssessmentValidator {
	out := &AssessmentValidator{BaseCommand: *cor.NewBaseCommand(name), enforceNonEmpty: enforceNonEmpty}
	out.InputParamName = ParamSummaryResult
	return out
}

func (c *AssessmentValidator) IsExecutable(context cor.Context) bool {
	return hasParams(context, ParamSegmentResults, ParamSummaryResult)
}

func (c *AssessmentValidator) Execute(context cor.Context) {
	results := context.Get(ParamSegmentResults).(map[model.Segment]string)
	summary := context.Get(ParamSummaryResult).(string)

	raw := make(map[string]any, len(model.Segments)+1)
	general, err := assessment.ParseResponse(summary)
	if err != nil {
		c.Fail(context, fmt.Errorf("general: %w", err))
		return
	}
	raw["general"] = general
	for _, s := range model.Segments {
		item, err := assessment.ParseResponse(results[s])
		if err != nil {
			c.Fail(context, fmt.Errorf("%s: %w", s, err))
			return
		}
		raw[string(s)] = item
	}

	doc, err := assessment.DecodeDocument(raw)
	if err != nil {
		c.Fail(context, err)
		return
	}
	if c.enforceNonEmpty {
		if err := assessment.CheckNonEmpty(doc); err != nil {
			c.Fail(context, err)
			return
		}
	}
	c.Succeed(context)
	context.Add(ParamDocument, doc)
}
