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

package assessment_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/assessment"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, text string) any {
	t.Helper()
	var out any
	require.NoError(t, json.Unmarshal([]byte(text), &out))
	return out
}

const validDocument = `{
  "general": {"summary": "A cooking tutorial.", "recomendations": ["Shorter intro"], "assessmentIndicators": {"Clear goal": true}},
  "opening": {"recomendations": ["x"], "assessmentIndicators": {"clarity": true}},
  "setup":   {"recomendations": [], "assessmentIndicators": {}},
  "main":    {"recomendations": ["y", "z"], "assessmentIndicators": {"pace": false}},
  "climax":  {"recomendations": ["w"], "assessmentIndicators": {"payoff": true}},
  "closing": {"recomendations": ["v"], "assessmentIndicators": {"call to action": true}}
}`

func TestIsAssessmentIndicator(t *testing.T) {
	assert.True(t, assessment.IsAssessmentIndicator(decode(t, `{"clarity": true, "pace": false}`)))
	assert.True(t, assessment.IsAssessmentIndicator(decode(t, `{}`)))
	assert.False(t, assessment.IsAssessmentIndicator(decode(t, `[true]`)))
	assert.False(t, assessment.IsAssessmentIndicator(decode(t, `{"clarity": "yes"}`)))
	assert.False(t, assessment.IsAssessmentIndicator(decode(t, `null`)))
	assert.False(t, assessment.IsAssessmentIndicator(nil))
}

func TestIsResultItem(t *testing.T) {
	assert.True(t, assessment.IsResultItem(decode(t, `{"recomendations":["x"],"assessmentIndicators":{"clarity":true}}`)))
	assert.False(t, assessment.IsResultItem(decode(t, `{"recomendations":[1],"assessmentIndicators":{}}`)))
	assert.False(t, assessment.IsResultItem(decode(t, `{"recomendations":"x","assessmentIndicators":{}}`)))
	assert.False(t, assessment.IsResultItem(decode(t, `{"assessmentIndicators":{}}`)))
	assert.False(t, assessment.IsResultItem(decode(t, `{"recomendations":[],"assessmentIndicators":[]}`)))
	assert.False(t, assessment.IsResultItem(decode(t, `["x"]`)))
}

func TestIsAssessmentDocument(t *testing.T) {
	assert.True(t, assessment.IsAssessmentDocument(decode(t, validDocument)))

	missingSummary := decode(t, validDocument).(map[string]any)
	delete(missingSummary["general"].(map[string]any), "summary")
	assert.False(t, assessment.IsAssessmentDocument(missingSummary))

	missingSegment := decode(t, validDocument).(map[string]any)
	delete(missingSegment, "climax")
	assert.False(t, assessment.IsAssessmentDocument(missingSegment))

	// The general item must itself be a result item.
	generalWithoutRecs := decode(t, validDocument).(map[string]any)
	delete(generalWithoutRecs["general"].(map[string]any), "recomendations")
	assert.False(t, assessment.IsAssessmentDocument(generalWithoutRecs))

	assert.False(t, assessment.IsAssessmentDocument(decode(t, `[]`)))
}

func TestDocumentRoundTrip(t *testing.T) {
	doc, err := assessment.DecodeDocument(decode(t, validDocument))
	require.NoError(t, err)
	assert.Equal(t, "A cooking tutorial.", doc.General.Summary)
	assert.Equal(t, []string{"y", "z"}, doc.Main.Recomendations)

	data, err := json.Marshal(doc)
	require.NoError(t, err)
	again := decode(t, string(data))
	assert.True(t, assessment.IsAssessmentDocument(again))

	doc2, err := assessment.DecodeDocument(again)
	require.NoError(t, err)
	assert.Equal(t, doc, doc2)
}

func TestDecodeDocumentRejectsInvalidShape(t *testing.T) {
	_, err := assessment.DecodeDocument(decode(t, `{"general": {}}`))
	assert.True(t, errors.Is(err, model.ErrInvalidResultShape))
}

func TestParseResponse(t *testing.T) {
	out, err := assessment.ParseResponse("```json\n{\"recomendations\":[\"x\"],\"assessmentIndicators\":{}}\n```")
	require.NoError(t, err)
	assert.True(t, assessment.IsResultItem(out))

	_, err = assessment.ParseResponse("I think the video is great")
	assert.True(t, errors.Is(err, model.ErrJSONParse))
	assert.Contains(t, err.Error(), "I think the video is great")
}

func TestCheckNonEmpty(t *testing.T) {
	doc, err := assessment.DecodeDocument(decode(t, validDocument))
	require.NoError(t, err)

	// The setup segment is structurally valid but empty.
	err = assessment.CheckNonEmpty(doc)
	assert.True(t, errors.Is(err, model.ErrInvalidResultShape))
	assert.Contains(t, err.Error(), "setup: no recomendations")

	doc.Setup = model.GetExampleResultItem()
	assert.NoError(t, assessment.CheckNonEmpty(doc))
}
