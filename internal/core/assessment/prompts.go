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
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
)

// DefaultSegmentPrompt is used when no segment template is configured.
// Vocabulary: SEGMENT, FRAME_URLS, TRANSCRIPT, EXAMPLE_JSON.
const DefaultSegmentPrompt = `You are reviewing the "{{ .SEGMENT }}" segment of a video.

The segment is one of five consecutive parts of the video: opening, setup, main, climax and closing.
Evaluate how well this segment does its job within the narrative of the video.

Frames captured from this segment (in order):
{{ .FRAME_URLS }}

Transcript of this segment:
"""
{{ .TRANSCRIPT }}
"""

Respond with strict JSON only, no markdown and no commentary, using exactly this shape:
{"recomendations": [string, ...], "assessmentIndicators": {string: boolean, ...}}

"recomendations" must contain at least one concrete recommendation.
"assessmentIndicators" must contain at least one human readable indicator name mapped to true or false.

Example:
{{ .EXAMPLE_JSON }}
`

// DefaultSummaryPrompt is used when no summary template is configured.
// Vocabulary: SEGMENT_RESULTS, TRANSCRIPT, EXAMPLE_JSON.
const DefaultSummaryPrompt = `You are given the assessments of the five segments of a video and its full transcript.

Segment assessments:
{{ .SEGMENT_RESULTS }}

Full transcript:
"""
{{ .TRANSCRIPT }}
"""

Describe what the video is about and how its narrative unfolds. Do not re-evaluate the segments.
You may carry over "recomendations" and "assessmentIndicators" for the whole video or leave them out.
You must always return a non-empty "summary" string.

Respond with strict JSON only, no markdown and no commentary, using this shape:
{"summary": string, "recomendations": [string, ...], "assessmentIndicators": {string: boolean, ...}}

Example:
{{ .EXAMPLE_JSON }}
`

// PromptBuilder renders the segment and summary requests sent to the
// completion service. It never calls the service itself.
type PromptBuilder struct {
	segmentTemplate *template.Template
	summaryTemplate *template.Template
	segmentExample  string
	summaryExample  string
}

// NewPromptBuilder parses the given templates. Empty templates fall back to
// DefaultSegmentPrompt and DefaultSummaryPrompt.
func NewPromptBuilder(segmentPrompt string, summaryPrompt string) (*PromptBuilder, error) {
	if strings.TrimSpace(segmentPrompt) == "" {
		segmentPrompt = DefaultSegmentPrompt
	}
	if strings.TrimSpace(summaryPrompt) == "" {
		summaryPrompt = DefaultSummaryPrompt
	}

	segmentTemplate, err := template.New("segment-template").Parse(segmentPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse segment prompt: %w", err)
	}
	summaryTemplate, err := template.New("summary-template").Parse(summaryPrompt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse summary prompt: %w", err)
	}

	segmentExample, _ := json.Marshal(model.GetExampleResultItem())
	summaryExample, _ := json.Marshal(model.GetExampleGeneralResultItem())

	return &PromptBuilder{
		segmentTemplate: segmentTemplate,
		summaryTemplate: summaryTemplate,
		segmentExample:  string(segmentExample),
		summaryExample:  string(summaryExample),
	}, nil
}

// BuildSegmentPrompt renders the evaluation request for one segment.
func (p *PromptBuilder) BuildSegmentPrompt(segment model.Segment, transcript string, frames []model.Frame) (string, error) {
	var urls strings.Builder
	if len(frames) == 0 {
		urls.WriteString("(no frames)\n")
	}
	for _, f := range frames {
		fmt.Fprintf(&urls, "- %s (t=%.2fs)\n", f.Url, f.Timestamp)
	}

	vocabulary := map[string]string{
		"SEGMENT":      string(segment),
		"FRAME_URLS":   strings.TrimRight(urls.String(), "\n"),
		"TRANSCRIPT":   transcript,
		"EXAMPLE_JSON": p.segmentExample,
	}

	var doc bytes.Buffer
	if err := p.segmentTemplate.Execute(&doc, vocabulary); err != nil {
		return "", fmt.Errorf("failed to render prompt for segment %s: %w", segment, err)
	}
	return doc.String(), nil
}

// BuildSummaryPrompt renders the whole-video request. results holds the raw
// JSON returned for each segment; it is embedded verbatim in segment order.
func (p *PromptBuilder) BuildSummaryPrompt(results map[model.Segment]string, transcript string) (string, error) {
	var segments strings.Builder
	for _, s := range model.Segments {
		raw, ok := results[s]
		if !ok {
			continue
		}
		fmt.Fprintf(&segments, "%s: %s\n", s, strings.TrimSpace(raw))
	}

	vocabulary := map[string]string{
		"SEGMENT_RESULTS": strings.TrimRight(segments.String(), "\n"),
		"TRANSCRIPT":      transcript,
		"EXAMPLE_JSON":    p.summaryExample,
	}

	var doc bytes.Buffer
	if err := p.summaryTemplate.Execute(&doc, vocabulary); err != nil {
		return "", fmt.Errorf("failed to render summary prompt: %w", err)
	}
	return doc.String(), nil
}
