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

// Package model defines the data structures shared by the assessment pipeline.
// This file holds the persistent structures: the assessment document returned
// to callers and the content record stored in the result cache.
package model

import "time"

// ResultItem is the assessment of a single narrative segment. The JSON key
// "recomendations" is part of the public document shape and is spelled as
// such on the wire.
type ResultItem struct {
	Recomendations       []string        `json:"recomendations"`
	AssessmentIndicators map[string]bool `json:"assessmentIndicators"`
}

// GeneralResultItem is the whole-video assessment, a ResultItem with a
// narrative summary.
type GeneralResultItem struct {
	ResultItem
	Summary string `json:"summary"`
}

// AssessmentDocument is the validated output of a pipeline run.
type AssessmentDocument struct {
	General *GeneralResultItem `json:"general"`
	Opening *ResultItem        `json:"opening"`
	Setup   *ResultItem        `json:"setup"`
	Main    *ResultItem        `json:"main"`
	Climax  *ResultItem        `json:"climax"`
	Closing *ResultItem        `json:"closing"`
}

// Get returns the assessment of the given segment.
func (d *AssessmentDocument) Get(segment Segment) *ResultItem {
	switch segment {
	case SegmentOpening:
		return d.Opening
	case SegmentSetup:
		return d.Setup
	case SegmentMain:
		return d.Main
	case SegmentClimax:
		return d.Climax
	case SegmentClosing:
		return d.Closing
	}
	return nil
}

// AssessmentResult is the document plus the ancillary data collected while
// producing it.
type AssessmentResult struct {
	Document      *AssessmentDocument `json:"document"`
	Transcript    string              `json:"transcript"`
	Audio         *AudioAsset         `json:"audio,omitempty"`
	VideoMeta     *VideoMeta          `json:"videoMeta,omitempty"`
	FrameSettings FrameSettings       `json:"frameSettings"`
	FrameCount    int                 `json:"frameCount"`
	CreatedAt     time.Time           `json:"createdAt"`
}

// ContentRecord is the cache entry for one unique video content digest.
// Records are created once and never mutated.
type ContentRecord struct {
	Identifier string            `json:"identifier"`
	Result     *AssessmentResult `json:"result"`
	Cached     bool              `json:"cached"` // Set on read paths, never persisted.
}

// NewContentRecord creates a record for the given identifier.
func NewContentRecord(identifier string, result *AssessmentResult) *ContentRecord {
	return &ContentRecord{Identifier: identifier, Result: result}
}
