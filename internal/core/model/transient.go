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
// This file holds the transient structures: values that only live for the
// duration of a single pipeline invocation (frames, audio metadata,
// segmented transcripts and completion messages).
package model

import "fmt"

// Segment is one of the five fixed narrative buckets of a video's timeline.
type Segment string

const (
	SegmentOpening Segment = "opening"
	SegmentSetup   Segment = "setup"
	SegmentMain    Segment = "main"
	SegmentClimax  Segment = "climax"
	SegmentClosing Segment = "closing"
)

// Segments lists the narrative buckets in timeline order. Every per-segment
// loop in the pipeline iterates this slice so ordering is stable.
var Segments = []Segment{SegmentOpening, SegmentSetup, SegmentMain, SegmentClimax, SegmentClosing}

// Default frame extraction settings.
const (
	DefaultFrameInterval = 0.8
	DefaultFrameFormat   = "jpeg"
	DefaultFrameQuality  = 0.8
)

// Frame is a single still image extracted from the video at a known timestamp.
type Frame struct {
	Id        string  `json:"id"`
	Timestamp float64 `json:"timestamp"` // Seconds from the start of the video.
	Url       string  `json:"url"`
	Size      int64   `json:"size"`
}

// FrameSettings controls how frames are sampled from the video.
type FrameSettings struct {
	IntervalSeconds float64 `json:"interval"`
	ImageFormat     string  `json:"format"`
	Quality         float64 `json:"quality"` // 0 < quality <= 1
}

// NewFrameSettings returns the default sampling settings.
func NewFrameSettings() FrameSettings {
	return FrameSettings{
		IntervalSeconds: DefaultFrameInterval,
		ImageFormat:     DefaultFrameFormat,
		Quality:         DefaultFrameQuality,
	}
}

// Validate checks the settings are usable by the frame extractor.
func (s FrameSettings) Validate() error {
	if s.IntervalSeconds <= 0 {
		return fmt.Errorf("%w: frame interval must be positive, got %v", ErrIO, s.IntervalSeconds)
	}
	switch s.ImageFormat {
	case "jpeg", "png", "webp":
	default:
		return fmt.Errorf("%w: unsupported frame format %q", ErrIO, s.ImageFormat)
	}
	if s.Quality <= 0 || s.Quality > 1 {
		return fmt.Errorf("%w: frame quality must be in (0,1], got %v", ErrIO, s.Quality)
	}
	return nil
}

// VideoMeta describes the source video as reported by the extractor.
type VideoMeta struct {
	DurationSeconds float64 `json:"durationSeconds"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	Format          string  `json:"format"`
	Size            int64   `json:"size"`
}

// FrameSet is the frame extraction result: the ordered frames, the video
// metadata and the settings that were used to produce them.
type FrameSet struct {
	Frames    []Frame       `json:"frames"`
	VideoMeta VideoMeta     `json:"videoMeta"`
	Settings  FrameSettings `json:"settings"`
}

// AudioAsset is the uploaded audio track of the video. Transcript is only
// populated when the extractor is able to transcribe during extraction.
type AudioAsset struct {
	Url             string  `json:"url"`
	Format          string  `json:"format"`
	Size            int64   `json:"size"`
	DurationSeconds float64 `json:"durationSeconds"`
	SampleRate      *int    `json:"sampleRate,omitempty"`
	Channels        *int    `json:"channels,omitempty"`
	ChannelLayout   *string `json:"channelLayout,omitempty"`
	Transcript      *string `json:"transcript,omitempty"`
}

// CategorizedFrames is the partition of a frame sequence into the five
// narrative buckets.
type CategorizedFrames struct {
	Opening      []Frame `json:"opening"`
	Setup        []Frame `json:"setup"`
	Main         []Frame `json:"main"`
	Climax       []Frame `json:"climax"`
	Closing      []Frame `json:"closing"`
	MaxTimestamp float64 `json:"maxTimestamp"`
}

// Get returns the frames of the given bucket.
func (c *CategorizedFrames) Get(segment Segment) []Frame {
	switch segment {
	case SegmentOpening:
		return c.Opening
	case SegmentSetup:
		return c.Setup
	case SegmentMain:
		return c.Main
	case SegmentClimax:
		return c.Climax
	case SegmentClosing:
		return c.Closing
	}
	return nil
}

// Total is the number of frames across all buckets.
func (c *CategorizedFrames) Total() int {
	total := 0
	for _, s := range Segments {
		total += len(c.Get(s))
	}
	return total
}

// TranscriptSegments holds the transcript slice for each bucket plus the
// untouched full transcript.
type TranscriptSegments struct {
	Opening string `json:"opening"`
	Setup   string `json:"setup"`
	Main    string `json:"main"`
	Climax  string `json:"climax"`
	Closing string `json:"closing"`
	General string `json:"general"`
}

// Get returns the transcript slice of the given bucket.
func (t *TranscriptSegments) Get(segment Segment) string {
	switch segment {
	case SegmentOpening:
		return t.Opening
	case SegmentSetup:
		return t.Setup
	case SegmentMain:
		return t.Main
	case SegmentClimax:
		return t.Climax
	case SegmentClosing:
		return t.Closing
	}
	return ""
}

// Set assigns the transcript slice of the given bucket.
func (t *TranscriptSegments) Set(segment Segment, text string) {
	switch segment {
	case SegmentOpening:
		t.Opening = text
	case SegmentSetup:
		t.Setup = text
	case SegmentMain:
		t.Main = text
	case SegmentClimax:
		t.Climax = text
	case SegmentClosing:
		t.Closing = text
	}
}

// Message roles understood by the completion services.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in a completion conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// SegmentEvaluation is the raw JSON returned by the completion service for a
// single segment.
type SegmentEvaluation struct {
	Segment Segment
	Raw     string
}
