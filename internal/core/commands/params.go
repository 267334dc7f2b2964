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

// Package commands contains the chain commands of the assessment pipeline.
// Each command reads its inputs from the chain context under the keys
// declared here and writes its outputs under its own keys, so commands can be
// arranged into chains without knowing about each other.
package commands

// Context keys shared by the assessment commands.
const (
	ParamGCSObject          = "__GCS__OBJ__"             // *cloud.GCSObject that triggered the run.
	ParamVideoPath          = "__VIDEO__PATH__"          // string, local path of the uploaded video.
	ParamFrameSettings      = "__FRAME__SETTINGS__"      // model.FrameSettings requested for the run.
	ParamIdentifier         = "__IDENTIFIER__"           // string, hex SHA-256 of the video.
	ParamRecord             = "__RECORD__"               // *model.ContentRecord, cached or stored.
	ParamAudio              = "__AUDIO__"                // *model.AudioAsset.
	ParamFrameSet           = "__FRAME__SET__"           // *model.FrameSet.
	ParamArtifacts          = "__ARTIFACTS__"            // *Artifacts staged remotely for the run.
	ParamTranscript         = "__TRANSCRIPT__"           // string, the full transcript.
	ParamCategorizedFrames  = "__CATEGORIZED__FRAMES__"  // *model.CategorizedFrames.
	ParamTranscriptSegments = "__TRANSCRIPT__SEGMENTS__" // *model.TranscriptSegments.
	ParamSegmentResults     = "__SEGMENT__RESULTS__"     // map[model.Segment]string, raw completion text.
	ParamSummaryResult      = "__SUMMARY__RESULT__"      // string, raw completion text.
	ParamDocument           = "__DOCUMENT__"             // *model.AssessmentDocument.
)
