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
	"math"
	"strings"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
)

// Split distributes the transcript words over the five buckets in proportion
// to each bucket's frame count. Each bucket receives
// floor(count/total*wordCount) contiguous words taken from a running cursor;
// words left over by the flooring are not assigned to any bucket. General is
// always the original transcript.
func Split(transcript string, categories *model.CategorizedFrames) *model.TranscriptSegments {
	out := &model.TranscriptSegments{General: transcript}
	if categories == nil {
		return out
	}

	total := categories.Total()
	if total == 0 {
		return out
	}

	words := strings.Fields(transcript)
	cursor := 0
	for _, segment := range model.Segments {
		count := len(categories.Get(segment))
		take := int(math.Floor(float64(count) / float64(total) * float64(len(words))))
		take = min(take, len(words)-cursor)
		out.Set(segment, strings.Join(words[cursor:cursor+take], " "))
		cursor += take
	}
	return out
}
