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

import "github.com/jaycherian/gcp-go-video-assessment/internal/core/model"

// Inclusive upper bounds, in percent of the last frame timestamp, of the
// first four buckets. Anything above climaxUpperBound is closing.
const (
	openingUpperBound = 10.0
	setupUpperBound   = 20.0
	mainUpperBound    = 60.0
	climaxUpperBound  = 90.0
)

// Categorize partitions frames into the five narrative buckets by the
// relative position of their timestamp. Frames keep their input order inside
// each bucket.
func Categorize(frames []model.Frame) *model.CategorizedFrames {
	out := &model.CategorizedFrames{
		Opening: make([]model.Frame, 0),
		Setup:   make([]model.Frame, 0),
		Main:    make([]model.Frame, 0),
		Climax:  make([]model.Frame, 0),
		Closing: make([]model.Frame, 0),
	}
	if len(frames) == 0 {
		return out
	}

	for _, f := range frames {
		if f.Timestamp > out.MaxTimestamp {
			out.MaxTimestamp = f.Timestamp
		}
	}

	for _, f := range frames {
		percent := 0.0
		if out.MaxTimestamp > 0 {
			percent = f.Timestamp / out.MaxTimestamp * 100
		}
		switch {
		case percent <= openingUpperBound:
			out.Opening = append(out.Opening, f)
		case percent <= setupUpperBound:
			out.Setup = append(out.Setup, f)
		case percent <= mainUpperBound:
			out.Main = append(out.Main, f)
		case percent <= climaxUpperBound:
			out.Climax = append(out.Climax, f)
		default:
			out.Closing = append(out.Closing, f)
		}
	}
	return out
}
