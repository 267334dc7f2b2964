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
	"fmt"
	"testing"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/assessment"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"github.com/stretchr/testify/assert"
)

func framesAt(timestamps ...float64) []model.Frame {
	out := make([]model.Frame, 0, len(timestamps))
	for i, ts := range timestamps {
		out = append(out, model.Frame{
			Id:        fmt.Sprintf("frame-%d", i),
			Timestamp: ts,
			Url:       fmt.Sprintf("gs://frames/frame-%d.jpeg", i),
		})
	}
	return out
}

func timestamps(frames []model.Frame) []float64 {
	out := make([]float64, 0, len(frames))
	for _, f := range frames {
		out = append(out, f.Timestamp)
	}
	return out
}

func TestCategorizeBoundaries(t *testing.T) {
	out := assessment.Categorize(framesAt(0, 1, 5, 9, 10))

	assert.Equal(t, 10.0, out.MaxTimestamp)
	assert.Equal(t, []float64{0, 1}, timestamps(out.Opening))
	assert.Empty(t, out.Setup)
	assert.Equal(t, []float64{5}, timestamps(out.Main))
	assert.Equal(t, []float64{9}, timestamps(out.Climax))
	assert.Equal(t, []float64{10}, timestamps(out.Closing))
}

func TestCategorizeInclusiveThresholds(t *testing.T) {
	// 10, 20, 60 and 90 percent of 100 land in the lower bucket.
	out := assessment.Categorize(framesAt(10, 20, 60, 90, 100, 20.5))

	assert.Equal(t, []float64{10}, timestamps(out.Opening))
	assert.Equal(t, []float64{20}, timestamps(out.Setup))
	assert.Equal(t, []float64{60, 20.5}, timestamps(out.Main))
	assert.Equal(t, []float64{90}, timestamps(out.Climax))
	assert.Equal(t, []float64{100}, timestamps(out.Closing))
}

func TestCategorizeEmpty(t *testing.T) {
	out := assessment.Categorize(nil)

	assert.Equal(t, 0.0, out.MaxTimestamp)
	assert.Equal(t, 0, out.Total())
	for _, s := range model.Segments {
		assert.Empty(t, out.Get(s), s)
	}
}

func TestCategorizeSingleFrameAtZero(t *testing.T) {
	out := assessment.Categorize(framesAt(0))

	assert.Equal(t, 0.0, out.MaxTimestamp)
	assert.Len(t, out.Opening, 1)
	assert.Equal(t, 1, out.Total())
}

func TestCategorizePartitionPreservesOrder(t *testing.T) {
	// Unsorted input: order inside every bucket must follow the input order.
	in := framesAt(50, 3, 95, 1, 70, 15, 40, 99, 12, 0, 100, 88)
	out := assessment.Categorize(in)

	assert.Equal(t, 100.0, out.MaxTimestamp)
	assert.Equal(t, len(in), out.Total())

	seen := make(map[string]int)
	for _, s := range model.Segments {
		last := -1
		for _, f := range out.Get(s) {
			seen[f.Id]++
			idx := indexOf(in, f.Id)
			assert.Greater(t, idx, last, "order not preserved in %s", s)
			last = idx
		}
	}
	for _, f := range in {
		assert.Equal(t, 1, seen[f.Id], "frame %s must appear exactly once", f.Id)
	}
}

func indexOf(frames []model.Frame, id string) int {
	for i, f := range frames {
		if f.Id == id {
			return i
		}
	}
	return -1
}
