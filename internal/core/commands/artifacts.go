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
	"sync"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
)

// Artifacts collects the URLs of remote objects staged during one run so
// they can be removed when the run ends, whatever its outcome.
type Artifacts struct {
	mu   sync.Mutex
	urls []string
}

func (a *Artifacts) AddAudio(audio *model.AudioAsset) {
	if audio == nil || audio.Url == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.urls = append(a.urls, audio.Url)
}

func (a *Artifacts) AddFrames(frames *model.FrameSet) {
	if frames == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, f := range frames.Frames {
		if f.Url != "" {
			a.urls = append(a.urls, f.Url)
		}
	}
}

func (a *Artifacts) URLs() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.urls))
	copy(out, a.urls)
	return out
}

// GetArtifacts returns the run's artifact list, creating it on first use.
func GetArtifacts(context cor.Context) *Artifacts {
	if a, ok := context.Get(ParamArtifacts).(*Artifacts); ok {
		return a
	}
	a := &Artifacts{}
	context.Add(ParamArtifacts, a)
	return a
}

func hasParams(context cor.Context, keys ...string) bool {
	if context == nil || context.GetContext() == nil {
		return false
	}
	for _, k := range keys {
		if context.Get(k) == nil {
			return false
		}
	}
	return true
}
