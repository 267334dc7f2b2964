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

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/services"
)

const (
	FakeAudioURL   = "gs://fake-artifacts/run/audio.mp3"
	FakeTranscript = "welcome to the show today we build a bird house from scrap wood and finish it with paint"
)

// FakeArtifactStore keeps objects in memory keyed by URL.
type FakeArtifactStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	OpenErr error
}

func NewFakeArtifactStore() *FakeArtifactStore {
	return &FakeArtifactStore{objects: make(map[string][]byte)}
}

func (s *FakeArtifactStore) Put(uri string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[uri] = data
}

func (s *FakeArtifactStore) Upload(_ context.Context, localPath string, objectName string, _ string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	uri := "gs://fake-artifacts/" + objectName
	s.Put(uri, data)
	return uri, nil
}

func (s *FakeArtifactStore) Open(_ context.Context, uri string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.OpenErr != nil {
		return nil, s.OpenErr
	}
	data, ok := s.objects[uri]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", uri)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *FakeArtifactStore) Delete(_ context.Context, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, uri)
	s.deleted = append(s.deleted, uri)
	return nil
}

func (s *FakeArtifactStore) Deleted() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.deleted))
	copy(out, s.deleted)
	return out
}

// Barrier releases its callers once N of them are waiting. A caller that
// waits longer than Timeout gets an error instead.
type Barrier struct {
	N       int
	Timeout time.Duration

	once    sync.Once
	mu      sync.Mutex
	arrived int
	release chan struct{}
}

func NewBarrier(n int) *Barrier {
	return &Barrier{N: n, Timeout: 5 * time.Second}
}

func (b *Barrier) init() {
	b.once.Do(func() { b.release = make(chan struct{}) })
}

func (b *Barrier) Wait(ctx context.Context) error {
	b.init()
	b.mu.Lock()
	b.arrived++
	if b.arrived == b.N {
		close(b.release)
	}
	arrived := b.arrived
	b.mu.Unlock()

	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(b.Timeout):
		return fmt.Errorf("barrier: %d of %d callers arrived", arrived, b.N)
	}
}

// FakeExtractor returns FrameCount frames spaced by the requested interval
// and an audio asset stored in Store. Both calls wait on Gate when set.
type FakeExtractor struct {
	Store       *FakeArtifactStore
	FrameCount  int
	AudioErr    error
	FramesErr   error
	Gate        *Barrier
	AudioCalls  atomic.Int32
	FramesCalls atomic.Int32
}

func (e *FakeExtractor) ExtractAudio(ctx context.Context, _ string) (*model.AudioAsset, error) {
	e.AudioCalls.Add(1)
	if e.Gate != nil {
		if err := e.Gate.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if e.AudioErr != nil {
		return nil, e.AudioErr
	}
	e.Store.Put(FakeAudioURL, []byte("ID3 fake audio"))
	return &model.AudioAsset{Url: FakeAudioURL, Format: "mp3", Size: 14, DurationSeconds: 10}, nil
}

func (e *FakeExtractor) ExtractFrames(ctx context.Context, _ string, settings model.FrameSettings) (*model.FrameSet, error) {
	e.FramesCalls.Add(1)
	if e.Gate != nil {
		if err := e.Gate.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if e.FramesErr != nil {
		return nil, e.FramesErr
	}
	frames := make([]model.Frame, e.FrameCount)
	for i := range frames {
		url := fmt.Sprintf("gs://fake-artifacts/run/frames/frame-%d.%s", i, settings.ImageFormat)
		e.Store.Put(url, []byte("frame"))
		frames[i] = model.Frame{
			Id:        fmt.Sprintf("frame-%d", i),
			Timestamp: services.FrameTimestamp(i, settings.IntervalSeconds),
			Url:       url,
			Size:      5,
		}
	}
	return &model.FrameSet{
		Frames:    frames,
		VideoMeta: model.VideoMeta{DurationSeconds: float64(e.FrameCount) * settings.IntervalSeconds, Width: 640, Height: 360, Format: "mp4"},
		Settings:  settings,
	}, nil
}

func (e *FakeExtractor) Calls() int {
	return int(e.AudioCalls.Load() + e.FramesCalls.Load())
}

// FakeTranscriber returns Transcript for any audio.
type FakeTranscriber struct {
	Transcript string
	Err        error
	calls      atomic.Int32
}

func (t *FakeTranscriber) Transcribe(_ context.Context, audio io.Reader, _ string) (string, error) {
	t.calls.Add(1)
	if _, err := io.Copy(io.Discard, audio); err != nil {
		return "", err
	}
	if t.Err != nil {
		return "", t.Err
	}
	return t.Transcript, nil
}

func (t *FakeTranscriber) Calls() int {
	return int(t.calls.Load())
}

// FakeCompleter answers segment prompts with SegmentResponse and summary
// prompts with SummaryResponse. Respond, when set, overrides both.
type FakeCompleter struct {
	SegmentResponse string
	SummaryResponse string
	Respond         func(messages []model.Message) (string, error)
	calls           atomic.Int32
}

// NewFakeCompleter answers with the example result items.
func NewFakeCompleter() *FakeCompleter {
	segment, _ := json.Marshal(model.GetExampleResultItem())
	summary, _ := json.Marshal(model.GetExampleGeneralResultItem())
	return &FakeCompleter{SegmentResponse: string(segment), SummaryResponse: string(summary)}
}

// IsSummaryRequest reports whether the conversation asks for the summary.
func IsSummaryRequest(messages []model.Message) bool {
	return len(messages) > 0 && strings.Contains(messages[len(messages)-1].Content, `"summary"`)
}

func (c *FakeCompleter) Complete(_ context.Context, messages []model.Message) (string, error) {
	c.calls.Add(1)
	if c.Respond != nil {
		return c.Respond(messages)
	}
	if IsSummaryRequest(messages) {
		return c.SummaryResponse, nil
	}
	return c.SegmentResponse, nil
}

func (c *FakeCompleter) Calls() int {
	return int(c.calls.Load())
}

// CountingCache wraps a MemoryResultCache and counts calls.
type CountingCache struct {
	*services.MemoryResultCache
	GetErr    error
	CreateErr error
	gets      atomic.Int32
	creates   atomic.Int32
}

func NewCountingCache() *CountingCache {
	return &CountingCache{MemoryResultCache: services.NewMemoryResultCache()}
}

func (c *CountingCache) Get(ctx context.Context, identifier string) (*model.ContentRecord, error) {
	c.gets.Add(1)
	if c.GetErr != nil {
		return nil, c.GetErr
	}
	return c.MemoryResultCache.Get(ctx, identifier)
}

func (c *CountingCache) Create(ctx context.Context, identifier string, result *model.AssessmentResult) (*model.ContentRecord, error) {
	c.creates.Add(1)
	if c.CreateErr != nil {
		return nil, c.CreateErr
	}
	return c.MemoryResultCache.Create(ctx, identifier, result)
}

func (c *CountingCache) Gets() int    { return int(c.gets.Load()) }
func (c *CountingCache) Creates() int { return int(c.creates.Load()) }
