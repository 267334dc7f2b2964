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

package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/google/uuid"
	"github.com/jaycherian/gcp-go-video-assessment/internal/cloud"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"golang.org/x/sync/errgroup"
)

const (
	TempDirPrefix     = "ffmpeg-output-"
	framePattern      = "frame-%06d"
	uploadConcurrency = 8
)

var imageContentTypes = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}

var audioContentTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"wav":  "audio/wav",
	"flac": "audio/flac",
	"m4a":  "audio/mp4",
	"ogg":  "audio/ogg",
}

// ProbeResult is the subset of `ffprobe -print_format json` output the
// extractor reads.
type ProbeResult struct {
	Format  ProbeFormat   `json:"format"`
	Streams []ProbeStream `json:"streams"`
}

type ProbeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

type ProbeStream struct {
	CodecType     string `json:"codec_type"`
	CodecName     string `json:"codec_name"`
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	SampleRate    string `json:"sample_rate"`
	Channels      int    `json:"channels"`
	ChannelLayout string `json:"channel_layout"`
}

func ParseProbe(output []byte) (*ProbeResult, error) {
	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}
	return &result, nil
}

func (r *ProbeResult) DurationSeconds() float64 {
	d, _ := strconv.ParseFloat(r.Format.Duration, 64)
	return d
}

func (r *ProbeResult) Size() int64 {
	s, _ := strconv.ParseInt(r.Format.Size, 10, 64)
	return s
}

func (r *ProbeResult) stream(codecType string) *ProbeStream {
	for i := range r.Streams {
		if r.Streams[i].CodecType == codecType {
			return &r.Streams[i]
		}
	}
	return nil
}

// VideoMeta describes the first video stream.
func (r *ProbeResult) VideoMeta() model.VideoMeta {
	meta := model.VideoMeta{
		DurationSeconds: r.DurationSeconds(),
		Format:          r.Format.FormatName,
		Size:            r.Size(),
	}
	if v := r.stream("video"); v != nil {
		meta.Width = v.Width
		meta.Height = v.Height
	}
	return meta
}

// AudioAsset describes the first audio stream. Optional attributes stay nil
// when ffprobe does not report them.
func (r *ProbeResult) AudioAsset(format string) *model.AudioAsset {
	asset := &model.AudioAsset{
		Format:          format,
		Size:            r.Size(),
		DurationSeconds: r.DurationSeconds(),
	}
	a := r.stream("audio")
	if a == nil {
		return asset
	}
	if rate, err := strconv.Atoi(a.SampleRate); err == nil && rate > 0 {
		asset.SampleRate = &rate
	}
	if a.Channels > 0 {
		channels := a.Channels
		asset.Channels = &channels
	}
	if a.ChannelLayout != "" {
		layout := a.ChannelLayout
		asset.ChannelLayout = &layout
	}
	return asset
}

// QualityArgs maps a quality in (0,1] to the encoder flags of the image
// format. JPEG uses the 2 (best) to 31 (worst) qscale range, WebP a 0-100
// quality and PNG is lossless.
func QualityArgs(format string, quality float64) []string {
	switch format {
	case "jpeg":
		q := int(math.Round(2 + (1-quality)*29))
		return []string{"-q:v", strconv.Itoa(q)}
	case "webp":
		return []string{"-quality", strconv.Itoa(int(math.Round(quality * 100)))}
	default:
		return nil
	}
}

// FrameTimestamp is the presentation time of the index-th sampled frame.
func FrameTimestamp(index int, interval float64) float64 {
	return math.Round(float64(index)*interval*1000) / 1000
}

// FFmpegExtractor runs ffprobe and ffmpeg on the local video and stages the
// outputs in the artifact store. Local outputs are removed before returning.
type FFmpegExtractor struct {
	FFmpegPath  string
	FFprobePath string
	AudioFormat string
	Store       ArtifactStore
}

func NewFFmpegExtractor(config *cloud.Config, store ArtifactStore) *FFmpegExtractor {
	return &FFmpegExtractor{
		FFmpegPath:  config.Extraction.FFmpegPath,
		FFprobePath: config.Extraction.FFprobePath,
		AudioFormat: config.Extraction.AudioFormat,
		Store:       store,
	}
}

func (e *FFmpegExtractor) run(ctx context.Context, binary string, args ...string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", filepath.Base(binary), err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

func (e *FFmpegExtractor) probe(ctx context.Context, path string) (*ProbeResult, error) {
	out, err := e.run(ctx, e.FFprobePath, "-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path)
	if err != nil {
		return nil, err
	}
	return ParseProbe(out)
}

// ExtractAudio re-encodes the audio track to AudioFormat and uploads it.
func (e *FFmpegExtractor) ExtractAudio(ctx context.Context, videoPath string) (*model.AudioAsset, error) {
	contentType, ok := audioContentTypes[e.AudioFormat]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported audio format %q", model.ErrExtraction, e.AudioFormat)
	}
	dir, err := os.MkdirTemp("", TempDirPrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrExtraction, err)
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "audio."+e.AudioFormat)
	if _, err = e.run(ctx, e.FFmpegPath, "-y", "-hide_banner", "-i", videoPath, "-vn", out); err != nil {
		return nil, fmt.Errorf("%w: audio: %w", model.ErrExtraction, err)
	}
	probe, err := e.probe(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("%w: audio: %w", model.ErrExtraction, err)
	}

	asset := probe.AudioAsset(e.AudioFormat)
	if asset.Size == 0 {
		if info, err := os.Stat(out); err == nil {
			asset.Size = info.Size()
		}
	}
	objectName := fmt.Sprintf("%s/audio.%s", uuid.NewString(), e.AudioFormat)
	if asset.Url, err = e.Store.Upload(ctx, out, objectName, contentType); err != nil {
		return nil, fmt.Errorf("%w: audio upload: %w", model.ErrExtraction, err)
	}
	return asset, nil
}

// ExtractFrames samples one frame every settings.IntervalSeconds starting at
// zero and uploads them. On failure the frames uploaded so far are deleted.
func (e *FFmpegExtractor) ExtractFrames(ctx context.Context, videoPath string, settings model.FrameSettings) (*model.FrameSet, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	probe, err := e.probe(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: frames: %w", model.ErrExtraction, err)
	}

	dir, err := os.MkdirTemp("", TempDirPrefix)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrExtraction, err)
	}
	defer os.RemoveAll(dir)

	ext := settings.ImageFormat
	args := []string{"-y", "-hide_banner", "-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%g", settings.IntervalSeconds)}
	args = append(args, QualityArgs(ext, settings.Quality)...)
	args = append(args, filepath.Join(dir, framePattern+"."+ext))
	if _, err = e.run(ctx, e.FFmpegPath, args...); err != nil {
		return nil, fmt.Errorf("%w: frames: %w", model.ErrExtraction, err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "frame-*."+ext))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrExtraction, err)
	}
	sort.Strings(files)

	prefix := uuid.NewString()
	frames := make([]model.Frame, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for i, file := range files {
		g.Go(func() error {
			info, err := os.Stat(file)
			if err != nil {
				return err
			}
			id := uuid.NewString()
			u, err := e.Store.Upload(gctx, file, fmt.Sprintf("%s/frames/%s.%s", prefix, id, ext), imageContentTypes[ext])
			if err != nil {
				return err
			}
			frames[i] = model.Frame{
				Id:        id,
				Timestamp: FrameTimestamp(i, settings.IntervalSeconds),
				Url:       u,
				Size:      info.Size(),
			}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		e.discard(frames)
		return nil, fmt.Errorf("%w: frame upload: %w", model.ErrExtraction, err)
	}

	return &model.FrameSet{Frames: frames, VideoMeta: probe.VideoMeta(), Settings: settings}, nil
}

func (e *FFmpegExtractor) discard(frames []model.Frame) {
	for _, f := range frames {
		if f.Url == "" {
			continue
		}
		if err := e.Store.Delete(context.Background(), f.Url); err != nil {
			slog.Warn("failed to delete frame artifact", "url", f.Url, "error", err)
		}
	}
}
