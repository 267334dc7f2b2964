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
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/assessment"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"github.com/zeebo/assert"
)

type failingReader struct{}

func (failingReader) Read(_ []byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestIdentifyKnownDigest(t *testing.T) {
	id, err := assessment.Identify(strings.NewReader("abc"))
	assert.Nil(t, err)
	assert.Equal(t, id, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad")
}

func TestIdentifyIgnoresFileName(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte("video-bytes-"), 100_000)

	a := filepath.Join(dir, "first.mp4")
	b := filepath.Join(dir, "renamed-upload.mov")
	assert.Nil(t, os.WriteFile(a, content, 0o600))
	assert.Nil(t, os.WriteFile(b, content, 0o600))

	idA, err := assessment.IdentifyFile(a)
	assert.Nil(t, err)
	idB, err := assessment.IdentifyFile(b)
	assert.Nil(t, err)

	assert.Equal(t, idA, idB)
	assert.Equal(t, len(idA), 64)
	assert.Equal(t, idA, strings.ToLower(idA))
}

func TestIdentifyStreamsInChunks(t *testing.T) {
	// A reader that only hands out a few bytes at a time.
	r := io.LimitReader(&repeatReader{b: 'x'}, 1<<20)
	id, err := assessment.Identify(r)
	assert.Nil(t, err)

	direct, err := assessment.Identify(bytes.NewReader(bytes.Repeat([]byte{'x'}, 1<<20)))
	assert.Nil(t, err)
	assert.Equal(t, id, direct)
}

func TestIdentifyReadFailure(t *testing.T) {
	_, err := assessment.Identify(failingReader{})
	assert.That(t, errors.Is(err, model.ErrIO))

	_, err = assessment.IdentifyFile(filepath.Join(t.TempDir(), "missing.mp4"))
	assert.That(t, errors.Is(err, model.ErrIO))
}

type repeatReader struct{ b byte }

func (r *repeatReader) Read(p []byte) (int, error) {
	n := len(p)
	if n > 7 {
		n = 7
	}
	for i := 0; i < n; i++ {
		p[i] = r.b
	}
	return n, nil
}

func TestIsIdentifier(t *testing.T) {
	id, err := assessment.Identify(strings.NewReader("abc"))
	assert.Nil(t, err)
	assert.That(t, assessment.IsIdentifier(id))
	assert.That(t, !assessment.IsIdentifier(strings.ToUpper(id)))
	assert.That(t, !assessment.IsIdentifier(id[:63]))
	assert.That(t, !assessment.IsIdentifier("pitch-001.mp4"))
}
