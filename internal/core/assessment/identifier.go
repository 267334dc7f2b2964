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

// Package assessment contains the deterministic core of the video assessment
// pipeline: content identification, frame categorization, transcript
// splitting, prompt construction and result validation. Nothing in this
// package performs network I/O.
package assessment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
)

// Identify streams r through SHA-256 and returns the lowercase hex digest.
// The reader is consumed in chunks so inputs larger than memory are fine.
func Identify(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("%w: failed to read content stream: %w", model.ErrIO, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IdentifyFile computes the content identifier of a local file.
func IdentifyFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to open %s: %w", model.ErrIO, path, err)
	}
	defer f.Close()
	return Identify(f)
}

// IsIdentifier reports whether s has the shape of a content identifier.
func IsIdentifier(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
