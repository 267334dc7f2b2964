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
	"context"
	"sync"

	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
)

// MemoryResultCache keeps results for the life of the process.
type MemoryResultCache struct {
	mu      sync.RWMutex
	records map[string]*model.AssessmentResult
}

func NewMemoryResultCache() *MemoryResultCache {
	return &MemoryResultCache{records: make(map[string]*model.AssessmentResult)}
}

func (c *MemoryResultCache) Get(_ context.Context, identifier string) (*model.ContentRecord, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	result, ok := c.records[identifier]
	if !ok {
		return nil, nil
	}
	record := model.NewContentRecord(identifier, result)
	record.Cached = true
	return record, nil
}

// Create stores result, replacing any earlier result for identifier.
func (c *MemoryResultCache) Create(_ context.Context, identifier string, result *model.AssessmentResult) (*model.ContentRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[identifier] = result
	return model.NewContentRecord(identifier, result), nil
}

// Len returns the number of stored results.
func (c *MemoryResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
