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
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/cor"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/services"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// CacheLookup stores the cached record for ParamIdentifier, if any, under
// ParamRecord. A miss is not an error.
type CacheLookup struct {
	cor.BaseCommand
	cache services.ResultCache
}

func NewCacheLookup(name string, cache services.ResultCache) *CacheLookup {
	out := &CacheLookup{BaseCommand: *cor.NewBaseCommand(name), cache: cache}
	out.InputParamName = ParamIdentifier
	return out
}

func (c *CacheLookup) Execute(context cor.Context) {
	id := context.Get(c.GetInputParam()).(string)
	record, err := c.cache.Get(context.GetContext(), id)
	if err != nil {
		c.Fail(context, err)
		return
	}
	c.Succeed(context)
	trace.SpanFromContext(context.GetContext()).SetAttributes(attribute.Bool("hit", record != nil))
	if record != nil {
		context.Add(ParamRecord, record)
	}
}
