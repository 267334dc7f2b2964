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
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/assessment"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/cor"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ContentIdentifier hashes the video at ParamVideoPath.
type ContentIdentifier struct {
	cor.BaseCommand
}

func NewContentIdentifier(name string) *ContentIdentifier {
	out := &ContentIdentifier{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = ParamVideoPath
	return out
}

func (c *ContentIdentifier) Execute(context cor.Context) {
	path := context.Get(c.GetInputParam()).(string)
	id, err := assessment.IdentifyFile(path)
	if err != nil {
		c.Fail(context, err)
		return
	}
	trace.SpanFromContext(context.GetContext()).SetAttributes(attribute.String("identifier", id))
	c.Succeed(context)
	context.Add(ParamIdentifier, id)
	context.Add(c.GetOutputParam(), id)
}
