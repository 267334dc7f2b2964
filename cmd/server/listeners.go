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

package main

import (
	"context"
	"log/slog"

	"github.com/jaycherian/gcp-go-video-assessment/internal/cloud"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/workflow"
)

// VideoTopic is the subscription key of Cloud Storage video notifications.
const VideoTopic = "VideoTopic"

// SetupListeners starts the background assessment of uploaded videos when
// a VideoTopic subscription is configured.
func SetupListeners(config *cloud.Config, cloudClients *cloud.ServiceClients, ctx context.Context) {
	listener, ok := cloudClients.PubSubListeners[VideoTopic]
	if !ok {
		slog.Info("no video subscription configured, upload API only")
		return
	}
	trigger := workflow.NewVideoTriggerWorkflow(config, state.deps.Store, state.assessment)
	listener.SetCommand(trigger)
	listener.Listen(ctx)
}
