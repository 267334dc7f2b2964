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
	"log"
	"os"

	"github.com/jaycherian/gcp-go-video-assessment/internal/cloud"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/workflow"
)

// StateManager holds the dependencies shared by the HTTP handlers and the
// background listeners.
type StateManager struct {
	config     *cloud.Config
	cloud      *cloud.ServiceClients
	deps       *workflow.Dependencies
	assessment *workflow.AssessmentWorkflow
}

var state = &StateManager{}

// SetupOS points the configuration loader at ./configs. GCP_RUNTIME, when
// already set, selects the runtime file; otherwise "local" is used.
func SetupOS() (err error) {
	if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
		if err = os.Setenv(cloud.EnvConfigFilePrefix, "configs"); err != nil {
			return err
		}
	}
	if os.Getenv(cloud.EnvConfigRuntime) == "" {
		err = os.Setenv(cloud.EnvConfigRuntime, "local")
	}
	return err
}

// GetConfig loads the configuration on first use.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		config := cloud.NewConfig()
		if err := cloud.LoadConfig(config); err != nil {
			log.Fatalf("failed to load configuration: %v\n", err)
		}
		state.config = config
	}
	return state.config
}

// InitState creates the cloud clients, the pipeline and the listeners.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		log.Fatalf("failed to create cloud clients: %v", err)
	}
	state.cloud = cloudClients

	deps, err := workflow.NewDependencies(ctx, config, cloudClients)
	if err != nil {
		log.Fatalf("failed to create assessment dependencies: %v", err)
	}
	state.deps = deps

	assessment, err := workflow.NewAssessmentWorkflow(config, deps)
	if err != nil {
		log.Fatalf("failed to create assessment workflow: %v", err)
	}
	state.assessment = assessment

	SetupListeners(config, cloudClients, ctx)
}
