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

// Package main runs the video assessment server.
//
// The server exposes the synchronous upload API and, when a topic
// subscription is configured, assesses videos announced by Cloud Storage
// notifications in the background. Both paths share one pipeline instance
// and therefore one result cache.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jaycherian/gcp-go-video-assessment/internal/api"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/workflow"
	"github.com/jaycherian/gcp-go-video-assessment/internal/telemetry"
)

const shutdownTimeout = 30 * time.Second

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()
	telemetry.SetupLogging(config.Application.LogFormat)

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		log.Fatalf("failed to setup OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Error("failed to shutdown telemetry", "error", err)
		}
	}()

	InitState(ctx)
	defer state.cloud.Close()
	slog.Info("initialized state")

	if config.Application.LogFormat != telemetry.LogFormatConsole {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(config.Application.Name, &api.AssessmentHandler{
		Assessor:       state.assessment,
		Cache:          state.deps.Cache,
		Defaults:       workflow.FrameSettingsFromConfig(config),
		MaxUploadBytes: config.Server.MaxUploadBytes,
	}, state.assessment)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(config.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(config.Server.WriteTimeoutSeconds) * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen", "error", err)
			cancel()
		}
	}()
	slog.Info("server ready", "port", config.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	// Stops the Pub/Sub receivers.
	cancel()
	slog.Info("server exiting", "stats", state.assessment.Stats())
}
