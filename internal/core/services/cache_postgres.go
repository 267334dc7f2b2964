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
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
)

// PostgresResultCache stores results as JSONB rows keyed by identifier.
type PostgresResultCache struct {
	pool  *pgxpool.Pool
	table string
}

func NewPostgresResultCache(pool *pgxpool.Pool, table string) *PostgresResultCache {
	return &PostgresResultCache{pool: pool, table: pgx.Identifier{table}.Sanitize()}
}

// EnsureSchema verifies the connection and creates the table if needed.
func (s *PostgresResultCache) EnsureSchema(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(PgCreateAssessmentTable, s.table)); err != nil {
		return fmt.Errorf("failed to create table %s: %w", s.table, err)
	}
	return nil
}

func (s *PostgresResultCache) Get(ctx context.Context, identifier string) (*model.ContentRecord, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, fmt.Sprintf(PgFindAssessmentById, s.table), identifier).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCache, err)
	}
	result := &model.AssessmentResult{}
	if err = json.Unmarshal(raw, result); err != nil {
		return nil, fmt.Errorf("%w: stored result for %s: %w", model.ErrCache, identifier, err)
	}
	record := model.NewContentRecord(identifier, result)
	record.Cached = true
	return record, nil
}

func (s *PostgresResultCache) Create(ctx context.Context, identifier string, result *model.AssessmentResult) (*model.ContentRecord, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCache, err)
	}
	if _, err = s.pool.Exec(ctx, fmt.Sprintf(PgUpsertAssessment, s.table), identifier, raw, result.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCache, err)
	}
	return model.NewContentRecord(identifier, result), nil
}
