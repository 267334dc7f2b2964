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
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/bigquery"
	"github.com/jaycherian/gcp-go-video-assessment/internal/core/model"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// AssessmentRow is the BigQuery row of one stored result. The result is
// kept as a JSON string so the document keeps its exact wire shape.
type AssessmentRow struct {
	Identifier string    `bigquery:"identifier"`
	Result     string    `bigquery:"result"`
	CreatedAt  time.Time `bigquery:"created_at"`
}

func NewAssessmentRow(identifier string, result *model.AssessmentResult) (*AssessmentRow, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &AssessmentRow{Identifier: identifier, Result: string(b), CreatedAt: result.CreatedAt}, nil
}

// Record decodes the row into a cached ContentRecord.
func (r *AssessmentRow) Record() (*model.ContentRecord, error) {
	result := &model.AssessmentResult{}
	if err := json.Unmarshal([]byte(r.Result), result); err != nil {
		return nil, err
	}
	record := model.NewContentRecord(r.Identifier, result)
	record.Cached = true
	return record, nil
}

// BigQueryResultCache stores results in an append only BigQuery table.
type BigQueryResultCache struct {
	BigqueryClient *bigquery.Client
	DatasetName    string
	Table          string
}

func NewBigQueryResultCache(client *bigquery.Client, dataset string, table string) *BigQueryResultCache {
	return &BigQueryResultCache{BigqueryClient: client, DatasetName: dataset, Table: table}
}

func (s *BigQueryResultCache) table() *bigquery.Table {
	return s.BigqueryClient.Dataset(s.DatasetName).Table(s.Table)
}

// GetFQN returns the table name in standard SQL form (project.dataset.table).
func (s *BigQueryResultCache) GetFQN() string {
	return strings.Replace(s.table().FullyQualifiedName(), ":", ".", -1)
}

// EnsureTable creates the table when it does not exist yet.
func (s *BigQueryResultCache) EnsureTable(ctx context.Context) error {
	schema, err := bigquery.InferSchema(AssessmentRow{})
	if err != nil {
		return err
	}
	err = s.table().Create(ctx, &bigquery.TableMetadata{Schema: schema})
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict {
		return nil
	}
	return err
}

func (s *BigQueryResultCache) Get(ctx context.Context, identifier string) (*model.ContentRecord, error) {
	q := s.BigqueryClient.Query(fmt.Sprintf(QryFindAssessmentById, s.GetFQN()))
	q.Parameters = []bigquery.QueryParameter{{Name: "identifier", Value: identifier}}
	itr, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCache, err)
	}
	var row AssessmentRow
	err = itr.Next(&row)
	if errors.Is(err, iterator.Done) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCache, err)
	}
	record, err := row.Record()
	if err != nil {
		return nil, fmt.Errorf("%w: stored result for %s: %w", model.ErrCache, identifier, err)
	}
	return record, nil
}

func (s *BigQueryResultCache) Create(ctx context.Context, identifier string, result *model.AssessmentResult) (*model.ContentRecord, error) {
	row, err := NewAssessmentRow(identifier, result)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCache, err)
	}
	if err = s.table().Inserter().Put(ctx, row); err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrCache, err)
	}
	return model.NewContentRecord(identifier, result), nil
}
