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

const (
	// QryFindAssessmentById returns the newest row for an identifier. Rows
	// are append only, so a duplicate computation shows up as a second row
	// and the latest write wins.
	//
	// Placeholders:
	// - `%s`: The fully qualified name of the assessment table.
	// Parameters:
	// - `@identifier`: The content identifier.
	QryFindAssessmentById = "SELECT identifier, result, created_at FROM `%s` WHERE identifier = @identifier ORDER BY created_at DESC LIMIT 1"

	// PgCreateAssessmentTable creates the Postgres cache table.
	//
	// Placeholders:
	// - `%s`: The sanitized table name.
	PgCreateAssessmentTable = `CREATE TABLE IF NOT EXISTS %s (
	identifier TEXT PRIMARY KEY,
	result JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
)`

	// PgFindAssessmentById loads one record.
	PgFindAssessmentById = "SELECT result FROM %s WHERE identifier = $1"

	// PgUpsertAssessment stores a record, replacing a concurrent duplicate.
	PgUpsertAssessment = `INSERT INTO %s (identifier, result, created_at) VALUES ($1, $2, $3)
ON CONFLICT (identifier) DO UPDATE SET result = EXCLUDED.result, created_at = EXCLUDED.created_at`
)
