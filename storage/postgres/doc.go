// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package postgres implements the chunk store on PostgreSQL with pgvector.
//
// Chunks live in the paper_chunks table. Two unique indexes enforce the
// storage contract: paper_chunks_unique_idx on (figure_id, paper_title,
// chunk_index) and paper_chunks_identity_idx on (figure_id, content_hash).
// Unique violations are mapped by constraint name, so a repeated statement
// surfaces as storage.ErrDuplicateKey while a taken index surfaces as
// storage.ErrIndexConflict.
//
// Run Migrate once before the first ingestion:
//
//	if err := postgres.Migrate(ctx, dsn, 1536); err != nil {
//	    return err
//	}
//	store, err := postgres.Open(ctx, dsn)
package postgres
