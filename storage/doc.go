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


// Package storage provides the storage abstraction layer for doxa.
//
// The ingestion pipeline needs exactly two operations from a store: Insert a
// chunk and look up the largest chunk index in a scope. Both are defined by
// ChunkRepository. ChunkAuditor adds the read-only statistics used to verify
// a corpus after a run.
//
// # Duplicate Detection
//
// Backends translate their own uniqueness violations into sentinel errors so
// the pipeline never inspects driver-specific codes:
//
//   - ErrDuplicateKey: the statement's identity is already stored (skip)
//   - ErrIndexConflict: another statement holds the index (item failure)
//
// # Backends
//
//   - storage/postgres: Postgres with the pgvector extension (production)
//   - storage/badger: embedded BadgerDB store (local runs, tests)
//
// Package-level constructors return the ChunkStore interface:
//
//	repo, err := badger.NewRepository("/var/lib/doxa")  // returns storage.ChunkStore
//
// # Thread Safety
//
// All repository implementations must be thread-safe. Ingestion itself
// assumes a single writer per scope; concurrent runs against the same
// scope are not supported.
package storage
