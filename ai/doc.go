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


// Package ai provides the embedding-service abstraction used by doxa.
//
// The Embedder interface converts text into a fixed-length vector. Every
// implementation truncates its input to the configured character ceiling
// with Truncate, so the same text always produces the same request.
//
// # Errors
//
// Failed calls are reported as *ServiceError. Most are transient from the
// pipeline's point of view: the statement is skipped and can be picked up by
// a later run. A ServiceError with Fatal set (rejected credentials) means no
// further call can succeed; use IsFatal to detect it.
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible embedding API via langchaingo
//   - ai/mock: deterministic test double
//
// Public constructors return the Embedder interface:
//
//	embedder, err := openai.NewEmbedder(cfg)  // returns ai.Embedder
//
// # Caching
//
// CachingEmbedder wraps any Embedder with a VectorCache, so re-running an
// ingestion over statements that are already stored does not pay for the
// embeddings twice:
//
//	cached := ai.NewCachingEmbedder(embedder, cache, cfg.EmbeddingModel)
package ai
