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

// Package corpus holds curated position statements before ingestion.
//
// A Corpus is an ordered list of sections, one per author run, each holding
// topics with their statements. Loaders read three layouts:
//
//   - YAML section files (sections, topics, statements, positions)
//   - JSON position databases ({"positions": [...]}) for one author
//   - pipe-delimited text, one "thinker | statement | topic" per line
//
// Entries a loader cannot use are kept in Corpus.Rejected rather than failing
// the load. Statements() yields statements in declaration order, which is
// the order chunk indices are assigned in.
//
// The builders in this package turn a statement into the text that is
// embedded and the content that is displayed:
//
//	text := corpus.DomainTagged(stmt)           // "[DOMAIN: Ethics] ..."
//	content := corpus.RichDisplay(stmt, text)   // formatted when Details is set
package corpus
