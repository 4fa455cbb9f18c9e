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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidStatement indicates a PositionStatement failed validation.
	ErrInvalidStatement = errors.New("invalid position statement")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyContent indicates the text or content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrEmptyAuthor indicates the Author field is empty.
	ErrEmptyAuthor = errors.New("author cannot be empty")

	// ErrEmptyFigure indicates no figure id could be determined.
	ErrEmptyFigure = errors.New("figure id cannot be empty")

	// ErrEmptyEmbedding indicates a chunk has no embedding vector.
	ErrEmptyEmbedding = errors.New("embedding cannot be empty")

	// ErrNegativeIndex indicates a chunk index below zero.
	ErrNegativeIndex = errors.New("chunk index cannot be negative")

	// ErrInvalidKeyCharacter indicates a NUL byte in a scope field.
	ErrInvalidKeyCharacter = errors.New("scope fields cannot contain NUL")
)
