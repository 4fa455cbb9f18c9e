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

import (
	"fmt"
	"strings"
)

// ValidateStatement validates a PositionStatement according to domain rules.
//
// Validation rules:
//   - Text must not be blank
//   - Author must not be blank
//   - A figure id must be derivable
//   - Figure id and paper title must not contain NUL
//
// NOT validated:
//   - Topic (may be empty, the tag is then omitted)
//   - Details (optional)
func ValidateStatement(stmt *PositionStatement) error {
	if stmt == nil {
		return fmt.Errorf("%w: statement is nil", ErrInvalidStatement)
	}

	if strings.TrimSpace(stmt.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidStatement, ErrEmptyContent)
	}

	if strings.TrimSpace(stmt.Author) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidStatement, ErrEmptyAuthor)
	}

	if err := ValidateScope(Scope{FigureID: stmt.Figure(), PaperTitle: stmt.Paper()}); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidStatement, err)
	}

	return nil
}

// ValidateChunk validates a Chunk before it is written.
//
// Validation rules:
//   - Content must not be empty
//   - Embedding must not be empty
//   - ChunkIndex must not be negative
//   - Scope fields must be valid
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}

	if len(chunk.Embedding) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyEmbedding)
	}

	if chunk.ChunkIndex < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeIndex)
	}

	if err := ValidateScope(Scope{FigureID: chunk.FigureID, PaperTitle: chunk.PaperTitle}); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, err)
	}

	return nil
}

// ValidateScope checks that a scope can be used as a storage key.
func ValidateScope(scope Scope) error {
	if scope.FigureID == "" {
		return ErrEmptyFigure
	}
	if strings.ContainsRune(scope.FigureID, 0) || strings.ContainsRune(scope.PaperTitle, 0) {
		return ErrInvalidKeyCharacter
	}
	return nil
}
