package badger

import (
	"bytes"

	"github.com/poiesic/doxa/core"
	"github.com/poiesic/doxa/storage"
)

// Key prefixes for different data types
const (
	chunkRecordPrefix   = "chunk:"  // chunk:<figure>\x00<paper>\x00<index>
	chunkFigurePrefix   = "chkfig:" // chkfig:<figure>\x00<index><paper>
	chunkIdentityPrefix = "chkid:"  // chkid:<figure>\x00<content hash>
	embeddingPrefix     = "embvec:" // embvec:<cache key>
)

const sep = 0x00

// makeChunkKey generates the primary key of a chunk.
// Indices are BigEndian so lexicographic order matches numeric order.
func makeChunkKey(figureID, paperTitle string, index int) []byte {
	buf := makeChunkPaperPrefix(figureID, paperTitle)
	return append(buf, storage.MarshalIndex(index)...)
}

// makeChunkPaperPrefix covers every chunk of one paper.
func makeChunkPaperPrefix(figureID, paperTitle string) []byte {
	buf := makeChunkFigurePrefix(figureID)
	buf = append(buf, paperTitle...)
	return append(buf, sep)
}

// makeChunkFigurePrefix covers every chunk of one figure.
func makeChunkFigurePrefix(figureID string) []byte {
	buf := make([]byte, 0, len(chunkRecordPrefix)+len(figureID)+1)
	buf = append(buf, chunkRecordPrefix...)
	buf = append(buf, figureID...)
	return append(buf, sep)
}

// makeFigureIndexKey generates the figure-wide index entry of a chunk.
// Format: prefix:figure\x00index paper
func makeFigureIndexKey(figureID, paperTitle string, index int) []byte {
	buf := makeFigureIndexPrefix(figureID)
	buf = append(buf, storage.MarshalIndex(index)...)
	return append(buf, paperTitle...)
}

// makeFigureIndexPrefix covers the figure-wide index entries of one figure.
func makeFigureIndexPrefix(figureID string) []byte {
	buf := make([]byte, 0, len(chunkFigurePrefix)+len(figureID)+1)
	buf = append(buf, chunkFigurePrefix...)
	buf = append(buf, figureID...)
	return append(buf, sep)
}

// makeIdentityKey generates the identity entry used for duplicate detection.
func makeIdentityKey(figureID, contentHash string) []byte {
	buf := make([]byte, 0, len(chunkIdentityPrefix)+len(figureID)+1+len(contentHash))
	buf = append(buf, chunkIdentityPrefix...)
	buf = append(buf, figureID...)
	buf = append(buf, sep)
	return append(buf, contentHash...)
}

// makeEmbeddingKey generates the embedding cache key.
func makeEmbeddingKey(cacheKey []byte) []byte {
	buf := make([]byte, 0, len(embeddingPrefix)+len(cacheKey))
	buf = append(buf, embeddingPrefix...)
	return append(buf, cacheKey...)
}

// parseChunkKey splits a primary chunk key into its scope and index.
func parseChunkKey(key []byte) (core.Scope, int, error) {
	rest, ok := bytes.CutPrefix(key, []byte(chunkRecordPrefix))
	if !ok || len(rest) < 8 {
		return core.Scope{}, 0, storage.ErrTruncatedData
	}

	body, indexBytes := rest[:len(rest)-8], rest[len(rest)-8:]
	figure, paper, ok := bytes.Cut(body, []byte{sep})
	if !ok || len(paper) == 0 || paper[len(paper)-1] != sep {
		return core.Scope{}, 0, storage.ErrTruncatedData
	}

	index, err := storage.UnmarshalIndex(indexBytes)
	if err != nil {
		return core.Scope{}, 0, err
	}
	return core.Scope{FigureID: string(figure), PaperTitle: string(paper[:len(paper)-1])}, index, nil
}
