package core

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier for a position statement.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Hex renders the ID as 16 lowercase hex characters.
func (id ID) Hex() string {
	return fmt.Sprintf("%016x", uint64(id))
}

// identitySeparator joins identity fields; it cannot appear in curated text.
const identitySeparator = "\x1f"

// PositionStatement is one curated claim attributed to a thinker.
// Statements are immutable input; the pipeline reads each one once per run.
type PositionStatement struct {
	Text       string
	Topic      string
	SourceWork string
	Author     string

	FigureID   string           // Defaults to a slug of Author
	PaperTitle string           // Defaults to SourceWork, then "<Author> on <Topic>"
	Details    *PositionDetails // Optional structured metadata
}

// Figure returns the figure id, deriving it from the author when unset.
func (s *PositionStatement) Figure() string {
	if s.FigureID != "" {
		return s.FigureID
	}
	return FigureIDFromAuthor(s.Author)
}

// Paper returns the paper title the statement is filed under.
func (s *PositionStatement) Paper() string {
	switch {
	case s.PaperTitle != "":
		return s.PaperTitle
	case s.SourceWork != "":
		return s.SourceWork
	case s.Topic != "":
		return s.Author + " on " + s.Topic
	default:
		return s.Author
	}
}

// Identity returns the statement's content identity within its figure.
// Two statements with the same identity are the same stored chunk.
func (s *PositionStatement) Identity() ID {
	return IDFromContent(strings.Join([]string{s.Figure(), s.Paper(), s.Topic, s.Text}, identitySeparator))
}

// Prefix returns the first n runes of the statement text for log lines.
func (s *PositionStatement) Prefix(n int) string {
	runes := []rune(s.Text)
	if len(runes) <= n {
		return s.Text
	}
	return string(runes[:n]) + "..."
}

// PositionDetails is structured metadata supplied by position databases.
type PositionDetails struct {
	PositionID       string
	Title            string
	Thesis           string
	Statement        string // Used when there is no thesis
	Justification    string
	KeyArguments     []string
	Consistency      string
	Significance     string
	Sources          []string
	Challenges       []string
	Supports         []string
	RelatedPositions []string
}

// Engagements records how a position relates to others.
// Stored alongside the chunk as JSON.
type Engagements struct {
	Challenges       []string `json:"challenges"`
	Supports         []string `json:"supports"`
	Consistency      string   `json:"consistency,omitempty"`
	RelatedPositions []string `json:"related_positions"`
}

// IsZero reports whether no engagement data is present.
func (e *Engagements) IsZero() bool {
	return e == nil || (len(e.Challenges) == 0 && len(e.Supports) == 0 &&
		e.Consistency == "" && len(e.RelatedPositions) == 0)
}

// Chunk is one persisted, embedded position statement.
type Chunk struct {
	Author       string       `json:"author"`
	FigureID     string       `json:"figure_id"`
	PaperTitle   string       `json:"paper_title"`
	Content      string       `json:"content"`
	Embedding    []float32    `json:"embedding"`
	ChunkIndex   int          `json:"chunk_index"`
	Domain       string       `json:"domain,omitempty"`
	SourceWork   string       `json:"source_work,omitempty"`
	Significance string       `json:"significance,omitempty"`
	PositionID   string       `json:"position_id,omitempty"`
	Engagements  *Engagements `json:"philosophical_engagements,omitempty"`
	ContentHash  string       `json:"content_hash"`
	CreatedAt    time.Time    `json:"created_at"`
}

// Scope is the key under which chunk indices are allocated.
// An empty PaperTitle scopes indices to the whole figure.
type Scope struct {
	FigureID   string
	PaperTitle string
}

// String renders the scope for logs.
func (s Scope) String() string {
	if s.PaperTitle == "" {
		return s.FigureID
	}
	return s.FigureID + "/" + s.PaperTitle
}

// FigureIDFromAuthor derives a lowercase slug from an author name.
// "J.-M. Kuczynski" becomes "j-m-kuczynski".
func FigureIDFromAuthor(author string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(author)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
