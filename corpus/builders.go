package corpus

import (
	"strings"

	"github.com/poiesic/doxa/core"
)

// EmbeddingTextBuilder composes the text sent to the embedding service.
// One builder must be used for a whole corpus.
type EmbeddingTextBuilder func(stmt *core.PositionStatement) string

// DisplayContentBuilder composes the stored content from the statement and
// its embedding text.
type DisplayContentBuilder func(stmt *core.PositionStatement, embeddingText string) string

// DomainTagged prefixes the statement with its topic: "[DOMAIN: <topic>] <text>".
// Statements without a topic are embedded as-is.
func DomainTagged(stmt *core.PositionStatement) string {
	text := strings.TrimSpace(stmt.Text)
	topic := strings.TrimSpace(stmt.Topic)
	if topic == "" {
		return text
	}
	return "[DOMAIN: " + topic + "] " + text
}

// PlainText embeds the statement text alone.
func PlainText(stmt *core.PositionStatement) string {
	return strings.TrimSpace(stmt.Text)
}

// SameAsEmbedding stores exactly what was embedded.
func SameAsEmbedding(_ *core.PositionStatement, embeddingText string) string {
	return embeddingText
}

// RichDisplay formats structured positions as a titled block with thesis,
// justification, argument list, consistency, significance and sources.
// Statements without details fall back to the embedding text.
func RichDisplay(stmt *core.PositionStatement, embeddingText string) string {
	d := stmt.Details
	if d == nil {
		return embeddingText
	}

	title := d.Title
	if title == "" {
		title = stmt.Paper()
	}

	blocks := []string{title}
	switch {
	case d.Thesis != "":
		blocks = append(blocks, "Thesis: "+d.Thesis)
	case d.Statement != "":
		blocks = append(blocks, "Statement: "+d.Statement)
	case stmt.Text != title:
		blocks = append(blocks, "Position: "+stmt.Text)
	}
	if d.Justification != "" {
		blocks = append(blocks, "Justification: "+d.Justification)
	}
	if len(d.KeyArguments) > 0 {
		var b strings.Builder
		b.WriteString("Key Arguments:")
		for _, arg := range d.KeyArguments {
			b.WriteString("\n- ")
			b.WriteString(arg)
		}
		blocks = append(blocks, b.String())
	}
	if d.Consistency != "" {
		blocks = append(blocks, "Consistency: "+d.Consistency)
	}
	if d.Significance != "" {
		blocks = append(blocks, "Significance: "+d.Significance)
	}
	if len(d.Sources) > 0 {
		blocks = append(blocks, "Sources: "+strings.Join(d.Sources, ", "))
	}

	return strings.TrimSpace(strings.Join(blocks, "\n\n"))
}

// EmbeddingTextBuilderByName maps a configuration value to a builder.
func EmbeddingTextBuilderByName(name string) (EmbeddingTextBuilder, bool) {
	switch strings.ToLower(name) {
	case "", "domain", "domain-tagged":
		return DomainTagged, true
	case "plain", "plain-text":
		return PlainText, true
	default:
		return nil, false
	}
}

// DisplayContentBuilderByName maps a configuration value to a builder.
func DisplayContentBuilderByName(name string) (DisplayContentBuilder, bool) {
	switch strings.ToLower(name) {
	case "", "same", "same-as-embedding":
		return SameAsEmbedding, true
	case "rich":
		return RichDisplay, true
	default:
		return nil, false
	}
}
