package corpus

import (
	"testing"

	"github.com/poiesic/doxa/core"
	"github.com/stretchr/testify/assert"
)

func TestDomainTagged(t *testing.T) {
	stmt := &core.PositionStatement{Text: " Labour creates value. ", Topic: "Economics"}
	assert.Equal(t, "[DOMAIN: Economics] Labour creates value.", DomainTagged(stmt))

	stmt.Topic = ""
	assert.Equal(t, "Labour creates value.", DomainTagged(stmt))
	assert.Equal(t, "Labour creates value.", PlainText(stmt))
}

func TestSameAsEmbedding(t *testing.T) {
	stmt := &core.PositionStatement{Text: "x"}
	assert.Equal(t, "[DOMAIN: y] x", SameAsEmbedding(stmt, "[DOMAIN: y] x"))
}

func TestRichDisplay(t *testing.T) {
	stmt := &core.PositionStatement{
		Text:  "Concepts are not composed of features.",
		Topic: "Mind",
		Details: &core.PositionDetails{
			Title:         "Conceptual Atomism",
			Thesis:        "Concepts are not composed of features.",
			Justification: "Decomposition is regressive.",
			KeyArguments:  []string{"Features presuppose concepts", "Prototypes are epistemic"},
			Consistency:   "Fits with semantic externalism.",
			Significance:  "Foundational",
			Sources:       []string{"Conceptual Atomism, ch. 1", "Essays, 3"},
		},
	}

	want := "Conceptual Atomism\n\n" +
		"Thesis: Concepts are not composed of features.\n\n" +
		"Justification: Decomposition is regressive.\n\n" +
		"Key Arguments:\n- Features presuppose concepts\n- Prototypes are epistemic\n\n" +
		"Consistency: Fits with semantic externalism.\n\n" +
		"Significance: Foundational\n\n" +
		"Sources: Conceptual Atomism, ch. 1, Essays, 3"
	assert.Equal(t, want, RichDisplay(stmt, "ignored"))
}

func TestRichDisplay_StatementAndFallback(t *testing.T) {
	stmt := &core.PositionStatement{
		Text:    "Meaning is not use.",
		Details: &core.PositionDetails{Title: "Against Use Theories", Statement: "Meaning is not use."},
	}
	assert.Equal(t, "Against Use Theories\n\nStatement: Meaning is not use.", RichDisplay(stmt, "x"))

	plain := &core.PositionStatement{Text: "Bare."}
	assert.Equal(t, "[DOMAIN: t] Bare.", RichDisplay(plain, "[DOMAIN: t] Bare."))
}

func TestBuilderByName(t *testing.T) {
	b, ok := EmbeddingTextBuilderByName("plain")
	assert.True(t, ok)
	assert.Equal(t, "x", b(&core.PositionStatement{Text: "x", Topic: "t"}))

	_, ok = EmbeddingTextBuilderByName("fancy")
	assert.False(t, ok)

	d, ok := DisplayContentBuilderByName("rich")
	assert.True(t, ok)
	assert.Equal(t, "e", d(&core.PositionStatement{Text: "x"}, "e"))

	_, ok = DisplayContentBuilderByName("other")
	assert.False(t, ok)
}
