package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "The will to power is the fundamental drive behind all organic life and its valuations",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestID_Hex(t *testing.T) {
	if got := ID(255).Hex(); got != "00000000000000ff" {
		t.Errorf("Hex() = %q, want %q", got, "00000000000000ff")
	}
	if got := IDFromContent("x").Hex(); len(got) != 16 {
		t.Errorf("Hex() length = %d, want 16", len(got))
	}
}

func TestFigureIDFromAuthor(t *testing.T) {
	tests := []struct {
		author string
		want   string
	}{
		{"Karl Marx", "karl-marx"},
		{"J.-M. Kuczynski", "j-m-kuczynski"},
		{"  Plato ", "plato"},
		{"René Descartes", "rené-descartes"},
		{"G.W.F. Hegel", "g-w-f-hegel"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.author, func(t *testing.T) {
			if got := FigureIDFromAuthor(tt.author); got != tt.want {
				t.Errorf("FigureIDFromAuthor(%q) = %q, want %q", tt.author, got, tt.want)
			}
		})
	}
}

func TestPositionStatement_Paper(t *testing.T) {
	tests := []struct {
		name string
		stmt PositionStatement
		want string
	}{
		{
			name: "explicit paper title wins",
			stmt: PositionStatement{Author: "Karl Marx", Topic: "Labor", SourceWork: "Capital", PaperTitle: "Marx on Labor - Position 1"},
			want: "Marx on Labor - Position 1",
		},
		{
			name: "source work",
			stmt: PositionStatement{Author: "Karl Marx", Topic: "Labor", SourceWork: "Capital"},
			want: "Capital",
		},
		{
			name: "author on topic",
			stmt: PositionStatement{Author: "Karl Marx", Topic: "Labor"},
			want: "Karl Marx on Labor",
		},
		{
			name: "author only",
			stmt: PositionStatement{Author: "Karl Marx"},
			want: "Karl Marx",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.stmt.Paper(); got != tt.want {
				t.Errorf("Paper() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPositionStatement_Identity(t *testing.T) {
	a := PositionStatement{Author: "Karl Marx", Topic: "Labor", Text: "Labor is the source of value."}
	b := a
	if a.Identity() != b.Identity() {
		t.Errorf("identical statements produced different identities")
	}

	b.Topic = "Value"
	if a.Identity() == b.Identity() {
		t.Errorf("statements under different topics share an identity")
	}

	c := a
	c.FigureID = "marx"
	if a.Identity() == c.Identity() {
		t.Errorf("statements under different figures share an identity")
	}
}

func TestPositionStatement_Prefix(t *testing.T) {
	stmt := PositionStatement{Text: "Être et temps"}
	if got := stmt.Prefix(4); got != "Être..." {
		t.Errorf("Prefix(4) = %q", got)
	}
	if got := stmt.Prefix(100); got != "Être et temps" {
		t.Errorf("Prefix(100) = %q", got)
	}
}

func TestEngagements_IsZero(t *testing.T) {
	var nilEngagements *Engagements
	if !nilEngagements.IsZero() {
		t.Errorf("nil engagements should be zero")
	}
	if !(&Engagements{}).IsZero() {
		t.Errorf("empty engagements should be zero")
	}
	if (&Engagements{Supports: []string{"P-12"}}).IsZero() {
		t.Errorf("engagements with supports should not be zero")
	}
}
