package corpus

import (
	"fmt"
	"iter"

	"github.com/poiesic/doxa/core"
)

// Corpus is an ordered collection of sections.
type Corpus struct {
	Sections []Section   `yaml:"sections" json:"sections"`
	Rejected []Rejection `yaml:"-" json:"-"`
}

// Section groups the topics of one author.
type Section struct {
	Author     string  `yaml:"author" json:"author"`
	FigureID   string  `yaml:"figure_id,omitempty" json:"figure_id,omitempty"`
	SourceWork string  `yaml:"source_work,omitempty" json:"source_work,omitempty"`
	Topics     []Topic `yaml:"topics" json:"topics"`
}

// Topic holds bare statements and structured positions under one domain.
type Topic struct {
	Name       string     `yaml:"name" json:"name"`
	SourceWork string     `yaml:"source_work,omitempty" json:"source_work,omitempty"`
	Statements []string   `yaml:"statements,omitempty" json:"statements,omitempty"`
	Positions  []Position `yaml:"positions,omitempty" json:"positions,omitempty"`
}

// Rejection records an input entry that was left out of the corpus.
type Rejection struct {
	Location string
	Reason   string
}

func (r Rejection) String() string {
	return r.Location + ": " + r.Reason
}

// Statements yields every statement in declaration order.
// Within a topic, bare statements come before structured positions.
func (c *Corpus) Statements() iter.Seq[core.PositionStatement] {
	return func(yield func(core.PositionStatement) bool) {
		for _, section := range c.Sections {
			for _, topic := range section.Topics {
				sourceWork := topic.SourceWork
				if sourceWork == "" {
					sourceWork = section.SourceWork
				}

				for _, text := range topic.Statements {
					stmt := core.PositionStatement{
						Text:       text,
						Topic:      topic.Name,
						SourceWork: sourceWork,
						Author:     section.Author,
						FigureID:   section.FigureID,
					}
					if !yield(stmt) {
						return
					}
				}

				for i := range topic.Positions {
					stmt := topic.Positions[i].ToStatement(section.Author, section.FigureID, topic.Name)
					if stmt.SourceWork == "" {
						stmt.SourceWork = sourceWork
					}
					if !yield(stmt) {
						return
					}
				}
			}
		}
	}
}

// Len returns the number of statements.
func (c *Corpus) Len() int {
	n := 0
	for _, section := range c.Sections {
		for _, topic := range section.Topics {
			n += len(topic.Statements) + len(topic.Positions)
		}
	}
	return n
}

// Validate checks every statement and reports the first invalid one
// with its position in the corpus.
func (c *Corpus) Validate() error {
	i := 0
	for stmt := range c.Statements() {
		if err := core.ValidateStatement(&stmt); err != nil {
			return fmt.Errorf("statement %d (%s / %s): %w", i, stmt.Author, stmt.Topic, err)
		}
		i++
	}
	return nil
}

// Merge appends the sections and rejections of other.
func (c *Corpus) Merge(other *Corpus) {
	c.Sections = append(c.Sections, other.Sections...)
	c.Rejected = append(c.Rejected, other.Rejected...)
}

// appendStatement adds text under author and topic, starting a new section
// or topic whenever either changes so declaration order is kept.
func (c *Corpus) appendStatement(author Author, topic, text string) {
	topics := c.lastTopics(author)
	if n := len(*topics); n == 0 || (*topics)[n-1].Name != topic || len((*topics)[n-1].Positions) > 0 {
		*topics = append(*topics, Topic{Name: topic})
	}
	t := &(*topics)[len(*topics)-1]
	t.Statements = append(t.Statements, text)
}

// appendPosition adds a structured position, grouping consecutive
// positions of the same domain into one topic.
func (c *Corpus) appendPosition(author Author, p Position) {
	topics := c.lastTopics(author)
	if n := len(*topics); n == 0 || (*topics)[n-1].Name != p.Domain {
		*topics = append(*topics, Topic{Name: p.Domain})
	}
	t := &(*topics)[len(*topics)-1]
	t.Positions = append(t.Positions, p)
}

func (c *Corpus) lastTopics(author Author) *[]Topic {
	n := len(c.Sections)
	if n == 0 || c.Sections[n-1].Author != author.Name || c.Sections[n-1].FigureID != author.FigureID {
		c.Sections = append(c.Sections, Section{Author: author.Name, FigureID: author.FigureID})
		n++
	}
	return &c.Sections[n-1].Topics
}

func (c *Corpus) reject(location, format string, args ...any) {
	c.Rejected = append(c.Rejected, Rejection{Location: location, Reason: fmt.Sprintf(format, args...)})
}
