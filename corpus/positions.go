package corpus

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/poiesic/doxa/core"
	"gopkg.in/yaml.v3"
)

// Position is one entry of a structured position database.
type Position struct {
	PositionID              string   `yaml:"position_id" json:"position_id"`
	Title                   string   `yaml:"title,omitempty" json:"title,omitempty"`
	Domain                  string   `yaml:"domain,omitempty" json:"domain,omitempty"`
	Thesis                  string   `yaml:"thesis,omitempty" json:"thesis,omitempty"`
	Statement               string   `yaml:"statement,omitempty" json:"statement,omitempty"`
	Position                string   `yaml:"position,omitempty" json:"position,omitempty"`
	Justification           string   `yaml:"justification,omitempty" json:"justification,omitempty"`
	KeyArguments            []string `yaml:"key_arguments,omitempty" json:"key_arguments,omitempty"`
	Consistency             string   `yaml:"consistency,omitempty" json:"consistency,omitempty"`
	Significance            string   `yaml:"significance,omitempty" json:"significance,omitempty"`
	TheoreticalSignificance string   `yaml:"theoretical_significance,omitempty" json:"theoretical_significance,omitempty"`
	Source                  Sources  `yaml:"source,omitempty" json:"source,omitempty"`
	SourceWork              string   `yaml:"source_work,omitempty" json:"source_work,omitempty"`
	Chapter                 string   `yaml:"chapter,omitempty" json:"chapter,omitempty"`
	Challenges              []string `yaml:"challenges,omitempty" json:"challenges,omitempty"`
	Supports                []string `yaml:"supports,omitempty" json:"supports,omitempty"`
	RelatedPositions        []string `yaml:"related_positions,omitempty" json:"related_positions,omitempty"`
}

// Sources accepts either a single string or a list of strings.
type Sources []string

func (s *Sources) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = nonEmpty(one)
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

func (s *Sources) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var one string
		if err := value.Decode(&one); err != nil {
			return err
		}
		*s = nonEmpty(one)
		return nil
	}
	var many []string
	if err := value.Decode(&many); err != nil {
		return err
	}
	*s = many
	return nil
}

func nonEmpty(s string) Sources {
	if s == "" {
		return nil
	}
	return Sources{s}
}

// DisplayTitle returns the position's title, falling back to its
// position text and then its id.
func (p *Position) DisplayTitle() string {
	switch {
	case p.Title != "":
		return p.Title
	case p.Position != "":
		return p.Position
	default:
		return "Position " + p.PositionID
	}
}

// Text returns the claim itself.
func (p *Position) Text() string {
	switch {
	case p.Thesis != "":
		return p.Thesis
	case p.Statement != "":
		return p.Statement
	case p.Position != "":
		return p.Position
	default:
		return p.Title
	}
}

// AllSources returns the cited sources, falling back to source_work and chapter.
func (p *Position) AllSources() []string {
	switch {
	case len(p.Source) > 0:
		return p.Source
	case p.SourceWork != "":
		return []string{p.SourceWork}
	case p.Chapter != "":
		return []string{p.Chapter}
	default:
		return nil
	}
}

// Check reports why a position cannot be ingested, or nil.
func (p *Position) Check() error {
	if strings.TrimSpace(p.PositionID) == "" {
		return errors.New("missing position_id")
	}
	if strings.TrimSpace(p.Text()) == "" {
		return fmt.Errorf("position %s has no title, thesis, statement or position text", p.PositionID)
	}
	return nil
}

// ToStatement converts the position into a statement filed under its own title.
func (p *Position) ToStatement(author, figureID, topic string) core.PositionStatement {
	sources := p.AllSources()
	significance := p.Significance
	if significance == "" {
		significance = p.TheoreticalSignificance
	}

	stmt := core.PositionStatement{
		Text:       p.Text(),
		Topic:      topic,
		Author:     author,
		FigureID:   figureID,
		PaperTitle: p.DisplayTitle(),
		Details: &core.PositionDetails{
			PositionID:       p.PositionID,
			Title:            p.DisplayTitle(),
			Thesis:           p.Thesis,
			Statement:        p.Statement,
			Justification:    p.Justification,
			KeyArguments:     p.KeyArguments,
			Consistency:      p.Consistency,
			Significance:     significance,
			Sources:          sources,
			Challenges:       p.Challenges,
			Supports:         p.Supports,
			RelatedPositions: p.RelatedPositions,
		},
	}
	if len(sources) > 0 {
		stmt.SourceWork = sources[0]
	}
	if stmt.Topic == "" {
		stmt.Topic = p.Domain
	}
	return stmt
}

// DatabaseMetadata describes a position database file.
type DatabaseMetadata struct {
	Version        string `json:"version"`
	TotalPositions int    `json:"total_positions"`
	TotalWorks     int    `json:"total_works"`
	Description    string `json:"description"`
}

type positionDatabase struct {
	Metadata  DatabaseMetadata  `json:"database_metadata"`
	Positions []json.RawMessage `json:"positions"`
}

// LoadPositionDatabase reads a JSON position database attributed to author.
// Positions that fail to decode or lack usable text are rejected, not fatal.
func LoadPositionDatabase(r io.Reader, author Author) (*Corpus, DatabaseMetadata, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, DatabaseMetadata{}, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var db positionDatabase
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, DatabaseMetadata{}, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}

	c := &Corpus{}
	for i, raw := range db.Positions {
		location := fmt.Sprintf("positions[%d]", i)

		var p Position
		if err := json.Unmarshal(raw, &p); err != nil {
			c.reject(location, "decode: %v", err)
			continue
		}
		if err := p.Check(); err != nil {
			c.reject(location, "%v", err)
			continue
		}
		c.appendPosition(author, p)
	}
	return c, db.Metadata, nil
}
