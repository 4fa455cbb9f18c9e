package corpus

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrMalformedInput is returned when a corpus file cannot be decoded at all.
	ErrMalformedInput = errors.New("malformed corpus input")

	// ErrUnsupportedFormat is returned for file extensions no loader handles.
	ErrUnsupportedFormat = errors.New("unsupported corpus format")
)

type loadOptions struct {
	author   string
	registry *AuthorRegistry
	logger   *slog.Logger
}

// LoadOption configures LoadFile and LoadFiles.
type LoadOption func(*loadOptions)

// WithAuthor attributes JSON databases and unlabeled lines to author.
// Without it the name of the file's parent directory is used.
func WithAuthor(author string) LoadOption {
	return func(o *loadOptions) {
		o.author = author
	}
}

// WithRegistry sets the registry used to resolve author names.
func WithRegistry(registry *AuthorRegistry) LoadOption {
	return func(o *loadOptions) {
		o.registry = registry
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoadOption {
	return func(o *loadOptions) {
		o.logger = logger
	}
}

// LoadYAML reads a YAML section file. Section authors are resolved through
// registry when no figure id is given.
func LoadYAML(r io.Reader, registry *AuthorRegistry) (*Corpus, error) {
	if registry == nil {
		registry = DefaultRegistry()
	}

	var c Corpus
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		if errors.Is(err, io.EOF) {
			return &c, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}

	for i := range c.Sections {
		section := &c.Sections[i]
		if section.FigureID == "" {
			author := registry.Resolve(section.Author)
			section.Author, section.FigureID = author.Name, author.FigureID
		}

		for j := range section.Topics {
			topic := &section.Topics[j]
			kept := topic.Positions[:0]
			for k := range topic.Positions {
				if err := topic.Positions[k].Check(); err != nil {
					c.reject(fmt.Sprintf("sections[%d].topics[%d].positions[%d]", i, j, k), "%v", err)
					continue
				}
				kept = append(kept, topic.Positions[k])
			}
			topic.Positions = kept
		}
	}
	return &c, nil
}

// LoadFile reads one corpus file, choosing the loader by extension:
// .yaml and .yml for section files, .json for position databases and
// .txt for pipe-delimited lines.
func LoadFile(path string, opts ...LoadOption) (*Corpus, error) {
	o := &loadOptions{
		registry: DefaultRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	logger := o.logger.With("component", "corpus")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	author := o.author
	if author == "" {
		author = filepath.Base(filepath.Dir(path))
	}

	var c *Corpus
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		c, err = LoadYAML(bytes.NewReader(data), o.registry)
	case ".json":
		var meta DatabaseMetadata
		c, meta, err = LoadPositionDatabase(bytes.NewReader(data), o.registry.Resolve(author))
		if err == nil && meta.Version != "" {
			logger.Info("loaded position database", "file", path, "version", meta.Version, "declared", meta.TotalPositions)
		}
	case ".txt":
		c, err = ParseLines(bytes.NewReader(data), author, o.registry)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	for i := range c.Rejected {
		c.Rejected[i].Location = path + ": " + c.Rejected[i].Location
	}
	logger.Debug("loaded corpus file", "file", path, "statements", c.Len(), "rejected", len(c.Rejected))
	return c, nil
}

// LoadFiles loads and merges several corpus files in order.
func LoadFiles(paths []string, opts ...LoadOption) (*Corpus, error) {
	merged := &Corpus{}
	for _, path := range paths {
		c, err := LoadFile(path, opts...)
		if err != nil {
			return nil, err
		}
		merged.Merge(c)
	}
	return merged, nil
}
