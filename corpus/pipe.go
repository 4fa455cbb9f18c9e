package corpus

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// MinStatementLength is the shortest statement text the line parser accepts.
const MinStatementLength = 10

var utf8BOM = []byte("\xef\xbb\xbf")

// ParseLines reads pipe-delimited "thinker | statement | topic" lines.
// An empty thinker column falls back to defaultAuthor. Lines with fewer
// than two columns or a statement shorter than MinStatementLength are
// rejected.
func ParseLines(r io.Reader, defaultAuthor string, registry *AuthorRegistry) (*Corpus, error) {
	if registry == nil {
		registry = DefaultRegistry()
	}

	c := &Corpus{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if lineNo == 1 {
			line = bytes.TrimPrefix(line, utf8BOM)
		}
		text := strings.TrimSpace(strings.TrimSuffix(string(line), "\r"))
		if text == "" {
			continue
		}

		location := fmt.Sprintf("line %d", lineNo)
		parts := strings.Split(text, "|")
		if len(parts) < 2 {
			c.reject(location, "expected at least 2 columns, got %d", len(parts))
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		thinker := parts[0]
		if thinker == "" {
			thinker = defaultAuthor
		}
		if thinker == "" {
			c.reject(location, "no thinker and no default author")
			continue
		}

		statement := parts[1]
		if len([]rune(statement)) < MinStatementLength {
			c.reject(location, "statement shorter than %d characters", MinStatementLength)
			continue
		}

		topic := ""
		if len(parts) > 2 {
			topic = parts[2]
		}

		c.appendStatement(registry.Resolve(thinker), topic, statement)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return c, nil
}
