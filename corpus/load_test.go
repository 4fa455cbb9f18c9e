package corpus

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sectionYAML = `sections:
  - author: marx
    source_work: Capital
    topics:
      - name: Value
        statements:
          - Labour is the source of value.
          - Value is socially necessary labour time.
  - author: Gustave Le Bon
    topics:
      - name: Crowds
        positions:
          - position_id: LB-1
            title: The Crowd Mind
            thesis: Crowds think in images.
            source: The Crowd
          - title: Missing id
            thesis: Rejected.
`

func TestLoadYAML(t *testing.T) {
	c, err := LoadYAML(strings.NewReader(sectionYAML), nil)
	require.NoError(t, err)

	require.Len(t, c.Sections, 2)
	assert.Equal(t, "Karl Marx", c.Sections[0].Author)
	assert.Equal(t, "marx", c.Sections[0].FigureID)
	assert.Equal(t, "lebon", c.Sections[1].FigureID)

	stmts := slices.Collect(c.Statements())
	require.Len(t, stmts, 3)
	assert.Equal(t, "Capital", stmts[0].SourceWork)
	assert.Equal(t, "Crowds think in images.", stmts[2].Text)
	assert.Equal(t, "The Crowd", stmts[2].SourceWork)
	assert.Equal(t, "Crowds", stmts[2].Topic)

	require.Len(t, c.Rejected, 1)
	assert.Equal(t, "sections[1].topics[0].positions[1]", c.Rejected[0].Location)
}

func TestLoadYAML_Errors(t *testing.T) {
	_, err := LoadYAML(strings.NewReader("sections: [\n"), nil)
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = LoadYAML(strings.NewReader("chapters: []\n"), nil)
	assert.ErrorIs(t, err, ErrMalformedInput)

	c, err := LoadYAML(strings.NewReader(""), nil)
	require.NoError(t, err)
	assert.Zero(t, c.Len())
}

func TestLoadFile_Dispatch(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "von-mises")
	require.NoError(t, os.MkdirAll(dir, 0755))

	yamlPath := filepath.Join(dir, "sections.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(sectionYAML), 0644))

	jsonPath := filepath.Join(dir, "positions.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(positionDB), 0644))

	txtPath := filepath.Join(dir, "positions.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte(" | Economic calculation needs prices. | Economics\n"), 0644))

	c, err := LoadFile(txtPath)
	require.NoError(t, err)
	stmts := slices.Collect(c.Statements())
	require.Len(t, stmts, 1)
	assert.Equal(t, "Ludwig von Mises", stmts[0].Author)
	assert.Equal(t, "mises", stmts[0].FigureID)

	c, err = LoadFile(jsonPath, WithAuthor("kuczynski"))
	require.NoError(t, err)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "kuczynski", c.Sections[0].FigureID)
	require.NotEmpty(t, c.Rejected)
	assert.True(t, strings.HasPrefix(c.Rejected[0].Location, jsonPath+": "))

	merged, err := LoadFiles([]string{yamlPath, jsonPath, txtPath}, WithAuthor("kuczynski"))
	require.NoError(t, err)
	assert.Equal(t, 6, merged.Len())
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	csvPath := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("a,b"), 0644))
	_, err = LoadFile(csvPath)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}
