// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package corpus

import (
	"strings"

	"github.com/poiesic/doxa/core"
)

// Author is a canonical author name with its figure id.
type Author struct {
	Name     string
	FigureID string
}

// AuthorRegistry resolves folder names and spellings to canonical authors.
type AuthorRegistry struct {
	byKey  map[string]Author
	byName map[string]Author
}

// NewAuthorRegistry creates an empty registry.
func NewAuthorRegistry() *AuthorRegistry {
	return &AuthorRegistry{
		byKey:  make(map[string]Author),
		byName: make(map[string]Author),
	}
}

// Register adds author under key. Keys and names match case-insensitively.
func (r *AuthorRegistry) Register(key string, author Author) {
	r.byKey[normalizeKey(key)] = author
	r.byName[strings.ToLower(author.Name)] = author
}

// Lookup finds an author by registry key or canonical name.
func (r *AuthorRegistry) Lookup(s string) (Author, bool) {
	if a, ok := r.byKey[normalizeKey(s)]; ok {
		return a, true
	}
	a, ok := r.byName[strings.ToLower(strings.TrimSpace(s))]
	return a, ok
}

// Resolve returns the registered author for s, or an author named s with
// a figure id derived from the name.
func (r *AuthorRegistry) Resolve(s string) Author {
	if a, ok := r.Lookup(s); ok {
		return a
	}
	name := strings.TrimSpace(s)
	return Author{Name: name, FigureID: core.FigureIDFromAuthor(name)}
}

// Len returns the number of registered keys.
func (r *AuthorRegistry) Len() int {
	return len(r.byKey)
}

func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(key)), "_", "-")
}

// DefaultRegistry returns the registry of known corpus authors.
func DefaultRegistry() *AuthorRegistry {
	r := NewAuthorRegistry()
	for _, e := range knownAuthors {
		r.Register(e.key, Author{Name: e.name, FigureID: e.figureID})
	}
	return r
}

var knownAuthors = []struct {
	key, name, figureID string
}{
	{"kuczynski", "J.-M. Kuczynski", "kuczynski"},
	{"freud", "Sigmund Freud", "freud"},
	{"nietzsche", "Friedrich Nietzsche", "nietzsche"},
	{"jung", "Carl Jung", "jung"},
	{"marx", "Karl Marx", "marx"},
	{"russell", "Bertrand Russell", "russell"},
	{"kant", "Immanuel Kant", "kant"},
	{"plato", "Plato", "plato"},
	{"aristotle", "Aristotle", "aristotle"},
	{"spinoza", "Baruch Spinoza", "spinoza"},
	{"leibniz", "Gottfried Wilhelm Leibniz", "leibniz"},
	{"hume", "David Hume", "hume"},
	{"locke", "John Locke", "locke"},
	{"berkeley", "George Berkeley", "berkeley"},
	{"descartes", "René Descartes", "descartes"},
	{"schopenhauer", "Arthur Schopenhauer", "schopenhauer"},
	{"bergson", "Henri Bergson", "bergson"},
	{"darwin", "Charles Darwin", "darwin"},
	{"newton", "Isaac Newton", "newton"},
	{"galileo", "Galileo Galilei", "galileo"},
	{"smith", "Adam Smith", "smith"},
	{"veblen", "Thorstein Veblen", "veblen"},
	{"keynes", "John Maynard Keynes", "keynes"},
	{"von-mises", "Ludwig von Mises", "mises"},
	{"aesop", "Aesop", "aesop"},
	{"poe", "Edgar Allan Poe", "poe"},
	{"james", "William James", "james"},
	{"james-allen", "James Allen", "james-allen"},
	{"adler", "Alfred Adler", "adler"},
	{"machiavelli", "Niccolò Machiavelli", "machiavelli"},
	{"rousseau", "Jean-Jacques Rousseau", "rousseau"},
	{"voltaire", "Voltaire", "voltaire"},
	{"tocqueville", "Alexis de Tocqueville", "tocqueville"},
	{"hegel", "G.W.F. Hegel", "hegel"},
	{"engels", "Friedrich Engels", "engels"},
	{"le-bon", "Gustave Le Bon", "lebon"},
	{"lebon", "Gustave Le Bon", "lebon"},
	{"jack-london", "Jack London", "london"},
	{"confucius", "Confucius", "confucius"},
	{"maimonides", "Moses Maimonides", "maimonides"},
	{"bierce", "Ambrose Bierce", "bierce"},
	{"poincare", "Henri Poincaré", "poincare"},
	{"reich", "Wilhelm Reich", "reich"},
	{"goldman", "Emma Goldman", "goldman"},
	{"gibbon", "Edward Gibbon", "gibbon"},
	{"swett", "Orison Swett Marden", "marden"},
	{"luther", "Martin Luther", "luther"},
}
