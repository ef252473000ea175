// Package pages reads the YAML page definitions that list the rows of each
// browse page.
package pages

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/treefix50/primeshelf/internal/shelf"
)

// Page is one browse page and its ordered rows.
type Page struct {
	ID    string                `yaml:"id"`
	Title string                `yaml:"title,omitempty"`
	Rows  []shelf.RowDescriptor `yaml:"rows"`
}

// Set is a validated collection of pages.
type Set struct {
	Pages []Page `yaml:"pages"`

	byID map[string]int
}

// Load reads and validates a pages file.
func Load(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pages: %w", err)
	}
	return Parse(data)
}

// Parse decodes a pages document.
func Parse(data []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := set.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pages: %w", err)
	}
	return &set, nil
}

// Validate checks ids and row types and builds the page index.
func (s *Set) Validate() error {
	if len(s.Pages) == 0 {
		return fmt.Errorf("no pages defined")
	}
	s.byID = make(map[string]int, len(s.Pages))
	for i, page := range s.Pages {
		if page.ID == "" {
			return fmt.Errorf("page %d: missing id", i)
		}
		if _, dup := s.byID[page.ID]; dup {
			return fmt.Errorf("duplicate page id '%s'", page.ID)
		}
		s.byID[page.ID] = i
		for j, row := range page.Rows {
			switch row.Type {
			case shelf.RowPlaylist:
				if row.ContentID == "" {
					return fmt.Errorf("page '%s' row %d: playlist row needs contentId", page.ID, j)
				}
			case shelf.RowContinueWatching, shelf.RowFavorites:
			default:
				return fmt.Errorf("page '%s' row %d: unknown row type '%s'", page.ID, j, row.Type)
			}
		}
	}
	return nil
}

// Rows returns a copy of the row descriptors of page id.
func (s *Set) Rows(id string) ([]shelf.RowDescriptor, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	rows := make([]shelf.RowDescriptor, len(s.Pages[i].Rows))
	copy(rows, s.Pages[i].Rows)
	return rows, true
}

// IDs lists page ids in file order.
func (s *Set) IDs() []string {
	ids := make([]string, 0, len(s.Pages))
	for _, page := range s.Pages {
		ids = append(ids, page.ID)
	}
	return ids
}
