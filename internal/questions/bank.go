package questions

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
)

//go:embed default_bank.json
var defaultBank []byte

type Category struct {
	ID        string
	Name      string
	Questions []Question
}

// Bank supplies question categories. Implementations may do I/O, so callers
// fetch categories before handing them to a room.
type Bank interface {
	Categories(ctx context.Context) ([]Category, error)
}

// Select draws up to n questions from the categories named in filter, in
// filter order and bank order within each category. An empty filter selects
// every category in bank order. Unknown category ids are ignored.
func Select(cats []Category, filter []string, n int) []Question {
	if n <= 0 {
		return nil
	}
	byID := make(map[string]Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}
	ordered := cats
	if len(filter) > 0 {
		ordered = make([]Category, 0, len(filter))
		seen := make(map[string]bool, len(filter))
		for _, id := range filter {
			c, ok := byID[id]
			if !ok || seen[id] {
				continue
			}
			seen[id] = true
			ordered = append(ordered, c)
		}
	}

	var out []Question
	for _, c := range ordered {
		for _, q := range c.Questions {
			if len(out) == n {
				return out
			}
			out = append(out, q)
		}
	}
	return out
}

type bankFile struct {
	Categories []struct {
		ID        string   `json:"id"`
		Name      string   `json:"name"`
		Questions []Record `json:"questions"`
	} `json:"categories"`
}

// StaticBank serves a fixed set of categories held in memory.
type StaticBank struct {
	cats []Category
}

func NewStaticBank(cats []Category) *StaticBank {
	return &StaticBank{cats: cats}
}

func (b *StaticBank) Categories(context.Context) ([]Category, error) {
	return b.cats, nil
}

// ParseBank reads a bank in the JSON file format.
func ParseBank(data []byte) (*StaticBank, error) {
	var f bankFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding question bank: %w", err)
	}
	seen := make(map[string]bool)
	cats := make([]Category, 0, len(f.Categories))
	for _, fc := range f.Categories {
		if fc.ID == "" {
			return nil, fmt.Errorf("category without id")
		}
		if seen[fc.ID] {
			return nil, fmt.Errorf("duplicate category %q", fc.ID)
		}
		seen[fc.ID] = true
		c := Category{ID: fc.ID, Name: fc.Name}
		if c.Name == "" {
			c.Name = fc.ID
		}
		for _, r := range fc.Questions {
			q, err := r.Decode(fc.ID)
			if err != nil {
				return nil, err
			}
			c.Questions = append(c.Questions, q)
		}
		cats = append(cats, c)
	}
	return &StaticBank{cats: cats}, nil
}

func LoadFile(path string) (*StaticBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question bank: %w", err)
	}
	return ParseBank(data)
}

// Default returns the bank compiled into the binary.
func Default() *StaticBank {
	b, err := ParseBank(defaultBank)
	if err != nil {
		panic(fmt.Sprintf("embedded question bank: %v", err))
	}
	return b
}
