// Package explore is an interactive findings browser over an exported
// scan document: categories on the left, findings in the middle,
// occurrence detail on the right. Read-only; it consumes the export
// document shape and never touches the cache or the network.
package explore

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/imoan723/JSRecon-Buddy/pkg/export"
)

// Load reads an exported JSON document from path.
func Load(path string) (*export.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading export document: %w", err)
	}
	var doc export.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing export document: %w", err)
	}
	return &doc, nil
}

// filterCategories returns the categories whose findings match query by
// value or source, case-insensitively. An empty query passes everything
// through; a category with no matching findings is dropped.
func filterCategories(cats export.Categories, query string) export.Categories {
	if strings.TrimSpace(query) == "" {
		return cats
	}
	q := strings.ToLower(query)

	var out export.Categories
	for _, cat := range cats {
		var kept []export.Finding
		for _, f := range cat.Findings {
			if findingMatches(f, q) {
				kept = append(kept, f)
			}
		}
		if len(kept) > 0 {
			out = append(out, export.Category{Name: cat.Name, Findings: kept})
		}
	}
	return out
}

func findingMatches(f export.Finding, q string) bool {
	if strings.Contains(strings.ToLower(f.Value), q) {
		return true
	}
	for _, occ := range f.Occurrences {
		if strings.Contains(strings.ToLower(occ.Source), q) {
			return true
		}
	}
	return false
}
