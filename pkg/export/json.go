// Package export renders completed scan results into portable documents:
// a flat JSON report with contexts materialized, and SARIF 2.1.0 for
// ingestion by code-scanning tooling.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

// Occurrence is one exported occurrence with its context materialized;
// unlike the cached form it carries no offsets and needs no content map.
type Occurrence struct {
	Source  string `json:"source"`
	Context string `json:"context,omitempty"`
	RuleID  string `json:"ruleId,omitempty"`
}

// Finding is one unique value and everywhere it occurred.
type Finding struct {
	Value       string
	Occurrences []Occurrence
}

// Category is a named group of findings, sorted by value.
type Category struct {
	Name     string
	Findings []Finding
}

// Categories is the ordered category list. It marshals as a JSON object
// whose keys appear in canonical category order, which plain Go maps
// cannot guarantee.
type Categories []Category

// Document is the exported form of one scan.
type Document struct {
	URL         string     `json:"url"`
	GeneratedAt time.Time  `json:"generatedAt"`
	Categories  Categories `json:"categories"`
}

// NewDocument flattens res into an export document for pageURL. Occurrence
// contexts are materialized from the retained content map: a character
// window for most categories, the trimmed match line for categories whose
// whole match is the interesting text. Categories come out in canonical
// display order with values sorted inside each.
func NewDocument(pageURL string, res *types.ScanResult) *Document {
	doc := &Document{
		URL:         pageURL,
		GeneratedAt: time.Now().UTC(),
	}

	for _, name := range categoryOrder(res) {
		byValue := res.Results[name]
		if len(byValue) == 0 {
			continue
		}
		radius := 0
		if types.CategoryContextMode(name) == types.ContextSnippet {
			radius = types.DisplayContextRadius
		}

		cat := Category{Name: name, Findings: make([]Finding, 0, len(byValue))}
		values := make([]string, 0, len(byValue))
		for v := range byValue {
			values = append(values, v)
		}
		sort.Strings(values)

		for _, v := range values {
			f := Finding{Value: v}
			for _, occ := range byValue[v].Occurrences {
				f.Occurrences = append(f.Occurrences, Occurrence{
					Source:  occ.Source,
					Context: res.Context(occ, radius),
					RuleID:  occ.RuleID,
				})
			}
			cat.Findings = append(cat.Findings, f)
		}
		doc.Categories = append(doc.Categories, cat)
	}
	return doc
}

// categoryOrder returns the canonical category sequence followed by any
// categories the result carries that the canonical list does not name.
func categoryOrder(res *types.ScanResult) []string {
	known := make(map[string]bool, len(types.Categories))
	order := make([]string, 0, len(res.Results))
	for _, name := range types.Categories {
		known[name] = true
		order = append(order, name)
	}
	var extra []string
	for name := range res.Results {
		if !known[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	return append(order, extra...)
}

// JSON writes doc to w as indented JSON.
func JSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding export document: %w", err)
	}
	return nil
}

// Filename builds a download-style report name from the page URL, e.g.
// "jsrecon_app.example.com_login.json".
func Filename(pageURL string) string {
	name := pageURL
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		name = u.Host
		if p := strings.Trim(u.Path, "/"); p != "" {
			name += "_" + p
		}
	}
	return "jsrecon_" + sanitize(name) + ".json"
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// MarshalJSON renders the categories as an ordered object of
// {value: [occurrence...]} objects.
func (c Categories) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, cat := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(cat.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if err := marshalFindings(&buf, cat.Findings); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalFindings(buf *bytes.Buffer, findings []Finding) error {
	buf.WriteByte('{')
	for i, f := range findings {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Value)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		occs, err := json.Marshal(f.Occurrences)
		if err != nil {
			return err
		}
		buf.Write(occs)
	}
	buf.WriteByte('}')
	return nil
}

// UnmarshalJSON restores the ordered form from the object encoding. Input
// key order is not recoverable from a JSON object, so categories come back
// in canonical order and values sorted, matching what MarshalJSON emits.
func (c *Categories) UnmarshalJSON(data []byte) error {
	var raw map[string]map[string][]Occurrence
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	names := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, name := range types.Categories {
		if _, ok := raw[name]; ok {
			names = append(names, name)
			seen[name] = true
		}
	}
	var extra []string
	for name := range raw {
		if !seen[name] {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	names = append(names, extra...)

	out := make(Categories, 0, len(names))
	for _, name := range names {
		byValue := raw[name]
		values := make([]string, 0, len(byValue))
		for v := range byValue {
			values = append(values, v)
		}
		sort.Strings(values)

		cat := Category{Name: name, Findings: make([]Finding, 0, len(values))}
		for _, v := range values {
			cat.Findings = append(cat.Findings, Finding{Value: v, Occurrences: byValue[v]})
		}
		out = append(out, cat)
	}
	*c = out
	return nil
}

// FindingCount returns the number of unique values in the document.
func (d *Document) FindingCount() int {
	n := 0
	for _, cat := range d.Categories {
		n += len(cat.Findings)
	}
	return n
}
