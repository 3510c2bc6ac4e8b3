package types

import "fmt"

// MainDocument is the content-source label for the page's own HTML.
const MainDocument = "Main HTML Document"

// InlineScript returns the label for the nth inline script block (1-based).
func InlineScript(n int) string {
	return fmt.Sprintf("Inline Script #%d", n)
}

// ContentSource is one unit of scannable text: the page HTML, an inline
// script body, or the fetched body of an external script. Immutable once
// captured.
type ContentSource struct {
	Source   string `json:"source"`                // URL, "Inline Script #n", or MainDocument
	Code     string `json:"code"`                  // raw text as gathered
	TooLarge bool   `json:"isTooLarge,omitempty"`  // body was truncated at the size cap
}
