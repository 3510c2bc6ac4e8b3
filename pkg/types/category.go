package types

// Finding categories. The strings are wire- and display-stable: they key
// ScanResult.Results, the cache serialization, and the export document.
const (
	CategorySubdomains = "Subdomains"
	CategoryEndpoints  = "Endpoints"
	CategorySourceMaps = "Source Maps"
	CategoryLibraries  = "JS Libraries"
	CategoryDOMSinks   = "Potential DOM XSS Sinks"
	CategoryParameters = "Interesting Parameters"
	CategorySecrets    = "Potential Secrets"
)

// Categories lists every category in canonical display order.
var Categories = []string{
	CategorySecrets,
	CategorySubdomains,
	CategoryEndpoints,
	CategoryDOMSinks,
	CategoryParameters,
	CategoryLibraries,
	CategorySourceMaps,
}

// ContextMode selects how occurrence context is materialized.
type ContextMode string

const (
	// ContextSnippet extracts a bounded character window around the match.
	ContextSnippet ContextMode = "snippet"
	// ContextLine uses the trimmed full match text verbatim.
	ContextLine ContextMode = "line"
)

// CategoryContextMode returns the context mode used when rendering
// occurrences of the given category.
func CategoryContextMode(category string) ContextMode {
	switch category {
	case CategorySourceMaps, CategoryLibraries:
		return ContextLine
	default:
		return ContextSnippet
	}
}
