package matcher

import (
	"regexp"

	"github.com/imoan723/JSRecon-Buddy/pkg/types"
)

// Structural pattern sources. These are fixed for every scan; only the
// interesting-parameter detector is built dynamically (matcher.go).
//
// RE2 has no lookahead, so constraints like "endpoint must not start with
// //" are enforced by the engine's validation step, not the pattern.
const (
	// subdomainPattern matches an optional scheme, a dotted hostname, and
	// an optional path; only the hostname is captured.
	subdomainPattern = `(?i)(?:[a-z][a-z0-9+.-]*://)?((?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,})(?:/[^\s"'<>]*)?`

	// endpointPattern matches a quoted root-relative path of URL-safe
	// characters; the path is captured without its quotes.
	endpointPattern = "[\"'`](/[a-zA-Z0-9_?&=/\\-#.%:+]*)[\"'`]"

	// sourceMapPattern matches a sourceMappingURL comment in either the
	// line or block form and captures the target URL.
	sourceMapPattern = `(?i)(?://|/\*)[#@]\s*sourceMappingURL\s*=\s*([^\s*'"]+)`

	// libraryPattern matches a minified-bundle banner comment carrying a
	// library name and version, e.g. "/*! jQuery v3.6.0".
	libraryPattern = `/\*![ \t]*[A-Za-z][\w .-]*[ \t]+v?\d+(?:\.\d+)+`

	// sinkAssignPattern matches assignment to a dangerous DOM property.
	// The trailing [^=] excludes equality comparisons.
	sinkAssignPattern = `\.(?:innerHTML|outerHTML|cssText|src|href|action|style)\s*=[^=]`

	// sinkCallPattern matches calls to dangerous DOM/JS functions.
	sinkCallPattern = `\b(?:insertAdjacentHTML|document\.write(?:ln)?|eval|setTimeout|setInterval|setAttribute|execScript|new\s+Function)\s*\(`
)

// DefaultParams is the built-in interesting-parameter list, applied by
// callers when the user configures no list of their own. Passing an
// explicit empty list still disables the category entirely.
var DefaultParams = []string{
	"redirect", "url", "ret", "next", "goto", "target", "dest", "r",
	"debug", "test", "admin", "edit", "enable",
	"id", "user", "account", "profile",
	"key", "token", "api_key", "secret", "password", "email",
	"callback", "return", "returnTo", "return_to", "redirect_to",
	"redirectTo", "continue",
}

var (
	subdomainRe  = regexp.MustCompile(subdomainPattern)
	endpointRe   = regexp.MustCompile(endpointPattern)
	sourceMapRe  = regexp.MustCompile(sourceMapPattern)
	libraryRe    = regexp.MustCompile(libraryPattern)
	sinkAssignRe = regexp.MustCompile(sinkAssignPattern)
	sinkCallRe   = regexp.MustCompile(sinkCallPattern)
)

// structuralDetectors returns a fresh slice of the fixed detectors. The
// compiled patterns are shared package state; detectors hold no per-scan
// mutable state so sharing is safe.
func structuralDetectors() []*Detector {
	return []*Detector{
		{
			Category:     types.CategorySubdomains,
			ContextMode:  types.ContextSnippet,
			CaptureGroup: 1,
			std:          subdomainRe,
		},
		{
			Category:     types.CategoryEndpoints,
			ContextMode:  types.ContextSnippet,
			CaptureGroup: 1,
			std:          endpointRe,
		},
		{
			Category:     types.CategorySourceMaps,
			ContextMode:  types.ContextLine,
			CaptureGroup: 1,
			std:          sourceMapRe,
		},
		{
			Category:    types.CategoryLibraries,
			ContextMode: types.ContextLine,
			std:         libraryRe,
		},
		{
			Category:    types.CategoryDOMSinks,
			ContextMode: types.ContextSnippet,
			std:         sinkAssignRe,
		},
		{
			Category:    types.CategoryDOMSinks,
			ContextMode: types.ContextSnippet,
			std:         sinkCallRe,
		},
	}
}
