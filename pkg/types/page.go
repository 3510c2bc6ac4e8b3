package types

import (
	"strconv"
	"strings"
)

// NoTab marks a page key that is not bound to a tab (one-shot CLI scans).
const NoTab = -1

// PageKey identifies a distinct scannable page instance. The pair matters:
// the same URL open in two tabs has two independent scan lifecycles, and a
// tab's URL changes over its lifetime.
type PageKey struct {
	TabID int    `json:"tabId"`
	URL   string `json:"url"`
}

// String renders the cache/scan key as "tabID|url", or the bare URL when
// the key is not tab-scoped.
func (k PageKey) String() string {
	if k.TabID < 0 {
		return k.URL
	}
	return strconv.Itoa(k.TabID) + "|" + k.URL
}

// ParsePageKey is the inverse of String. Input without a numeric "tab|"
// prefix parses as a tab-less key.
func ParsePageKey(s string) PageKey {
	if i := strings.Index(s, "|"); i > 0 {
		if tab, err := strconv.Atoi(s[:i]); err == nil && tab >= 0 {
			return PageKey{TabID: tab, URL: s[i+1:]}
		}
	}
	return PageKey{TabID: NoTab, URL: s}
}
