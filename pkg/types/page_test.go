package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageKey_String(t *testing.T) {
	k := PageKey{TabID: 7, URL: "https://app.example.com/dash"}
	assert.Equal(t, "7|https://app.example.com/dash", k.String())
}

func TestPageKey_StringWithoutTab(t *testing.T) {
	k := PageKey{TabID: NoTab, URL: "https://example.com/"}
	assert.Equal(t, "https://example.com/", k.String())
}

func TestParsePageKey_RoundTrip(t *testing.T) {
	orig := PageKey{TabID: 42, URL: "https://shop.example.co.uk/cart?x=1"}
	assert.Equal(t, orig, ParsePageKey(orig.String()))
}

func TestParsePageKey_BareURL(t *testing.T) {
	k := ParsePageKey("https://example.com/path")
	assert.Equal(t, NoTab, k.TabID)
	assert.Equal(t, "https://example.com/path", k.URL)
}

func TestParsePageKey_NonNumericPrefixIsURL(t *testing.T) {
	// A "|" in the raw string only splits when preceded by a tab number.
	k := ParsePageKey("https://x.test/a|b")
	assert.Equal(t, NoTab, k.TabID)
	assert.Equal(t, "https://x.test/a|b", k.URL)
}
