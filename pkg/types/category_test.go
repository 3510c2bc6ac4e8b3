package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategoryContextMode(t *testing.T) {
	assert.Equal(t, ContextLine, CategoryContextMode(CategorySourceMaps))
	assert.Equal(t, ContextLine, CategoryContextMode(CategoryLibraries))
	assert.Equal(t, ContextSnippet, CategoryContextMode(CategorySecrets))
	assert.Equal(t, ContextSnippet, CategoryContextMode(CategorySubdomains))
	assert.Equal(t, ContextSnippet, CategoryContextMode("unknown"))
}

func TestCategories_CoversAllConstants(t *testing.T) {
	want := map[string]bool{
		CategorySubdomains: true,
		CategoryEndpoints:  true,
		CategorySourceMaps: true,
		CategoryLibraries:  true,
		CategoryDOMSinks:   true,
		CategoryParameters: true,
		CategorySecrets:    true,
	}
	assert.Len(t, Categories, len(want))
	for _, c := range Categories {
		assert.True(t, want[c], "unexpected category %q", c)
	}
}
