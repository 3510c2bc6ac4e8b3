package rule

import (
	"testing"

	"github.com/imoan723/JSRecon-Buddy/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterRules() []*types.Rule {
	return []*types.Rule{
		{ID: "jsrb.aws.1"},
		{ID: "jsrb.aws.2"},
		{ID: "jsrb.gcp.1"},
		{ID: "jsrb.generic.1"},
	}
}

func TestParsePatterns(t *testing.T) {
	assert.Empty(t, ParsePatterns(""))
	assert.Equal(t, []string{"aws", "gcp"}, ParsePatterns("aws,gcp"))
	assert.Equal(t, []string{"aws", "gcp"}, ParsePatterns(" aws , gcp , "))
}

func TestFilter_NoConfigKeepsAll(t *testing.T) {
	out, err := Filter(filterRules(), FilterConfig{})
	require.NoError(t, err)
	assert.Len(t, out, 4)
}

func TestFilter_Include(t *testing.T) {
	out, err := Filter(filterRules(), FilterConfig{Include: []string{`aws`}})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "jsrb.aws.1", out[0].ID)
	assert.Equal(t, "jsrb.aws.2", out[1].ID)
}

func TestFilter_Exclude(t *testing.T) {
	out, err := Filter(filterRules(), FilterConfig{Exclude: []string{`generic`}})
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestFilter_IncludeThenExclude(t *testing.T) {
	out, err := Filter(filterRules(), FilterConfig{
		Include: []string{`aws|gcp`},
		Exclude: []string{`aws\.2`},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "jsrb.aws.1", out[0].ID)
	assert.Equal(t, "jsrb.gcp.1", out[1].ID)
}

func TestFilter_InvalidPattern(t *testing.T) {
	_, err := Filter(filterRules(), FilterConfig{Include: []string{"(bad"}})
	assert.Error(t, err)
}
