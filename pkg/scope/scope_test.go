package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBaseDomain(t *testing.T) {
	tests := []struct {
		hostname string
		want     string
	}{
		{"example.com", "example.com"},
		{"app.example.com", "example.com"},
		{"a.b.example.com", "example.com"},
		{"example.co.uk", "example.co.uk"},
		{"www.example.co.uk", "example.co.uk"},
		{"deep.cdn.example.ac.jp", "example.ac.jp"},
		{"portal.example.gov.br", "example.gov.br"},
		{"localhost", "localhost"},
		{"EXAMPLE.COM", "example.com"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BaseDomain(tt.hostname), "hostname %q", tt.hostname)
	}
}

func TestInScope_SiblingSubdomainAccepted(t *testing.T) {
	assert.True(t, InScope("api.example.com", "app.example.com"))
}

func TestInScope_BaseDomainItselfAccepted(t *testing.T) {
	assert.True(t, InScope("example.com", "app.example.com"))
}

func TestInScope_ForeignHostRejected(t *testing.T) {
	assert.False(t, InScope("evil.com", "app.example.com"))
}

func TestInScope_SuffixSpoofRejected(t *testing.T) {
	// "notexample.com" must not pass the "."+base suffix check.
	assert.False(t, InScope("notexample.com", "app.example.com"))
}

func TestInScope_ExactHostAccepted(t *testing.T) {
	assert.True(t, InScope("app.example.com", "app.example.com"))
}

func TestInScope_DeepSubdomainAccepted(t *testing.T) {
	assert.True(t, InScope("a.b.shop.example.co.uk", "shop.example.co.uk"))
	assert.True(t, InScope("assets.example.co.uk", "shop.example.co.uk"))
}

func TestInScope_SecondLevelSuffixNotTreatedAsBase(t *testing.T) {
	// Sharing only ".co.uk" is not sharing a registrable domain.
	assert.False(t, InScope("other.co.uk", "shop.example.co.uk"))
}

func TestInScope_EmptyInputs(t *testing.T) {
	assert.False(t, InScope("", "example.com"))
	assert.False(t, InScope("example.com", ""))
}

func TestInScope_CaseInsensitive(t *testing.T) {
	assert.True(t, InScope("API.Example.COM", "app.example.com"))
}
