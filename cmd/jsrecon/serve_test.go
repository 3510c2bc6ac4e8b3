package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunServeExitsOnEOF(t *testing.T) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetIn(strings.NewReader("")) // immediate EOF
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	require.NoError(t, runServe(cmd, nil))
	assert.Contains(t, out.String(), `"ready"`)
}

func TestRunServeHandlesScan(t *testing.T) {
	in := strings.NewReader(`{"type":"scan","payload":{"pageURL":"https://example.com/","contentSources":[{"source":"Inline Script #1","code":"fetch(\"/api/v1/users\")"}]}}` + "\n")
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetIn(in)
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())

	require.NoError(t, runServe(cmd, nil))
	assert.Contains(t, out.String(), "/api/v1/users")
}
