package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeVersion(&buf, true))
	assert.Equal(t, Version+"\n", buf.String())

	buf.Reset()
	require.NoError(t, writeVersion(&buf, false))
	assert.Contains(t, buf.String(), "cms-api "+Version)
	assert.Contains(t, buf.String(), GitCommit)
}
