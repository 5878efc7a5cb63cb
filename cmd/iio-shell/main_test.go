package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand(t *testing.T) {
	c, err := parseFlags([]string{"-u", "mem:dummy", "-c", "read dummy0@name"})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), c, &out))
	assert.Equal(t, "name = dummy0\n", out.String())
}

func TestRunOpenError(t *testing.T) {
	c, err := parseFlags([]string{"-u", "mem:missing", "-c", "ls"})
	require.NoError(t, err)

	err = run(context.Background(), c, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open mem:missing")
}
