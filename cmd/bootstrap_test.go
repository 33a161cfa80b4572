package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptPassword_ReadsFirstLineFromPipe(t *testing.T) {
	password, err := promptPassword(strings.NewReader("s3cret\nignored\n"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", password)
}

func TestPromptPassword_AcceptsLineWithoutNewline(t *testing.T) {
	password, err := promptPassword(strings.NewReader("s3cret"), &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, "s3cret", password)
}

func TestPromptPassword_RejectsEmpty(t *testing.T) {
	_, err := promptPassword(strings.NewReader("\n"), &bytes.Buffer{})
	assert.Error(t, err)

	_, err = promptPassword(strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}
