package factory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMProvider(t *testing.T) {
	p, err := NewLLMProvider("ollama", "llama3", "", "")
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = NewLLMProvider("anthropic", "claude", "", "")
	assert.Error(t, err)

	p, err = NewLLMProvider("anthropic", "claude", "", "key")
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = NewLLMProvider("gpt-local", "x", "", "")
	assert.Error(t, err)
}
