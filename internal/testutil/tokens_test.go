package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceTokens(t *testing.T) {
	gen := NewSequenceTokens("")
	assert.Equal(t, "session-1", gen.Generate())
	assert.Equal(t, "session-2", gen.Generate())

	custom := NewSequenceTokens("login")
	assert.Equal(t, "login-1", custom.Generate())
}
