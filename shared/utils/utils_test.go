package utils

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateID(t *testing.T) {
	a := GenerateID(TransferIDPrefix)
	b := GenerateID(TransferIDPrefix)
	assert.NotEqual(t, a, b)

	rest, ok := strings.CutPrefix(a, "trf-")
	require.True(t, ok, a)
	assert.NoError(t, uuid.Validate(rest))
}

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, SplitIDs(" A, ,B,"))
	assert.Empty(t, SplitIDs(""))
}
