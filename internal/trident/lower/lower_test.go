package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForTargetResolvesTriton(t *testing.T) {
	backend, err := ForTarget("triton")
	require.NoError(t, err)
	assert.Equal(t, "triton", backend.TargetName())
}

func TestForTargetUnknownErrors(t *testing.T) {
	_, err := ForTarget("nonexistent")
	assert.Error(t, err)
}
