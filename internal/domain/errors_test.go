package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidConfigErrorMatchesSentinel(t *testing.T) {
	err := Invalid("step", "must be positive")
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.Equal(t, "step must be positive", err.Error())

	var cfgErr *InvalidConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "step", cfgErr.Field)
}

func TestInvalidConfigErrorWithoutField(t *testing.T) {
	err := &InvalidConfigError{Reason: "bounds have zero area"}
	assert.Equal(t, "bounds have zero area", err.Error())
}
