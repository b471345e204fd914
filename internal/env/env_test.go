package env

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStr_ReturnsSetValue(t *testing.T) {
	t.Setenv("SPEECHBENCH_TEST_VAR", "configured")
	assert.Equal(t, "configured", Str("SPEECHBENCH_TEST_VAR", "fallback"))
}

func TestStr_FallsBackWhenUnset(t *testing.T) {
	assert.Equal(t, "fallback", Str("SPEECHBENCH_TEST_VAR_UNSET", "fallback"))
}
