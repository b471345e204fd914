package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancelledRuns_MarkIsMarkedClear(t *testing.T) {
	c := newCancelledRuns()

	assert.False(t, c.isMarked("run-1"))

	c.mark("run-1")
	assert.True(t, c.isMarked("run-1"))
	assert.False(t, c.isMarked("run-2"))

	c.clear("run-1")
	assert.False(t, c.isMarked("run-1"))
}

func TestEngine_CancelAndCancelled(t *testing.T) {
	e := &Engine{cancelledSet: newCancelledRuns()}

	assert.False(t, e.cancelled("run-1"))
	e.Cancel("run-1")
	assert.True(t, e.cancelled("run-1"))
}
