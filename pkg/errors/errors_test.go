package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = New("sentinel")

func TestWrap_KeepsSentinelIntact(t *testing.T) {
	cause := New("disk on fire")
	wrapped := errSentinel.Wrap(cause)

	require.Error(t, wrapped)
	assert.Equal(t, "sentinel: disk on fire", wrapped.Error())
	assert.Equal(t, "sentinel", errSentinel.Error())
	assert.Nil(t, errSentinel.Unwrap())

	assert.True(t, Is(wrapped, errSentinel))
	assert.True(t, Is(wrapped, cause))
}

func TestWrap_ThroughFmt(t *testing.T) {
	err := fmt.Errorf("loading node: %w", errSentinel.WrapMessage("bad key"))

	assert.True(t, Is(err, errSentinel))
	assert.Contains(t, err.Error(), "bad key")

	var target *Error
	require.True(t, As(err, &target))
	assert.Equal(t, "sentinel: bad key", target.Error())
}

func TestWrap_Twice(t *testing.T) {
	first := errSentinel.Wrap(New("a"))
	second := first.Wrap(New("b"))

	assert.True(t, Is(second, errSentinel))
	assert.Equal(t, "sentinel: b", second.Error())
}
