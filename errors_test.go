package sensact

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStructuredError(t *testing.T) {
	err := NewError("connect", ErrTransportOpen, "could not open /dev/ttyUSB0")
	assert.Equal(t, "connect", err.Op)
	assert.Equal(t, ErrTransportOpen, err.Code)
	assert.Equal(t, "sensact: could not open /dev/ttyUSB0 (op=connect)", err.Error())
}

func TestDeviceError(t *testing.T) {
	err := NewDeviceError("exec_command", "xsens0", ErrCommandTimeout, "goto_config timed out")
	assert.Equal(t, "xsens0", err.Device)
	assert.Equal(t, "sensact: goto_config timed out (op=exec_command)", err.Error())
}

func TestQuantityError(t *testing.T) {
	err := NewQuantityError("get_value", "xsens0", "ax", ErrQuantityNotAvailable, "no sample yet")
	assert.Equal(t, "xsens0", err.Device)
	assert.Equal(t, "ax", err.Quantity)
}

func TestWrapErrorPreservesCode(t *testing.T) {
	inner := NewDeviceError("read_some", "xsens0", ErrDisconnected, "EOF from transport")
	wrapped := WrapError("start_polling", inner)
	require.NotNil(t, wrapped)
	assert.Equal(t, "start_polling", wrapped.Op)
	assert.Equal(t, ErrDisconnected, wrapped.Code)
	assert.Equal(t, "xsens0", wrapped.Device)
}

func TestWrapErrorGeneric(t *testing.T) {
	inner := errors.New("boom")
	wrapped := WrapError("write_all", inner)
	require.NotNil(t, wrapped)
	assert.Equal(t, ErrTransportIo, wrapped.Code)
	assert.ErrorIs(t, wrapped, wrapped)
}

func TestWrapErrorNil(t *testing.T) {
	assert.Nil(t, WrapError("op", nil))
}

func TestIsCode(t *testing.T) {
	err := NewError("exec_query", ErrChecksum, "bad checksum")
	assert.True(t, IsCode(err, ErrChecksum))
	assert.False(t, IsCode(err, ErrFrame))
	assert.False(t, IsCode(nil, ErrChecksum))
}
