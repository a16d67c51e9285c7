package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferFeedAccumulates(t *testing.T) {
	var b Buffer
	b.Feed([]byte{1, 2, 3})
	b.Feed([]byte{4, 5})
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, b.Bytes())
	assert.Equal(t, 5, b.Len())
}

func TestBufferFeedClearsOnOverflow(t *testing.T) {
	var b Buffer
	b.Feed(make([]byte, MaxBufferSize))
	assert.Equal(t, MaxBufferSize, b.Len())
	b.Feed([]byte{1, 2, 3})
	assert.Equal(t, 3, b.Len())
}

func TestBufferAdvanceDropsPrefix(t *testing.T) {
	var b Buffer
	b.Feed([]byte{1, 2, 3, 4, 5})
	b.Advance(2)
	assert.Equal(t, []byte{3, 4, 5}, b.Bytes())
}

func TestBufferAdvancePastEndClears(t *testing.T) {
	var b Buffer
	b.Feed([]byte{1, 2, 3})
	b.Advance(10)
	assert.Equal(t, 0, b.Len())
}

func TestBufferAdvanceNegativeIsNoOp(t *testing.T) {
	var b Buffer
	b.Feed([]byte{1, 2, 3})
	b.Advance(-1)
	assert.Equal(t, 3, b.Len())
}
