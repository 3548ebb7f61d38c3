package bus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDedupWindowRejectsWithinWindow(t *testing.T) {
	d := NewDedupWindow(time.Second)
	now := time.Now()

	assert.False(t, d.Seen("msg-1", now), "first observation must not be a duplicate")
	assert.True(t, d.Seen("msg-1", now.Add(100*time.Millisecond)), "redelivery inside the window is a duplicate")
	assert.True(t, d.Seen("msg-1", now.Add(999*time.Millisecond)))
}

func TestDedupWindowExpires(t *testing.T) {
	d := NewDedupWindow(time.Second)
	now := time.Now()

	require := assert.New(t)
	require.False(d.Seen("msg-1", now))
	require.False(d.Seen("msg-1", now.Add(2*time.Second)), "id outside the window is treated as new")
}

func TestDedupWindowDistinctIDs(t *testing.T) {
	d := NewDedupWindow(time.Minute)
	now := time.Now()
	assert.False(t, d.Seen("a", now))
	assert.False(t, d.Seen("b", now))
	assert.Equal(t, 2, d.Len())
}
