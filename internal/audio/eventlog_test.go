package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventLogSnapshotBeforeWrap(t *testing.T) {
	l := NewEventLog(4)
	l.Log(EventDevAdded, 1, 0)
	l.Log(EventStreamAdded, 2, 0)

	snap := l.Snapshot()
	require := assert.New(t)
	require.Len(snap, 2)
	require.Equal(EventDevAdded, snap[0].Type)
	require.Equal(EventStreamAdded, snap[1].Type)
}

func TestEventLogSnapshotWrapsInOrder(t *testing.T) {
	l := NewEventLog(3)
	for i := int64(0); i < 5; i++ {
		l.Log(EventThreadWake, i, 0)
	}
	snap := l.Snapshot()
	assert.Len(t, snap, 3)
	assert.Equal(t, int64(2), snap[0].A)
	assert.Equal(t, int64(3), snap[1].A)
	assert.Equal(t, int64(4), snap[2].A)
}

func TestEventTypeString(t *testing.T) {
	assert.Equal(t, "dev_added", EventDevAdded.String())
	assert.Equal(t, "unknown", EventType(99).String())
}
